package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestCreateDirIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateDir("u/Root/Notes"); err != nil {
		t.Fatalf("CreateDir() error: %v", err)
	}
	if err := s.CreateDir("u/Root/Notes"); err != nil {
		t.Fatalf("CreateDir() second call error: %v", err)
	}

	info, err := os.Stat(s.Abs("u/Root/Notes"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at u/Root/Notes, got %v, %v", info, err)
	}
}

func TestWriteReadBlob(t *testing.T) {
	s := newTestStore(t)

	n, err := s.WriteBlob("u/Root/a.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("WriteBlob() error: %v", err)
	}
	if n != 5 {
		t.Errorf("WriteBlob() wrote %d bytes, want 5", n)
	}

	rc, err := s.ReadBlob("u/Root/a.txt")
	if err != nil {
		t.Fatalf("ReadBlob() error: %v", err)
	}
	defer rc.Close()

	buf := make([]byte, 16)
	read, _ := rc.Read(buf)
	if got := string(buf[:read]); got != "hello" {
		t.Errorf("ReadBlob() = %q, want %q", got, "hello")
	}
}

func TestMoveTree(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateDir("u/Root/a/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteBlob("u/Root/a/b/f.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}

	if err := s.MoveTree("u/Root/a", "u/Root/z"); err != nil {
		t.Fatalf("MoveTree() error: %v", err)
	}

	if _, err := os.Stat(s.Abs("u/Root/z/b/f.txt")); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	if _, err := os.Stat(s.Abs("u/Root/a")); !os.IsNotExist(err) {
		t.Errorf("source tree should be gone, stat err = %v", err)
	}
}

func TestMoveTreeRefusesExistingDestination(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateDir("u/Root/a"); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDir("u/Root/b"); err != nil {
		t.Fatal(err)
	}

	if err := s.MoveTree("u/Root/a", "u/Root/b"); err == nil {
		t.Error("MoveTree() onto an existing path should fail")
	}
}

func TestDeleteTreeIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateDir("u/Root/a/b"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTree("u/Root/a"); err != nil {
		t.Fatalf("DeleteTree() error: %v", err)
	}
	if err := s.DeleteTree("u/Root/a"); err != nil {
		t.Fatalf("DeleteTree() of absent path should succeed, got %v", err)
	}
}

func TestDeleteBlobAbsentIsSuccess(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteBlob("u/Root/nope.txt"); err != nil {
		t.Fatalf("DeleteBlob() of absent path should succeed, got %v", err)
	}
}

func TestAbsJoinsUnderRoot(t *testing.T) {
	s := newTestStore(t)

	got := s.Abs("u/Root/a.txt")
	want := filepath.Join(s.Root(), "u", "Root", "a.txt")
	if got != want {
		t.Errorf("Abs() = %q, want %q", got, want)
	}
}

func TestCleanSegment(t *testing.T) {
	good := []string{"Notes", "report (final).pdf", "a.b"}
	for _, name := range good {
		if !CleanSegment(name) {
			t.Errorf("CleanSegment(%q) = false, want true", name)
		}
	}
	bad := []string{"", ".", "..", "a/b", `a\b`}
	for _, name := range bad {
		if CleanSegment(name) {
			t.Errorf("CleanSegment(%q) = true, want false", name)
		}
	}
}
