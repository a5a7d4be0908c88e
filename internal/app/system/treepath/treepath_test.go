package treepath

import (
	"regexp"
	"testing"
)

func TestJoin(t *testing.T) {
	if got := Join("a/b", "c"); got != "a/b/c" {
		t.Errorf("Join() = %q, want %q", got, "a/b/c")
	}
	if got := Join("", "Root"); got != "Root" {
		t.Errorf("Join() with empty parent = %q, want %q", got, "Root")
	}
}

func TestParentBase(t *testing.T) {
	if got := Parent("a/b/c"); got != "a/b" {
		t.Errorf("Parent() = %q, want %q", got, "a/b")
	}
	if got := Parent("a"); got != "" {
		t.Errorf("Parent() of single segment = %q, want empty", got)
	}
	if got := Base("a/b/c"); got != "c" {
		t.Errorf("Base() = %q, want %q", got, "c")
	}
	if got := Base("a"); got != "a" {
		t.Errorf("Base() of single segment = %q, want %q", got, "a")
	}
}

func TestSubtreePattern(t *testing.T) {
	re := regexp.MustCompile(SubtreePattern("u/a/b"))

	matches := []string{"u/a/b", "u/a/b/x", "u/a/b/x/y"}
	for _, p := range matches {
		if !re.MatchString(p) {
			t.Errorf("pattern should match %q", p)
		}
	}

	// A sibling that merely shares a string prefix must not match.
	misses := []string{"u/a/bc", "u/a", "u/a/bb/x"}
	for _, p := range misses {
		if re.MatchString(p) {
			t.Errorf("pattern should not match %q", p)
		}
	}
}

func TestSubtreePattern_Metacharacters(t *testing.T) {
	// Folder names can contain regex metacharacters; they must match
	// literally after escaping.
	re := regexp.MustCompile(SubtreePattern("u/Notes (2024)"))

	if !re.MatchString("u/Notes (2024)/week.1") {
		t.Error("escaped pattern should match descendant literally")
	}
	if re.MatchString("u/Notes X2024Y/week.1") {
		t.Error("parentheses must not act as a regex group")
	}
}

func TestDescendantPattern(t *testing.T) {
	re := regexp.MustCompile(DescendantPattern("u/a/b"))

	if !re.MatchString("u/a/b/x") {
		t.Error("pattern should match a strict descendant")
	}
	if re.MatchString("u/a/b") {
		t.Error("pattern must not match the base itself")
	}
	if re.MatchString("u/a/bc/x") {
		t.Error("pattern must respect the separator boundary")
	}
}

func TestWithinRebase(t *testing.T) {
	if !Within("u/a/b/c", "u/a/b") {
		t.Error("Within() should accept descendant")
	}
	if !Within("u/a/b", "u/a/b") {
		t.Error("Within() should accept the base itself")
	}
	if Within("u/a/bc", "u/a/b") {
		t.Error("Within() must respect the separator boundary")
	}

	if got := Rebase("u/a/b/c", "u/a/b", "u/a/z"); got != "u/a/z/c" {
		t.Errorf("Rebase() = %q, want %q", got, "u/a/z/c")
	}
	if got := Rebase("u/a/b", "u/a/b", "u/a/z"); got != "u/a/z" {
		t.Errorf("Rebase() of base itself = %q, want %q", got, "u/a/z")
	}
}
