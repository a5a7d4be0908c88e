package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/blob"
	"github.com/teachdrive/teachdrive/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (http.Handler, *Service, testutil.TestUser, authz.Owner) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	blobs, err := blob.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("blob.New: %v", err)
	}
	svc := NewService(db, blobs, zap.NewNop())

	user := testutil.NewTestUser("alice", "alice@example.com")
	ownerID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		t.Fatalf("owner ID: %v", err)
	}
	owner := authz.Owner{
		ID:            ownerID,
		Username:      user.Username,
		FolderSegment: user.FolderSegment,
	}
	if _, err := svc.ProvisionRoot(context.Background(), owner); err != nil {
		t.Fatalf("ProvisionRoot: %v", err)
	}

	return Routes(NewHandler(svc, zap.NewNop())), svc, user, owner
}

func TestCreateFolderHandler(t *testing.T) {
	router, _, user, _ := newTestRouter(t)

	body := strings.NewReader(`{"name":"Docs","parentId":"root"}`)
	req := testutil.NewAuthenticatedJSONRequest("POST", "/folders", body, user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"Docs"`)

	// Case-insensitive duplicate in the same parent.
	body = strings.NewReader(`{"name":"docs","parentId":"root"}`)
	req = testutil.NewAuthenticatedJSONRequest("POST", "/folders", body, user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusConflict)

	body = strings.NewReader(`{"name":"a/b","parentId":"root"}`)
	req = testutil.NewAuthenticatedJSONRequest("POST", "/folders", body, user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestCreateFolderHandler_Unauthenticated(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/folders", strings.NewReader(`{"name":"Docs"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestGetFolderHandler(t *testing.T) {
	router, svc, user, owner := newTestRouter(t)

	docs := mustCreateFolder(t, svc, owner, RootRef, "Docs")
	mustUpload(t, svc, owner, RootRef, "top.txt", "x")

	req := testutil.NewAuthenticatedRequest("GET", "/folders/root", user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Docs"`)
	rec.AssertContains(t, `"top.txt"`)

	req = testutil.NewAuthenticatedRequest("GET", "/folders/"+docs.ID.Hex(), user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest("GET", "/folders/"+primitive.NewObjectID().Hex(), user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestGetFolderTreeHandler(t *testing.T) {
	router, svc, user, owner := newTestRouter(t)

	docs := mustCreateFolder(t, svc, owner, RootRef, "Docs")
	mustCreateFolder(t, svc, owner, docs.ID.Hex(), "Notes")

	req := testutil.NewAuthenticatedRequest("GET", "/folders/root/tree", user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var tree TreeNode
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if tree.Name != RootFolderName {
		t.Errorf("tree root = %q", tree.Name)
	}
	if len(tree.Folders) != 1 || len(tree.Folders[0].Folders) != 1 {
		t.Errorf("tree shape = %+v", tree)
	}
}

func TestRenameFolderHandler(t *testing.T) {
	router, svc, user, owner := newTestRouter(t)

	docs := mustCreateFolder(t, svc, owner, RootRef, "Docs")

	body := strings.NewReader(`{"name":"Work"}`)
	req := testutil.NewAuthenticatedJSONRequest("PATCH", "/folders/"+docs.ID.Hex(), body, user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Work"`)

	// The root refuses renames.
	root, err := svc.ResolveFolder(context.Background(), owner, RootRef)
	if err != nil {
		t.Fatalf("resolve root: %v", err)
	}
	body = strings.NewReader(`{"name":"Other"}`)
	req = testutil.NewAuthenticatedJSONRequest("PATCH", "/folders/"+root.ID.Hex(), body, user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)

	req = testutil.NewAuthenticatedJSONRequest("PATCH", "/folders/not-hex", strings.NewReader(`{"name":"X"}`), user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestDeleteFolderHandler(t *testing.T) {
	router, svc, user, owner := newTestRouter(t)

	docs := mustCreateFolder(t, svc, owner, RootRef, "Docs")
	notes := mustCreateFolder(t, svc, owner, docs.ID.Hex(), "Notes")
	mustUpload(t, svc, owner, notes.ID.Hex(), "a.txt", "x")

	req := testutil.NewAuthenticatedRequest("DELETE", "/folders/"+docs.ID.Hex(), user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
	rec.AssertContains(t, `"subfolderCount":1`)
	rec.AssertContains(t, `"fileCount":1`)

	req = testutil.NewAuthenticatedRequest("DELETE", "/folders/"+docs.ID.Hex()+"?confirm=true", user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"foldersDeleted":2`)
	rec.AssertContains(t, `"filesDeleted":1`)
}

func uploadRequest(t *testing.T, target, filename, content string, user testutil.TestUser) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, user)
}

func TestUploadAndDownloadHandlers(t *testing.T) {
	router, _, user, _ := newTestRouter(t)

	const content = "handler round trip"
	req := uploadRequest(t, "/folders/root/files", "hello.txt", content, user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var created fileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if created.Name != "hello.txt" || created.Size != int64(len(content)) {
		t.Errorf("created = %+v", created)
	}

	req = testutil.NewAuthenticatedRequest("GET", "/files/"+created.ID+"/download", user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Body.String(); got != content {
		t.Errorf("downloaded %q, want %q", got, content)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "hello.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// Same name in the same folder is rejected.
	req = uploadRequest(t, "/folders/root/files", "hello.txt", "again", user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusConflict)

	// Missing multipart part.
	bare := httptest.NewRequest("POST", "/folders/root/files", strings.NewReader("not multipart"))
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(bare, user))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestRenameAndDeleteFileHandlers(t *testing.T) {
	router, svc, user, owner := newTestRouter(t)

	up := mustUpload(t, svc, owner, RootRef, "old.txt", "payload")

	body := strings.NewReader(`{"name":"new.txt"}`)
	req := testutil.NewAuthenticatedJSONRequest("PATCH", "/files/"+up.ID.Hex(), body, user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"new.txt"`)

	req = testutil.NewAuthenticatedRequest("GET", "/files/"+up.ID.Hex(), user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"new.txt"`)

	req = testutil.NewAuthenticatedRequest("DELETE", "/files/"+up.ID.Hex(), user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	req = testutil.NewAuthenticatedRequest("GET", "/files/"+up.ID.Hex(), user)
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}
