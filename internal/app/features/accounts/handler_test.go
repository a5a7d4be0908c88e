package accounts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teachdrive/teachdrive/internal/app/features/drive"
	userstore "github.com/teachdrive/teachdrive/internal/app/store/users"
	"github.com/teachdrive/teachdrive/internal/app/system/auth"
	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/blob"
	"github.com/teachdrive/teachdrive/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSessionKey = "test-session-key-32-characters!!"

func newTestRouter(t *testing.T) (http.Handler, *drive.Service, *mongo.Database) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	blobs, err := blob.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("blob.New: %v", err)
	}
	driveSvc := drive.NewService(db, blobs, zap.NewNop())

	sessionMgr, err := auth.NewSessionManager(testSessionKey, "", "", 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	sessionMgr.SetUserFetcher(NewFetcher(db))

	h := NewHandler(db, driveSvc, sessionMgr, zap.NewNop())
	return Routes(h), driveSvc, db
}

func postJSON(router http.Handler, target, body string) *testutil.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterHandler(t *testing.T) {
	router, driveSvc, _ := newTestRouter(t)

	rec := postJSON(router, "/register", `{"username":"alice","email":"alice@example.com","password":"sturdy-pass"}`)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"alice@example.com"`)

	var created struct {
		ID            string `json:"id"`
		FolderSegment string `json:"folderSegment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.FolderSegment != "alice@example.com-alice" {
		t.Errorf("FolderSegment = %q", created.FolderSegment)
	}

	// The session cookie is set on successful registration.
	if len(rec.Result().Cookies()) == 0 {
		t.Error("registration should set a session cookie")
	}

	// The root folder exists, shared, with the physical directory behind it.
	owner := ownerFromResponse(t, created.ID, created.FolderSegment)
	root, err := driveSvc.ResolveFolder(context.Background(), owner, drive.RootRef)
	if err != nil {
		t.Fatalf("root not provisioned: %v", err)
	}
	if !root.IsShared {
		t.Error("provisioned root should be shared")
	}

	// Same email again is a conflict.
	rec = postJSON(router, "/register", `{"username":"alice2","email":"Alice@Example.COM","password":"sturdy-pass"}`)
	rec.AssertStatus(t, http.StatusConflict)
}

func ownerFromResponse(t *testing.T, idHex, segment string) authz.Owner {
	t.Helper()
	user := testutil.TestUser{ID: idHex, FolderSegment: segment}
	req := testutil.NewAuthenticatedRequest("GET", "/", user)
	owner, ok := authz.OwnerCtx(req)
	if !ok {
		t.Fatal("owner not resolvable from response data")
	}
	return owner
}

func TestRegisterHandler_Validation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"username":"alice","password":"sturdy-pass"}`},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"sturdy-pass"}`},
		{"slash in username", `{"username":"a/b","email":"a@example.com","password":"sturdy-pass"}`},
		{"short password", `{"username":"alice","email":"a@example.com","password":"abc"}`},
		{"common password", `{"username":"alice","email":"a@example.com","password":"12345678"}`},
		{"not json", `this is not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(router, "/register", tt.body)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(router, "/register", `{"username":"alice","email":"alice@example.com","password":"sturdy-pass"}`)
	rec.AssertStatus(t, http.StatusCreated)

	rec = postJSON(router, "/login", `{"email":"alice@example.com","password":"sturdy-pass"}`)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"alice"`)
	if len(rec.Result().Cookies()) == 0 {
		t.Error("login should set a session cookie")
	}

	// Email lookup is case-insensitive.
	rec = postJSON(router, "/login", `{"email":"ALICE@example.com","password":"sturdy-pass"}`)
	rec.AssertStatus(t, http.StatusOK)

	// Wrong password and unknown email produce the same response.
	rec = postJSON(router, "/login", `{"email":"alice@example.com","password":"wrong-pass"}`)
	rec.AssertStatus(t, http.StatusUnauthorized)
	wrongPass := rec.Body.String()

	rec = postJSON(router, "/login", `{"email":"nobody@example.com","password":"sturdy-pass"}`)
	rec.AssertStatus(t, http.StatusUnauthorized)
	if rec.Body.String() != wrongPass {
		t.Error("unknown email and wrong password should be indistinguishable")
	}
}

func TestLogoutHandler(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(router, "/logout", ``)
	rec.AssertStatus(t, http.StatusNoContent)
}

func TestMeHandler(t *testing.T) {
	router, _, _ := newTestRouter(t)

	user := testutil.NewTestUser("alice", "alice@example.com")
	req := testutil.NewAuthenticatedRequest("GET", "/me", user)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"alice@example.com"`)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/me", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestFetcher(t *testing.T) {
	_, _, db := newTestRouter(t)
	ctx := context.Background()

	u, err := userstore.New(db).Create(ctx, userstore.CreateInput{
		Username:     "bob",
		Email:        "bob@example.com",
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	f := NewFetcher(db)

	got := f.FetchUser(ctx, u.ID.Hex())
	if got == nil || got.Email != "bob@example.com" || got.FolderSegment != u.FolderSegment {
		t.Errorf("FetchUser = %+v", got)
	}

	if got := f.FetchUser(ctx, "not-a-hex-id"); got != nil {
		t.Errorf("malformed ID should fetch nil, got %+v", got)
	}
	if got := f.FetchUser(ctx, "000000000000000000000000"); got != nil {
		t.Errorf("missing user should fetch nil, got %+v", got)
	}
}
