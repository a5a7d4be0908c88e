package authz

import (
	"net/http/httptest"
	"testing"

	"github.com/teachdrive/teachdrive/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOwnerCtx(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	// No user in context.
	if _, ok := OwnerCtx(req); ok {
		t.Error("OwnerCtx() should report not found without a user")
	}

	// Valid user.
	id := primitive.NewObjectID()
	req2 := auth.WithTestUser(req, &auth.SessionUser{
		ID:            id.Hex(),
		Username:      "alice",
		Email:         "alice@example.com",
		FolderSegment: "alice@example.com-alice",
	})
	owner, ok := OwnerCtx(req2)
	if !ok {
		t.Fatal("OwnerCtx() should find the injected user")
	}
	if owner.ID != id {
		t.Errorf("Owner.ID = %v, want %v", owner.ID, id)
	}
	if owner.FolderSegment != "alice@example.com-alice" {
		t.Errorf("Owner.FolderSegment = %q", owner.FolderSegment)
	}

	// Malformed ID fails closed.
	req3 := auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-objectid"})
	if _, ok := OwnerCtx(req3); ok {
		t.Error("OwnerCtx() should fail closed on a malformed ID")
	}
}

func TestIsLoggedIn(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if IsLoggedIn(req) {
		t.Error("IsLoggedIn() should be false without a user")
	}
	req = auth.WithTestUser(req, &auth.SessionUser{ID: primitive.NewObjectID().Hex()})
	if !IsLoggedIn(req) {
		t.Error("IsLoggedIn() should be true with a user")
	}
}
