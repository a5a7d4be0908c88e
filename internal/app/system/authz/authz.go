// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/teachdrive/teachdrive/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner identifies the account whose tree a request operates on.
type Owner struct {
	ID            primitive.ObjectID
	Username      string
	FolderSegment string
}

// OwnerCtx returns the owner for the current request and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// ok=false; callers can trust that ok=true means a valid, authenticated
// account with a valid ObjectID.
func OwnerCtx(r *http.Request) (Owner, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return Owner{}, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return Owner{}, false
	}
	return Owner{
		ID:            userID,
		Username:      user.Username,
		FolderSegment: user.FolderSegment,
	}, true
}

// IsLoggedIn reports whether there is a user in the request context.
func IsLoggedIn(r *http.Request) bool {
	_, ok := auth.CurrentUser(r)
	return ok
}
