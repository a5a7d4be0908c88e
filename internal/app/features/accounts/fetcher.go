package accounts

import (
	"context"

	userstore "github.com/teachdrive/teachdrive/internal/app/store/users"
	"github.com/teachdrive/teachdrive/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher implements auth.UserFetcher against the users collection, so the
// session middleware sees fresh account data on every request.
type Fetcher struct {
	users *userstore.Store
}

// NewFetcher creates a Fetcher.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: userstore.New(db)}
}

// FetchUser loads a user by ID. Returns nil for a malformed ID or a deleted
// account, which invalidates the session.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := f.users.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return &auth.SessionUser{
		ID:            u.ID.Hex(),
		Username:      u.Username,
		Email:         u.Email,
		FolderSegment: u.FolderSegment,
	}
}

var _ auth.UserFetcher = (*Fetcher)(nil)
