package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that owns a folder tree. Every folder and file row is
// scoped to exactly one owner; cross-owner access never happens.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	EmailCI      string             `bson:"email_ci"` // Case/diacritic-insensitive for unique lookups
	PasswordHash string             `bson:"password_hash"`

	// FolderSegment is the owner-specific path segment under the blob root
	// ("<email>-<username>"). The owner's entire tree lives beneath it.
	FolderSegment string `bson:"folder_segment"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
