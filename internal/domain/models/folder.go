package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder is one node of an owner's folder tree.
//
// Path is the materialized path from the storage root to this folder,
// separator-joined (e.g. "alice@example.edu-alice/Root/Notes"). It is the
// anchor for all subtree queries: every descendant's path starts with this
// folder's path followed by the separator.
type Folder struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty"`
	Name     string              `bson:"name"`
	NameCI   string              `bson:"name_ci"`             // Case-insensitive for uniqueness/sorting
	ParentID *primitive.ObjectID `bson:"parent_id,omitempty"` // nil = the owner's root folder
	Path     string              `bson:"path"`
	OwnerID  primitive.ObjectID  `bson:"owner_id"`
	IsShared bool                `bson:"is_shared"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// IsRoot reports whether this is the owner's root folder. The root is
// created at registration, is always shared, and can never be renamed,
// moved, or deleted.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
