package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File is a document stored inside a folder.
//
// Path is the materialized path including the filename; StorageLocation is
// the physical location of the bytes relative to the blob root. The two can
// differ in the final segment: the stored blob name carries a uniquifying
// suffix so re-uploads never collide on disk.
type File struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	NameCI          string             `bson:"name_ci"`
	ParentID        primitive.ObjectID `bson:"parent_id"` // files always live inside a folder
	Path            string             `bson:"path"`
	StorageLocation string             `bson:"storage_location"`
	MimeType        string             `bson:"mime_type"`
	Size            int64              `bson:"size"` // bytes
	OwnerID         primitive.ObjectID `bson:"owner_id"`
	IsShared        bool               `bson:"is_shared"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
