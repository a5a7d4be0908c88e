// Package file provides storage for file metadata.
//
// File rows mirror blobs on disk: Path is the logical location inside the
// folder tree, StorageLocation the physical one. Subtree operations use the
// same anchored prefix regex as the folder store so structural changes to a
// folder reach exactly the files beneath it.
package file

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/teachdrive/teachdrive/internal/app/system/treepath"
	"github.com/teachdrive/teachdrive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when a file with the same folded name already
// exists in the target folder.
var ErrDuplicateName = errors.New("a file with this name already exists here")

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("files")}
}

// CreateInput contains the input for creating a file record.
type CreateInput struct {
	Name            string
	ParentID        primitive.ObjectID
	Path            string
	StorageLocation string
	MimeType        string
	Size            int64
	OwnerID         primitive.ObjectID
	IsShared        bool
}

// Create inserts a new file record. Returns ErrDuplicateName when the unique
// (owner_id, parent_id, name_ci) index rejects the insert.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	now := time.Now()
	f := models.File{
		ID:              primitive.NewObjectID(),
		Name:            input.Name,
		NameCI:          text.Fold(input.Name),
		ParentID:        input.ParentID,
		Path:            input.Path,
		StorageLocation: input.StorageLocation,
		MimeType:        input.MimeType,
		Size:            input.Size,
		OwnerID:         input.OwnerID,
		IsShared:        input.IsShared,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves an owner's file by ID.
func (s *Store) GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*models.File, error) {
	var f models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListByParent returns an owner's files directly inside a folder, sorted by
// folded name.
func (s *Store) ListByParent(ctx context.Context, ownerID, parentID primitive.ObjectID) ([]models.File, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID, "parent_id": parentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var files []models.File
	if err := cur.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// ListBySubtree returns every file whose path lies at or below basePath,
// sorted by path.
func (s *Store) ListBySubtree(ctx context.Context, ownerID primitive.ObjectID, basePath string) ([]models.File, error) {
	filter := bson.M{
		"owner_id": ownerID,
		"path":     bson.M{"$regex": treepath.SubtreePattern(basePath)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "path", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var files []models.File
	if err := cur.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// NameExistsInParent checks whether a file with the folded name exists in
// the folder. Pass excludeID to ignore a specific file during renames.
func (s *Store) NameExistsInParent(ctx context.Context, ownerID, parentID primitive.ObjectID, name string, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"owner_id":  ownerID,
		"parent_id": parentID,
		"name_ci":   text.Fold(name),
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rename sets a file's name, folded name, and both location fields in one
// write. Returns ErrDuplicateName on a sibling collision.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name, path, storageLocation string) error {
	set := bson.M{
		"name":             name,
		"name_ci":          text.Fold(name),
		"path":             path,
		"storage_location": storageLocation,
		"updated_at":       time.Now(),
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// RebaseSubtreePaths rewrites path and storage_location for every file below
// oldBase when an enclosing folder moves. Returns the number of rows
// rewritten.
func (s *Store) RebaseSubtreePaths(ctx context.Context, ownerID primitive.ObjectID, oldBase, newBase string) (int64, error) {
	filter := bson.M{
		"owner_id": ownerID,
		"path":     bson.M{"$regex": treepath.DescendantPattern(oldBase)},
	}
	prefixLen := utf8.RuneCountInString(oldBase)
	rebase := func(field string) bson.M {
		return bson.M{"$concat": bson.A{
			newBase,
			bson.M{"$substrCP": bson.A{
				field,
				prefixLen,
				bson.M{"$subtract": bson.A{bson.M{"$strLenCP": field}, prefixLen}},
			}},
		}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"path":             rebase("$path"),
			"storage_location": rebase("$storage_location"),
			"updated_at":       "$$NOW",
		}}},
	}

	res, err := s.c.UpdateMany(ctx, filter, pipeline)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetSharedBySubtree flips is_shared on every file at or below basePath.
// When onlyShared is true, only rows currently marked shared are touched.
func (s *Store) SetSharedBySubtree(ctx context.Context, ownerID primitive.ObjectID, basePath string, shared, onlyShared bool) (int64, error) {
	filter := bson.M{
		"owner_id": ownerID,
		"path":     bson.M{"$regex": treepath.SubtreePattern(basePath)},
	}
	if onlyShared {
		filter["is_shared"] = true
	}

	res, err := s.c.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"is_shared":  shared,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetShared flips is_shared on a single file.
func (s *Store) SetShared(ctx context.Context, ownerID, id primitive.ObjectID, shared bool) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": bson.M{"is_shared": shared, "updated_at": time.Now()}})
	return err
}

// Delete removes a single file record.
func (s *Store) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	return err
}

// DeleteBySubtree removes every file at or below basePath. Returns the
// number of rows removed.
func (s *Store) DeleteBySubtree(ctx context.Context, ownerID primitive.ObjectID, basePath string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"owner_id": ownerID,
		"path":     bson.M{"$regex": treepath.SubtreePattern(basePath)},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountBySubtree returns the number of files at or below basePath.
func (s *Store) CountBySubtree(ctx context.Context, ownerID primitive.ObjectID, basePath string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"owner_id": ownerID,
		"path":     bson.M{"$regex": treepath.SubtreePattern(basePath)},
	})
}
