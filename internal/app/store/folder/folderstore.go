// Package folder provides storage for folder metadata.
//
// Every query is scoped by owner_id. Subtree operations select rows by an
// anchored, escaped prefix regex over the materialized path so that a folder
// named "ab" is never caught by operations on its sibling "a".
package folder

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

// ErrDuplicateName is returned when a folder with the same folded name
// already exists in the target parent.
var ErrDuplicateName = errors.New("a folder with this name already exists here")

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("folders")}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	Name     string
	ParentID *primitive.ObjectID // nil only for the owner's root folder
	Path     string
	OwnerID  primitive.ObjectID
	IsShared bool
}

// Create inserts a new folder. Returns ErrDuplicateName when the unique
// (owner_id, parent_id, name_ci) index rejects the insert.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	now := time.Now()
	f := models.Folder{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		NameCI:    text.Fold(input.Name),
		ParentID:  input.ParentID,
		Path:      input.Path,
		OwnerID:   input.OwnerID,
		IsShared:  input.IsShared,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &f, nil
}

// GetByID retrieves an owner's folder by ID. Returns mongo.ErrNoDocuments
// when the folder does not exist or belongs to a different owner.
func (s *Store) GetByID(ctx context.Context, ownerID, id primitive.ObjectID) (*models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByPath retrieves an owner's folder by its exact materialized path.
func (s *Store) GetByPath(ctx context.Context, ownerID primitive.ObjectID, path string) (*models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"owner_id": ownerID, "path": path}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetRoot retrieves the owner's root folder, the single folder with no parent.
func (s *Store) GetRoot(ctx context.Context, ownerID primitive.ObjectID) (*models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"owner_id": ownerID, "parent_id": nil}).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListByParent returns an owner's folders directly inside a parent, sorted
// by folded name.
func (s *Store) ListByParent(ctx context.Context, ownerID, parentID primitive.ObjectID) ([]models.Folder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID, "parent_id": parentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var folders []models.Folder
	if err := cur.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// ListBySubtree returns the folder at basePath and every folder beneath it,
// sorted by path so parents precede their children.
func (s *Store) ListBySubtree(ctx context.Context, ownerID primitive.ObjectID, basePath string) ([]models.Folder, error) {
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

	var folders []models.Folder
	if err := cur.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// NameExistsInParent checks whether a folder with the folded name exists in
// the parent. Pass excludeID to ignore a specific folder during renames.
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

// UpdateNameAndPath sets a folder's name, folded name, and path in one write.
// Returns ErrDuplicateName when the new name collides within the parent.
func (s *Store) UpdateNameAndPath(ctx context.Context, id primitive.ObjectID, name, path string) error {
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"path":       path,
		"updated_at": time.Now(),
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	return nil
}

// RebaseSubtreePaths rewrites the paths of every folder strictly below
// oldBase, replacing the oldBase prefix with newBase. The renamed folder
// itself is updated separately via UpdateNameAndPath. Returns the number of
// descendant rows rewritten.
//
// The rewrite runs as a single updateMany with an aggregation pipeline so no
// descendant path is ever read into the application. Lengths are measured in
// code points because folder names are arbitrary Unicode.
func (s *Store) RebaseSubtreePaths(ctx context.Context, ownerID primitive.ObjectID, oldBase, newBase string) (int64, error) {
	filter := bson.M{
		"owner_id": ownerID,
		"path":     bson.M{"$regex": treepath.DescendantPattern(oldBase)},
	}
	prefixLen := utf8.RuneCountInString(oldBase)
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"path": bson.M{"$concat": bson.A{
				newBase,
				bson.M{"$substrCP": bson.A{
					"$path",
					prefixLen,
					bson.M{"$subtract": bson.A{bson.M{"$strLenCP": "$path"}, prefixLen}},
				}},
			}},
			"updated_at": "$$NOW",
		}}},
	}

	res, err := s.c.UpdateMany(ctx, filter, pipeline)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetSharedBySubtree flips is_shared on the folder at basePath and every
// folder beneath it. When onlyShared is true, only rows currently marked
// shared are touched; clearing a flag that was never set would otherwise
// rewrite rows that an enclosing share still covers.
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

// SetShared flips is_shared on a single folder.
func (s *Store) SetShared(ctx context.Context, ownerID, id primitive.ObjectID, shared bool) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": bson.M{"is_shared": shared, "updated_at": time.Now()}})
	return err
}

// DeleteBySubtree removes the folder at basePath and every folder beneath it.
// Returns the number of rows removed.
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

// CountDescendants returns the number of folders strictly below basePath,
// excluding the folder at basePath itself.
func (s *Store) CountDescendants(ctx context.Context, ownerID primitive.ObjectID, basePath string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"owner_id": ownerID,
		"path": bson.M{
			"$regex": treepath.SubtreePattern(basePath),
			"$ne":    basePath,
		},
	})
}
