// Package userstore provides storage for accounts.
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/teachdrive/teachdrive/internal/app/system/normalize"
	"github.com/teachdrive/teachdrive/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateEmail is returned when attempting to create a user with an
// email that already exists.
var ErrDuplicateEmail = errors.New("a user with this email already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case/diacritic-insensitive email. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	folded := text.Fold(normalize.Email(email))
	if err := s.c.FindOne(ctx, bson.M{"email_ci": folded}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetBySegment looks up a user by folder segment, the public identifier of
// an owner's shared tree. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetBySegment(ctx context.Context, segment string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"folder_segment": segment}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateInput contains the input for creating a user.
type CreateInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// Create inserts a new user after normalizing fields. The FolderSegment,
// the owner-specific directory segment the user's tree lives under, is
// derived here so it is fixed for the lifetime of the account.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	email := normalize.Email(input.Email)
	now := time.Now()
	u := models.User{
		ID:            primitive.NewObjectID(),
		Username:      normalize.Name(input.Username),
		Email:         email,
		EmailCI:       text.Fold(email),
		PasswordHash:  input.PasswordHash,
		FolderSegment: email + "-" + normalize.Name(input.Username),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes a user by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
