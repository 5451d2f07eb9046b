package repository

import (
	"context"
	"fmt"
	"regexp"

	"stratusdrive/models"
	"stratusdrive/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository stores users in the users collection. Username and email
// lookups are case-insensitive, matching the registration uniqueness rules.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{collection: store.db.Collection("users")}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, caseInsensitive("username", username), username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, caseInsensitive("email", email), email)
}

func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return storageErr(fmt.Sprintf("insert user %s", user.ID), err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return storageErr(fmt.Sprintf("update user %s", user.ID), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", user.ID, services.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, key string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %q: %w", key, services.ErrNotFound)
	} else if err != nil {
		return nil, storageErr(fmt.Sprintf("find user %q", key), err)
	}
	return &user, nil
}

func caseInsensitive(field, value string) bson.M {
	return bson.M{field: bson.M{
		"$regex":   "^" + regexp.QuoteMeta(value) + "$",
		"$options": "i",
	}}
}
