package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/database"
	"taskflow/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserStore mirrors identity-provider users in MongoDB
type MongoUserStore struct {
	collection *mongo.Collection
}

// NewMongoUserStore creates a new user store
func NewMongoUserStore(mongodb *database.MongoDB) *MongoUserStore {
	return &MongoUserStore{
		collection: mongodb.Collection(database.CollectionUsers),
	}
}

// Upsert creates or refreshes a user profile from verified token claims
func (s *MongoUserStore) Upsert(ctx context.Context, user *models.User) error {
	now := time.Now()
	set := bson.M{"lastSeenAt": now}
	if user.Name != "" {
		set["name"] = user.Name
	}
	if user.Email != "" {
		set["email"] = strings.ToLower(user.Email)
	}
	if user.AvatarURL != "" {
		set["avatarUrl"] = user.AvatarURL
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByID returns a user by ID
func (s *MongoUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail returns a user by email (case-insensitive)
func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetMany returns the users that exist among ids
func (s *MongoUserStore) GetMany(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}
