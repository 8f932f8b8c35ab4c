package services

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/database"
	"taskflow/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoActivityStore appends and reads the activity log in MongoDB
type MongoActivityStore struct {
	collection *mongo.Collection
}

// NewMongoActivityStore creates a new activity store
func NewMongoActivityStore(mongodb *database.MongoDB) *MongoActivityStore {
	return &MongoActivityStore{
		collection: mongodb.Collection(database.CollectionActivities),
	}
}

// Create appends an activity entry
func (s *MongoActivityStore) Create(ctx context.Context, activity *models.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	result, err := s.collection.InsertOne(ctx, activity)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	activity.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// ListByProjects returns a page of activity across projects, newest first
func (s *MongoActivityStore) ListByProjects(ctx context.Context, projectIDs []primitive.ObjectID, page models.Page) ([]models.Activity, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.collection.Find(ctx, bson.M{"project": bson.M{"$in": projectIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []models.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}
