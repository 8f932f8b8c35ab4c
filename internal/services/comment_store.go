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

// MongoCommentStore handles task comments in MongoDB
type MongoCommentStore struct {
	collection *mongo.Collection
}

// NewMongoCommentStore creates a new comment store
func NewMongoCommentStore(mongodb *database.MongoDB) *MongoCommentStore {
	return &MongoCommentStore{
		collection: mongodb.Collection(database.CollectionComments),
	}
}

// Create inserts a new comment
func (s *MongoCommentStore) Create(ctx context.Context, comment *models.Comment) error {
	comment.CreatedAt = time.Now()

	result, err := s.collection.InsertOne(ctx, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID returns a comment by ID
func (s *MongoCommentStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// ListByTask returns a task's comments, oldest first
func (s *MongoCommentStore) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"task": taskID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer cursor.Close(ctx)

	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment by ID
func (s *MongoCommentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteByTasks removes every comment on the given tasks
func (s *MongoCommentStore) DeleteByTasks(ctx context.Context, taskIDs []primitive.ObjectID) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	result, err := s.collection.DeleteMany(ctx, bson.M{"task": bson.M{"$in": taskIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return result.DeletedCount, nil
}
