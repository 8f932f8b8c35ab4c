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

// MongoProjectStore handles CRUD for projects in MongoDB
type MongoProjectStore struct {
	collection *mongo.Collection
}

// NewMongoProjectStore creates a new project store
func NewMongoProjectStore(mongodb *database.MongoDB) *MongoProjectStore {
	return &MongoProjectStore{
		collection: mongodb.Collection(database.CollectionProjects),
	}
}

// Create inserts a new project
func (s *MongoProjectStore) Create(ctx context.Context, project *models.Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := s.collection.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	project.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID returns a project by ID
func (s *MongoProjectStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// GetMany returns the projects that exist among ids
func (s *MongoProjectStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// ListByMember returns projects whose roster contains userID, newest first
func (s *MongoProjectStore) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	return s.find(ctx, bson.M{"members.user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *MongoProjectStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Project, error) {
	if opts == nil {
		opts = options.Find()
	}
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// Update applies changes and returns the updated project
func (s *MongoProjectStore) Update(ctx context.Context, id primitive.ObjectID, changes ProjectChanges) (*models.Project, error) {
	set := bson.M{"updatedAt": time.Now()}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Color != nil {
		set["color"] = *changes.Color
	}
	if changes.DueDate != nil {
		set["dueDate"] = *changes.DueDate
	}
	if changes.KanbanColumns != nil {
		set["kanbanColumns"] = *changes.KanbanColumns
	}
	if changes.AllowWorkerEstimation != nil {
		set["allowWorkerEstimation"] = *changes.AllowWorkerEstimation
	}

	var project models.Project
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &project, nil
}

// AddMember pushes a roster entry unless the user is already present
func (s *MongoProjectStore) AddMember(ctx context.Context, id primitive.ObjectID, member models.ProjectMember) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "members.user": bson.M{"$ne": member.UserID}},
		bson.M{
			"$push": bson.M{"members": member},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the project is gone or the user is on the roster
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if count == 0 {
		return database.ErrNotFound
	}
	return ErrAlreadyMember
}

// Delete removes a project by ID
func (s *MongoProjectStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// ExistingIDs reports which of ids still exist
func (s *MongoProjectStore) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	existing := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	cursor, err := s.collection.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check projects: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode project id: %w", err)
		}
		existing[doc.ID] = true
	}
	return existing, cursor.Err()
}
