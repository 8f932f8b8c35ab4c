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

// MongoTaskStore handles CRUD for tasks in MongoDB
type MongoTaskStore struct {
	collection *mongo.Collection
}

// NewMongoTaskStore creates a new task store
func NewMongoTaskStore(mongodb *database.MongoDB) *MongoTaskStore {
	return &MongoTaskStore{
		collection: mongodb.Collection(database.CollectionTasks),
	}
}

// Create inserts a new task
func (s *MongoTaskStore) Create(ctx context.Context, task *models.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Assignees == nil {
		task.Assignees = []string{}
	}
	if task.Labels == nil {
		task.Labels = []primitive.ObjectID{}
	}
	if task.Subtasks == nil {
		task.Subtasks = []models.Subtask{}
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}

	result, err := s.collection.InsertOne(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID returns a task by ID
func (s *MongoTaskStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// GetMany returns the tasks that exist among ids
func (s *MongoTaskStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// ListByProject returns a project's tasks matching filter, newest first
func (s *MongoTaskStore) ListByProject(ctx context.Context, projectID primitive.ObjectID, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{"project": projectID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Assignee != "" {
		query["assignees"] = filter.Assignee
	}
	return s.find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// ListByAssignee returns the tasks assigned to userID, soonest due first
func (s *MongoTaskStore) ListByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	return s.find(ctx, bson.M{"assignees": userID},
		options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: -1}}))
}

func (s *MongoTaskStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Task, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// Update applies changes and returns the updated task
func (s *MongoTaskStore) Update(ctx context.Context, id primitive.ObjectID, changes models.TaskChanges) (*models.Task, error) {
	set := bson.M{"updatedAt": time.Now()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Status != nil {
		set["status"] = *changes.Status
	}
	if changes.Priority != nil {
		set["priority"] = *changes.Priority
	}
	if changes.Assignees != nil {
		set["assignees"] = *changes.Assignees
	}
	if changes.Subtasks != nil {
		set["subtasks"] = *changes.Subtasks
	}
	if changes.DueDate != nil {
		set["dueDate"] = *changes.DueDate
	}
	if changes.EstimatedTime != nil {
		set["estimatedTime"] = *changes.EstimatedTime
	}
	if changes.AssignmentDate != nil {
		set["assignmentDate"] = *changes.AssignmentDate
	}
	if changes.CompletionDate != nil {
		set["completionDate"] = *changes.CompletionDate
	}

	update := bson.M{"$set": set}
	if changes.ClearCompletionDate {
		update["$unset"] = bson.M{"completionDate": ""}
	}

	var task models.Task
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &task, nil
}

// AddAttachment appends attachment metadata to a task
func (s *MongoTaskStore) AddAttachment(ctx context.Context, id primitive.ObjectID, attachment models.Attachment) error {
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"attachments": attachment},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to add attachment: %w", err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// RemoveAttachment pulls one attachment from a task
func (s *MongoTaskStore) RemoveAttachment(ctx context.Context, id, attachmentID primitive.ObjectID) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "attachments._id": attachmentID},
		bson.M{
			"$pull": bson.M{"attachments": bson.M{"_id": attachmentID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove attachment: %w", err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Delete removes a task by ID
func (s *MongoTaskStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteByProject removes all tasks of a project
func (s *MongoTaskStore) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"project": projectID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode task id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}

	if _, err := s.collection.DeleteMany(ctx, bson.M{"project": projectID}); err != nil {
		return nil, fmt.Errorf("failed to delete project tasks: %w", err)
	}
	return ids, nil
}

// ProjectIDs returns the distinct projects referenced by tasks
func (s *MongoTaskStore) ProjectIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := s.collection.Distinct(ctx, "project", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list task projects: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
