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

// MongoNotificationStore handles notifications in MongoDB
type MongoNotificationStore struct {
	collection *mongo.Collection
}

// NewMongoNotificationStore creates a new notification store
func NewMongoNotificationStore(mongodb *database.MongoDB) *MongoNotificationStore {
	return &MongoNotificationStore{
		collection: mongodb.Collection(database.CollectionNotifications),
	}
}

// Create inserts a new notification
func (s *MongoNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	now := time.Now()
	notification.CreatedAt = now
	notification.UpdatedAt = now

	result, err := s.collection.InsertOne(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	notification.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID returns a notification by ID
func (s *MongoNotificationStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &notification, nil
}

// ListByRecipient returns a page of the recipient's notifications, newest first
func (s *MongoNotificationStore) ListByRecipient(ctx context.Context, recipientID string, page models.Page) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.collection.Find(ctx, bson.M{"recipient": recipientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread counts the recipient's unread notifications
func (s *MongoNotificationStore) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"recipient": recipientID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. Already-read notifications still match.
func (s *MongoNotificationStore) MarkRead(ctx context.Context, recipientID string, id primitive.ObjectID) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipientID},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient and returns how many changed
func (s *MongoNotificationStore) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	result, err := s.collection.UpdateMany(ctx,
		bson.M{"recipient": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

// Resolve transitions a notification out of pending with a compare-and-set on its status
func (s *MongoNotificationStore) Resolve(ctx context.Context, id primitive.ObjectID, typ models.NotificationType, status models.NotificationStatus, at time.Time) (bool, error) {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.NotificationStatusPending},
		bson.M{"$set": bson.M{
			"type":        typ,
			"status":      status,
			"read":        true,
			"respondedAt": at,
			"updatedAt":   at,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve notification: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// HasPending reports whether a pending notification matches filter
func (s *MongoNotificationStore) HasPending(ctx context.Context, filter PendingFilter) (bool, error) {
	query := bson.M{"status": models.NotificationStatusPending}
	if filter.Type != "" {
		query["type"] = bson.M{"$in": filter.Type.WithAliases()}
	}
	if !filter.ProjectID.IsZero() {
		query["project"] = filter.ProjectID
	}
	if filter.SenderID != "" {
		query["sender"] = filter.SenderID
	}
	if filter.RecipientID != "" {
		query["recipient"] = filter.RecipientID
	}

	count, err := s.collection.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check pending notifications: %w", err)
	}
	return count > 0, nil
}

// Delete removes one of the recipient's notifications
func (s *MongoNotificationStore) Delete(ctx context.Context, recipientID string, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipientID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}
