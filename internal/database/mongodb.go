package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// ErrNotFound is returned by stores when a document does not exist
var ErrNotFound = errors.New("document not found")

// DefaultDatabase is used when the URI names no database
const DefaultDatabase = "taskflow"

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// Collection names
const (
	CollectionUsers         = "users"
	CollectionProjects      = "projects"
	CollectionTasks         = "tasks"
	CollectionComments      = "comments"
	CollectionNotifications = "notifications"
	CollectionActivities    = "activities"
)

// collectionIndexes lists the indexes Initialize ensures, in creation order
var collectionIndexes = []struct {
	collection string
	indexes    []mongo.IndexModel
}{
	{CollectionUsers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetSparse(true)},
	}},
	// Roster lookups drive every permission check
	{CollectionProjects, []mongo.IndexModel{
		{Keys: bson.D{{Key: "members.user", Value: 1}}},
		{Keys: bson.D{{Key: "owner", Value: 1}}},
	}},
	{CollectionTasks, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assignees", Value: 1}, {Key: "dueDate", Value: 1}}},
	}},
	{CollectionComments, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task", Value: 1}, {Key: "createdAt", Value: 1}}},
	}},
	{CollectionNotifications, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}}, // inbox
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}}},        // unread count, mark all
		{Keys: bson.D{{Key: "project", Value: 1}, {Key: "type", Value: 1}, {Key: "status", Value: 1}}}, // pending guards
	}},
	{CollectionActivities, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project", Value: 1}, {Key: "createdAt", Value: -1}}},
	}},
}

// NewMongoDB connects with a pooled client and selects the URI's database
func NewMongoDB(uri string) (*MongoDB, error) {
	dbName, err := DatabaseName(uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)
	return &MongoDB{client: client, database: client.Database(dbName)}, nil
}

// DatabaseName returns the database named in a MongoDB URI, or
// DefaultDatabase when the URI has no path.
func DatabaseName(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if cs.Database == "" {
		return DefaultDatabase, nil
	}
	return cs.Database, nil
}

// Initialize ensures the indexes of every collection
func (m *MongoDB) Initialize(ctx context.Context) error {
	log.Println("📦 Initializing MongoDB indexes...")

	for _, ci := range collectionIndexes {
		if _, err := m.database.Collection(ci.collection).Indexes().CreateMany(ctx, ci.indexes); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", ci.collection, err)
		}
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}
