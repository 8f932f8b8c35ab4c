package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher pushes events to a user's connected clients
type Publisher interface {
	PublishToUser(ctx context.Context, userID string, msgType string, payload map[string]interface{}) error
}

// NoopPublisher drops every event. Used when Redis is not configured.
type NoopPublisher struct{}

// PublishToUser does nothing
func (NoopPublisher) PublishToUser(ctx context.Context, userID string, msgType string, payload map[string]interface{}) error {
	return nil
}

// RealtimeMessage is the envelope published on user channels
type RealtimeMessage struct {
	Type       string                 `json:"type"`
	UserID     string                 `json:"userId"`
	InstanceID string                 `json:"instanceId"` // Source instance ID
	Payload    map[string]interface{} `json:"payload"`
}

// RedisPublisher publishes events on Redis `user:<id>:events` channels so
// every API instance can forward them to its connected clients
type RedisPublisher struct {
	client     *redis.Client
	instanceID string
}

// NewRedisPublisher connects to Redis and returns a publisher
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis connection established")
	return NewRedisPublisherWithClient(client), nil
}

// NewRedisPublisherWithClient wraps an existing client
func NewRedisPublisherWithClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		client:     client,
		instanceID: uuid.New().String(),
	}
}

// UserChannel returns the pub/sub channel of a user
func UserChannel(userID string) string {
	return "user:" + userID + ":events"
}

// PublishToUser publishes a message to a user's channel
func (p *RedisPublisher) PublishToUser(ctx context.Context, userID string, msgType string, payload map[string]interface{}) error {
	message := &RealtimeMessage{
		Type:       msgType,
		UserID:     userID,
		InstanceID: p.instanceID,
		Payload:    payload,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, UserChannel(userID), data).Err()
}

// Ping checks if the Redis connection is alive
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
