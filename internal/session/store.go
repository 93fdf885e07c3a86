package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ChannelPrefix is the Redis key prefix for all channel session hashes.
	ChannelPrefix = "channel:"

	// ChannelTTL is the time-to-live for channel keys in Redis. Heartbeats
	// refresh it; a crashed server's channels expire on their own.
	ChannelTTL = 1 * time.Hour
)

// Channel is the durable metadata for one live transport connection. The
// authoritative fan-out state is the in-process presence registry; this
// record exists for support tooling and for seeing which server instance
// owns a connection.
type Channel struct {
	ID          string `redis:"id"`
	UserID      string `redis:"user_id"`
	Server      string `redis:"server"`       // which relay server instance
	ConnectedAt int64  `redis:"connected_at"` // unix timestamp
	LastActive  int64  `redis:"last_active"`  // unix timestamp
}

// Store manages channel session state in Redis.
type Store struct {
	client     *redis.Client
	serverName string // identifier for this relay server instance
}

// NewStore creates a new session store connected to Redis.
func NewStore(redisAddr string, serverName string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	// Verify connection.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}

	return &Store{client: client, serverName: serverName}, nil
}

// Create stores a new channel session bound to a user identity.
func (s *Store) Create(ctx context.Context, channelID, userID string) error {
	key := ChannelPrefix + channelID
	now := time.Now().Unix()

	channel := map[string]interface{}{
		"id":           channelID,
		"user_id":      userID,
		"server":       s.serverName,
		"connected_at": now,
		"last_active":  now,
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, channel)
	pipe.Expire(ctx, key, ChannelTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Get retrieves a channel session from Redis. Returns nil if not found.
func (s *Store) Get(ctx context.Context, channelID string) (*Channel, error) {
	key := ChannelPrefix + channelID
	var channel Channel
	err := s.client.HGetAll(ctx, key).Scan(&channel)
	if err != nil {
		return nil, err
	}
	if channel.ID == "" {
		return nil, nil // not found
	}
	return &channel, nil
}

// Touch updates the channel's last-active timestamp and refreshes the TTL.
func (s *Store) Touch(ctx context.Context, channelID string) error {
	key := ChannelPrefix + channelID
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "last_active", time.Now().Unix())
	pipe.Expire(ctx, key, ChannelTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes a channel session from Redis.
func (s *Store) Delete(ctx context.Context, channelID string) error {
	key := ChannelPrefix + channelID
	return s.client.Del(ctx, key).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for use by other packages.
func (s *Store) Client() *redis.Client {
	return s.client
}
