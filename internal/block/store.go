// Package block provides Redis-backed user block records. Blocks are stored
// as one set per user:
//
//	Key:     block:<user_id>
//	Members: user ids this user has blocked
//
// The relay consults blocks as a business rule before accepting a send: a
// blocked pair exchanges no messages in either direction.
package block

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// BlockPrefix is the Redis key prefix for block sets.
const BlockPrefix = "block:"

// Store manages block records in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a new block store using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Block records that blocker no longer wants contact with blocked.
func (s *Store) Block(ctx context.Context, blocker, blocked string) error {
	key := BlockPrefix + blocker
	if err := s.client.SAdd(ctx, key, blocked).Err(); err != nil {
		return fmt.Errorf("block: add: %w", err)
	}
	return nil
}

// Unblock removes a block record. Unknown pairs are a no-op.
func (s *Store) Unblock(ctx context.Context, blocker, blocked string) error {
	key := BlockPrefix + blocker
	if err := s.client.SRem(ctx, key, blocked).Err(); err != nil {
		return fmt.Errorf("block: remove: %w", err)
	}
	return nil
}

// IsBlocked reports whether either user has blocked the other. Redis errors
// are returned so the caller can decide the failure policy; the relay server
// fails open so a Redis outage does not silence all messaging.
func (s *Store) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	pipe := s.client.Pipeline()
	aBlockedB := pipe.SIsMember(ctx, BlockPrefix+userA, userB)
	bBlockedA := pipe.SIsMember(ctx, BlockPrefix+userB, userA)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("block: lookup: %w", err)
	}
	return aBlockedB.Val() || bBlockedA.Val(), nil
}
