package block

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// newTestStore creates a Store connected to a local Redis instance and cleans
// up test keys on exit. Tests that call this helper require a running Redis
// on localhost:6379 and are skipped otherwise.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	cleanup := func() {
		iter := client.Scan(ctx, 0, BlockPrefix+"test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return NewStore(client)
}

func TestBlockIsSymmetricForMessaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Block(ctx, "test_alice", "test_bob"); err != nil {
		t.Fatalf("block: %v", err)
	}

	blocked, err := s.IsBlocked(ctx, "test_alice", "test_bob")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !blocked {
		t.Error("expected blocked when blocker is first argument")
	}

	// Direction of the query must not matter.
	blocked, err = s.IsBlocked(ctx, "test_bob", "test_alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !blocked {
		t.Error("expected blocked when blocker is second argument")
	}
}

func TestUnblock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Block(ctx, "test_alice", "test_bob"); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := s.Unblock(ctx, "test_alice", "test_bob"); err != nil {
		t.Fatalf("unblock: %v", err)
	}

	blocked, err := s.IsBlocked(ctx, "test_alice", "test_bob")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if blocked {
		t.Error("expected pair unblocked")
	}
}

func TestIsBlocked_UnknownPair(t *testing.T) {
	s := newTestStore(t)

	blocked, err := s.IsBlocked(context.Background(), "test_x", "test_y")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if blocked {
		t.Error("expected unknown pair not blocked")
	}
}
