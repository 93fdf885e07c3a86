// Package match reads the mutual-like relationship table owned by the main
// Amora API. The messaging service only asks one question of it: may this
// viewer see that partner's conversation. Whether a revoked match should
// retroactively hide history is a policy decision made where rows are
// deleted, not here.
package match

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amora/relay/internal/message"
)

// Store answers relationship queries against PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a match store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// MayView reports whether viewer and partner have an established match. It
// satisfies the conversation service's Authorizer interface. A user always
// may view their own notes-to-self conversation.
func (s *Store) MayView(ctx context.Context, viewer, partner string) (bool, error) {
	if viewer == partner {
		return true, nil
	}

	userA, userB := message.PairKey(viewer, partner)

	const query = `SELECT EXISTS (SELECT 1 FROM matches WHERE user_a = $1 AND user_b = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userA, userB).Scan(&exists); err != nil {
		return false, fmt.Errorf("match: relationship lookup: %w", err)
	}
	return exists, nil
}

// Create records a match between two users. Used by tests and local tooling;
// in production rows are written by the Amora API when both users like each
// other.
func (s *Store) Create(ctx context.Context, userA, userB string) error {
	a, b := message.PairKey(userA, userB)

	const query = `
		INSERT INTO matches (user_a, user_b)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, a, b); err != nil {
		return fmt.Errorf("match: insert: %w", err)
	}
	return nil
}
