// Package store provides PostgreSQL-backed persistence for chat messages.
// Messages live in a dedicated append-only table addressed by a normalized
// conversation pair, so the read path is a bounded index scan rather than a
// growing embedded array on the user record.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amora/relay/internal/message"
)

// Store manages the messages table.
type Store struct {
	db *sql.DB
}

// NewStore creates a message store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts a message. The caller assigns the id and timestamp; the
// normalized pair columns are derived here so that both directions of a
// conversation land on the same index.
func (s *Store) Append(ctx context.Context, msg message.Message) (message.Message, error) {
	pairA, pairB := message.PairKey(msg.Sender, msg.Recipient)

	const query = `
		INSERT INTO messages (id, pair_a, pair_b, sender, recipient, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		pairA,
		pairB,
		msg.Sender,
		msg.Recipient,
		msg.Text,
		msg.CreatedAt,
	)
	if err != nil {
		return message.Message{}, fmt.Errorf("store: insert message: %w", err)
	}
	return msg, nil
}

// QueryByPair returns up to limit messages exchanged between the two users,
// newest first. Callers wanting chronological order reverse the result.
func (s *Store) QueryByPair(ctx context.Context, userA, userB string, limit int) ([]message.Message, error) {
	pairA, pairB := message.PairKey(userA, userB)

	const query = `
		SELECT id, sender, recipient, body, created_at
		FROM messages
		WHERE pair_a = $1 AND pair_b = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, pairA, pairB, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query pair: %w", err)
	}
	defer rows.Close()

	var msgs []message.Message
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate messages: %w", err)
	}
	return msgs, nil
}
