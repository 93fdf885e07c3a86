// Package conversation implements the read path for chat history. A
// conversation is not a stored entity: it is the bounded, chronological view
// of all messages between two users, hydrated once when a client opens the
// conversation. Access is gated by an injected relationship predicate.
package conversation

import (
	"context"
	"fmt"

	"github.com/amora/relay/internal/message"
	"github.com/amora/relay/internal/metrics"
)

// DefaultLimit is the number of messages returned when the caller does not
// ask for a specific bound.
const DefaultLimit = 20

// HistoryStore is the read side of the message store: messages between the
// unordered pair, newest first, at most limit entries.
type HistoryStore interface {
	QueryByPair(ctx context.Context, userA, userB string, limit int) ([]message.Message, error)
}

// Authorizer decides whether viewer may read the conversation with partner.
// The relationship policy (matched, unmatched, revoked) lives outside this
// service.
type Authorizer interface {
	MayView(ctx context.Context, viewer, partner string) (bool, error)
}

// Service serves bounded conversation history.
type Service struct {
	store HistoryStore
	authz Authorizer
}

// NewService creates a conversation service using the given store and
// authorization predicate.
func NewService(store HistoryStore, authz Authorizer) *Service {
	return &Service{store: store, authz: authz}
}

// Fetch returns the most recent limit messages between viewer and partner in
// oldest-first order. A non-positive limit falls back to DefaultLimit. If the
// authorization predicate denies the viewer, message.ErrNotAuthorized is
// returned and no content is read.
func (s *Service) Fetch(ctx context.Context, viewer, partner string, limit int) ([]message.Message, error) {
	ok, err := s.authz.MayView(ctx, viewer, partner)
	if err != nil {
		return nil, fmt.Errorf("conversation: authorization check: %w", err)
	}
	if !ok {
		metrics.HistoryFetches.WithLabelValues("unauthorized").Inc()
		return nil, message.ErrNotAuthorized
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	msgs, err := s.store.QueryByPair(ctx, viewer, partner, limit)
	if err != nil {
		return nil, &message.StoreError{Err: err}
	}

	// The store returns newest-first; the contract to callers is oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	metrics.HistoryFetches.WithLabelValues("ok").Inc()
	return msgs, nil
}
