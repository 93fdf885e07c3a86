// Package report provides PostgreSQL-backed storage for abuse reports.
// Each report captures who reported whom and a snapshot of the most recent
// messages exchanged (for moderator review).
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amora/relay/internal/message"
)

// validReasons is the set of allowed reason values, matching the CHECK
// constraint on the abuse_reports table.
var validReasons = map[string]bool{
	"harassment": true,
	"spam":       true,
	"explicit":   true,
	"other":      true,
}

// SnapshotSize is how many recent messages are attached to a report.
const SnapshotSize = 5

// Store manages abuse reports in PostgreSQL.
type Store struct {
	db *sql.DB
}

// Report represents a single abuse report to be persisted.
type Report struct {
	ReporterID string
	ReportedID string
	Reason     string
	Messages   []MessageEntry // last few messages of the conversation
}

// MessageEntry is one message in the conversation snapshot attached to a report.
type MessageEntry struct {
	From string `json:"from"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"`
}

// NewStore creates a new report store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Snapshot converts the tail of a conversation into report entries.
func Snapshot(msgs []message.Message) []MessageEntry {
	start := 0
	if len(msgs) > SnapshotSize {
		start = len(msgs) - SnapshotSize
	}
	entries := make([]MessageEntry, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		entries = append(entries, MessageEntry{
			From: m.Sender,
			Text: m.Text,
			Ts:   m.CreatedAt.UnixMilli(),
		})
	}
	return entries
}

// Create inserts an abuse report into PostgreSQL.
// Messages are marshalled to JSONB. The reason is validated against the
// allowed set before insertion.
func (s *Store) Create(ctx context.Context, report *Report) error {
	if !validReasons[report.Reason] {
		return &message.ValidationError{Reason: fmt.Sprintf("invalid report reason %q", report.Reason)}
	}

	var messagesJSON []byte
	if len(report.Messages) > 0 {
		var err error
		messagesJSON, err = json.Marshal(report.Messages)
		if err != nil {
			return fmt.Errorf("report: marshal messages: %w", err)
		}
	}

	const query = `
		INSERT INTO abuse_reports (reporter_id, reported_id, reason, messages)
		VALUES ($1, $2, $3, $4)`

	_, err := s.db.ExecContext(ctx, query,
		report.ReporterID,
		report.ReportedID,
		report.Reason,
		messagesJSON,
	)
	if err != nil {
		return fmt.Errorf("report: insert: %w", err)
	}
	return nil
}

// CountRecent returns the number of reports filed against a user within the
// given time window. The trust-and-safety pipeline uses it for escalation
// decisions.
func (s *Store) CountRecent(ctx context.Context, reportedID string, window time.Duration) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM abuse_reports
		WHERE reported_id = $1
		  AND created_at >= NOW() - $2::interval`

	var count int
	err := s.db.QueryRowContext(ctx, query, reportedID, window.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("report: count recent: %w", err)
	}
	return count, nil
}
