// Package message defines the chat message domain type shared by the relay,
// the message store, and the conversation read path, together with the error
// taxonomy surfaced to callers.
package message

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxMessageBytes = 4096 // 4KB max frame size
	MaxTextChars    = 2000 // max character count
)

// Message is one chat line between two users. Once persisted it is
// immutable; moderation-driven removal is handled outside this service.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PairKey returns the normalized conversation key for two user identities.
// The pair is unordered: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// ValidateText checks that a message body meets content requirements after
// leading/trailing whitespace is stripped. It returns the trimmed text.
func ValidateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 {
		return "", &ValidationError{Reason: "message text is empty"}
	}
	if len(trimmed) > MaxMessageBytes {
		return "", &ValidationError{Reason: fmt.Sprintf("message exceeds %d byte limit", MaxMessageBytes)}
	}
	if utf8.RuneCountInString(trimmed) > MaxTextChars {
		return "", &ValidationError{Reason: fmt.Sprintf("message exceeds %d character limit", MaxTextChars)}
	}
	if !utf8.ValidString(trimmed) {
		return "", &ValidationError{Reason: "message contains invalid UTF-8"}
	}
	return trimmed, nil
}
