// Package protocol defines the WebSocket message types and structures used for
// communication between the client and server. All messages are serialized as
// JSON and follow a consistent envelope format with a type discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeMessage = "message"
	TypeHistory = "history"
	TypeTyping  = "typing"
	TypeReport  = "report"
	TypePing    = "ping"
)

// Server -> Client message types.
const (
	TypeReady       = "ready"
	TypeHistoryPage = "history_page"
	TypeRateLimited = "rate_limited"
	TypeError       = "error"
	TypePong        = "pong"
	// TypeMessage and TypeTyping are shared: the server relays them to the
	// other participant with sender metadata attached.
)

// ---------------------------------------------------------------------------
// Envelope — used for initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw JSON payload for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It captures the
// full raw bytes and extracts only the "type" field so that the rest of the
// payload can be decoded later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	// Capture the full raw message for deferred parsing.
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	// Extract only the type field.
	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server message structs
// ---------------------------------------------------------------------------

// SendMsg is a direct message sent by the client to another user.
type SendMsg struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// HistoryMsg asks for the recent conversation history with a partner. A zero
// limit means the server default.
type HistoryMsg struct {
	Type    string `json:"type"`
	Partner string `json:"partner"`
	Limit   int    `json:"limit,omitempty"`
}

// TypingMsg indicates whether the client is currently typing to a partner.
type TypingMsg struct {
	Type     string `json:"type"`
	To       string `json:"to"`
	IsTyping bool   `json:"is_typing"`
}

// ReportMsg is sent by the client to report another user for abuse.
type ReportMsg struct {
	Type     string `json:"type"`
	Reported string `json:"reported"`
	Reason   string `json:"reason"`
}

// PingMsg is a client-initiated keepalive ping.
type PingMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Server -> Client message structs
// ---------------------------------------------------------------------------

// ReadyMsg is sent by the server once the connection is authenticated and
// registered for delivery.
type ReadyMsg struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

// DeliveryMsg carries one chat message to a client. Both participants of the
// conversation receive it on every live channel.
type DeliveryMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Ts   int64  `json:"ts"` // unix milliseconds, server-assigned
}

// HistoryPageMsg is the response to a history request: the most recent
// messages of the conversation, oldest first.
type HistoryPageMsg struct {
	Type     string        `json:"type"`
	Partner  string        `json:"partner"`
	Messages []DeliveryMsg `json:"messages"`
}

// ServerTypingMsg relays a partner's typing indicator to the client.
type ServerTypingMsg struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	IsTyping bool   `json:"is_typing"`
}

// RateLimitedMsg is sent by the server when the client has exceeded its
// message budget.
type RateLimitedMsg struct {
	Type       string `json:"type"`
	RetryAfter int    `json:"retry_after"`
}

// ErrorMsg is sent by the server to communicate an error condition.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongMsg is the server's response to a client ping.
type PongMsg struct {
	Type string `json:"type"`
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the message type string, the decoded struct, and any error
// encountered during parsing. An error is returned for unknown or
// server-only message types.
func ParseClientMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeMessage:
		var m SendMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeHistory:
		var m HistoryMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeTyping:
		var m TypingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypeReport:
		var m ReportMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	case TypePing:
		var m PingMsg
		err = json.Unmarshal(env.Raw, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown client message type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewServerMessage creates a JSON-encoded byte slice for a server message.
// The msgType is injected into the payload under the "type" key. The payload
// should be one of the server message structs; this function marshals it to
// JSON, injects the type field, and returns the final bytes.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	// Marshal the payload struct to a generic map so we can ensure the "type"
	// field is present and correct.
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("protocol: failed to unmarshal payload into map: %w", err)
	}

	m["type"] = msgType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return out, nil
}
