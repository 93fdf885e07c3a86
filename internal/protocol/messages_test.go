package protocol

import (
	"encoding/json"
	"testing"
)

// ---------------------------------------------------------------------------
// Test: Parsing a valid direct message
// ---------------------------------------------------------------------------

func TestParseClientMessage_SendMsg(t *testing.T) {
	input := []byte(`{"type":"message","to":"user-42","text":"Hello!"}`)

	msgType, msg, err := ParseClientMessage(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeMessage {
		t.Fatalf("expected type %q, got %q", TypeMessage, msgType)
	}

	sm, ok := msg.(SendMsg)
	if !ok {
		t.Fatalf("expected SendMsg, got %T", msg)
	}
	if sm.To != "user-42" {
		t.Errorf("expected to %q, got %q", "user-42", sm.To)
	}
	if sm.Text != "Hello!" {
		t.Errorf("expected text %q, got %q", "Hello!", sm.Text)
	}
}

// ---------------------------------------------------------------------------
// Test: Parsing a history request
// ---------------------------------------------------------------------------

func TestParseClientMessage_History(t *testing.T) {
	input := []byte(`{"type":"history","partner":"user-7","limit":50}`)

	msgType, msg, err := ParseClientMessage(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeHistory {
		t.Fatalf("expected type %q, got %q", TypeHistory, msgType)
	}

	hm, ok := msg.(HistoryMsg)
	if !ok {
		t.Fatalf("expected HistoryMsg, got %T", msg)
	}
	if hm.Partner != "user-7" {
		t.Errorf("expected partner %q, got %q", "user-7", hm.Partner)
	}
	if hm.Limit != 50 {
		t.Errorf("expected limit 50, got %d", hm.Limit)
	}
}

// ---------------------------------------------------------------------------
// Test: Parsing a typing indicator
// ---------------------------------------------------------------------------

func TestParseClientMessage_Typing(t *testing.T) {
	input := []byte(`{"type":"typing","to":"user-7","is_typing":true}`)

	msgType, msg, err := ParseClientMessage(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeTyping {
		t.Fatalf("expected type %q, got %q", TypeTyping, msgType)
	}

	tm, ok := msg.(TypingMsg)
	if !ok {
		t.Fatalf("expected TypingMsg, got %T", msg)
	}
	if !tm.IsTyping {
		t.Error("expected is_typing true")
	}
}

// ---------------------------------------------------------------------------
// Test: Unknown and malformed messages are rejected
// ---------------------------------------------------------------------------

func TestParseClientMessage_UnknownType(t *testing.T) {
	_, _, err := ParseClientMessage([]byte(`{"type":"upload_photo"}`))
	if err == nil {
		t.Fatal("expected error for unknown message type")
	}
}

func TestParseClientMessage_MissingType(t *testing.T) {
	_, _, err := ParseClientMessage([]byte(`{"to":"user-7","text":"hi"}`))
	if err == nil {
		t.Fatal("expected error for missing type field")
	}
}

func TestParseClientMessage_InvalidJSON(t *testing.T) {
	_, _, err := ParseClientMessage([]byte(`{"type":"message"`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// ---------------------------------------------------------------------------
// Test: Creating a delivery server message
// ---------------------------------------------------------------------------

func TestNewServerMessage_Delivery(t *testing.T) {
	payload := DeliveryMsg{
		ID:   "msg-1",
		From: "user-1",
		To:   "user-2",
		Text: "hey",
		Ts:   1700000000000,
	}

	data, err := NewServerMessage(TypeMessage, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Decode back and verify structure.
	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	if result["type"] != TypeMessage {
		t.Errorf("expected type %q, got %v", TypeMessage, result["type"])
	}
	if result["from"] != "user-1" {
		t.Errorf("expected from %q, got %v", "user-1", result["from"])
	}
	if result["to"] != "user-2" {
		t.Errorf("expected to %q, got %v", "user-2", result["to"])
	}
	if result["text"] != "hey" {
		t.Errorf("expected text %q, got %v", "hey", result["text"])
	}
}

func TestNewServerMessage_OverridesTypeField(t *testing.T) {
	data, err := NewServerMessage(TypeError, ErrorMsg{
		Type:    "something_else",
		Code:    "not_authorized",
		Message: "no relationship with this user",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}
	if result["type"] != TypeError {
		t.Errorf("expected type %q, got %v", TypeError, result["type"])
	}
}
