package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/amora/relay/internal/message"
)

func TestSnapshot_TakesTail(t *testing.T) {
	var msgs []message.Message
	for i := 0; i < 8; i++ {
		msgs = append(msgs, message.Message{
			Sender:    "a",
			Recipient: "b",
			Text:      fmt.Sprintf("msg-%d", i),
			CreatedAt: time.Unix(int64(i), 0),
		})
	}

	entries := Snapshot(msgs)
	if len(entries) != SnapshotSize {
		t.Fatalf("expected %d entries, got %d", SnapshotSize, len(entries))
	}
	// The snapshot is the most recent messages, oldest first.
	for i, e := range entries {
		expected := fmt.Sprintf("msg-%d", i+3)
		if e.Text != expected {
			t.Errorf("entry %d: expected %q, got %q", i, expected, e.Text)
		}
	}
}

func TestSnapshot_ShortConversation(t *testing.T) {
	msgs := []message.Message{
		{Sender: "a", Text: "hi", CreatedAt: time.Unix(1, 0)},
		{Sender: "b", Text: "hey", CreatedAt: time.Unix(2, 0)},
	}

	entries := Snapshot(msgs)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].From != "a" || entries[1].From != "b" {
		t.Errorf("unexpected senders: %+v", entries)
	}
}

func TestSnapshot_Empty(t *testing.T) {
	if entries := Snapshot(nil); len(entries) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(entries))
	}
}
