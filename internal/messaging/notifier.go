package messaging

import (
	"encoding/json"
	"log"

	"github.com/amora/relay/internal/message"
	"github.com/amora/relay/internal/moderation"
)

// ModerationNotifier publishes persisted-message events for the moderation
// service. It satisfies the relay's Notifier interface; publish failures are
// logged and never surface to the send path.
type ModerationNotifier struct {
	client *NATSClient
}

// NewModerationNotifier creates a notifier over the given NATS client.
func NewModerationNotifier(client *NATSClient) *ModerationNotifier {
	return &ModerationNotifier{client: client}
}

// MessagePersisted publishes the stored message as a moderation event.
func (n *ModerationNotifier) MessagePersisted(msg message.Message) {
	event := moderation.MessageEvent{
		MessageID: msg.ID,
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		Text:      msg.Text,
		Ts:        msg.CreatedAt.UnixMilli(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[nats] marshal message event %s: %v", msg.ID, err)
		return
	}
	if err := n.client.PublishMessagePersisted(data); err != nil {
		log.Printf("[nats] publish message event %s: %v", msg.ID, err)
	}
}
