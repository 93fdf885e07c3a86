package moderation

// MessageEvent is the payload the relay publishes to messages.persisted for
// every successfully stored message. It mirrors the persisted record; the
// moderator consumes it asynchronously and never blocks delivery.
type MessageEvent struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	Ts        int64  `json:"ts"` // unix milliseconds
}

// Flag is published to moderation.flag.<sender> when a message trips the
// content filter. The trust-and-safety pipeline decides what to do with it.
type Flag struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Term      string `json:"term"`
}
