// Package relay implements the send-message pipeline: validate the text,
// persist the message, then fan it out to every live channel of both
// participants. Persistence always precedes delivery so a message can never
// appear on a client without being recoverable from history on reconnect.
package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amora/relay/internal/message"
	"github.com/amora/relay/internal/metrics"
)

// MessageStore is the persistence collaborator. Each append is a single
// independent write with no cross-message transaction.
type MessageStore interface {
	Append(ctx context.Context, msg message.Message) (message.Message, error)
}

// Presence exposes the channel lookup used for fan-out targeting.
type Presence interface {
	ChannelsFor(userID string) []string
}

// Deliverer is the transport collaborator: it pushes an opaque payload to a
// single channel. Delivery failures are terminal for that channel only — the
// client recovers via a history fetch on reconnect.
type Deliverer interface {
	Deliver(channelID string, payload []byte) error
}

// Notifier receives a fire-and-forget event after each successful persist.
// Used to feed the out-of-process moderation pipeline; a nil Notifier is
// valid and skips publication.
type Notifier interface {
	MessagePersisted(msg message.Message)
}

// Encoder turns a persisted message into the wire payload delivered to each
// channel.
type Encoder func(msg message.Message) ([]byte, error)

// Relay coordinates validate → persist → fan-out for chat messages.
type Relay struct {
	store    MessageStore
	presence Presence
	deliver  Deliverer
	encode   Encoder
	notifier Notifier
	clock    func() time.Time

	mu     sync.Mutex
	lastTs map[string]time.Time // sender -> last issued timestamp
}

// New creates a Relay. notifier may be nil.
func New(store MessageStore, presence Presence, deliver Deliverer, encode Encoder, notifier Notifier) *Relay {
	return &Relay{
		store:    store,
		presence: presence,
		deliver:  deliver,
		encode:   encode,
		notifier: notifier,
		clock:    time.Now,
		lastTs:   make(map[string]time.Time),
	}
}

// Send validates, persists, and delivers one message. On validation or store
// failure no delivery happens at all; the error is reported synchronously to
// the caller. An offline recipient is not an error — delivery is simply
// skipped and the message surfaces on their next history fetch.
func (r *Relay) Send(ctx context.Context, sender, recipient, text string) (message.Message, error) {
	if sender == "" || recipient == "" {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		return message.Message{}, &message.ValidationError{Reason: "sender and recipient are required"}
	}

	trimmed, err := message.ValidateText(text)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		return message.Message{}, err
	}

	msg := message.Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Recipient: recipient,
		Text:      trimmed,
		CreatedAt: r.stamp(sender),
	}

	persistStart := time.Now()
	stored, err := r.store.Append(ctx, msg)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("store_error").Inc()
		return message.Message{}, &message.StoreError{Err: err}
	}
	metrics.PersistLatency.Observe(time.Since(persistStart).Seconds())
	metrics.MessagesTotal.WithLabelValues("sent").Inc()

	if r.notifier != nil {
		r.notifier.MessagePersisted(stored)
	}

	r.fanOut(stored)
	return stored, nil
}

// stamp returns a server-assigned timestamp that never decreases within one
// sender's stream, even if the wall clock steps backwards.
func (r *Relay) stamp(sender string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	if last, ok := r.lastTs[sender]; ok && now.Before(last) {
		now = last
	}
	r.lastTs[sender] = now
	return now
}

// fanOut delivers the persisted message to every live channel of both
// participants, once per distinct channel id. Per-channel errors are logged
// and otherwise ignored; there is no retry.
func (r *Relay) fanOut(msg message.Message) {
	targets := make(map[string]struct{})
	for _, ch := range r.presence.ChannelsFor(msg.Recipient) {
		targets[ch] = struct{}{}
	}
	for _, ch := range r.presence.ChannelsFor(msg.Sender) {
		targets[ch] = struct{}{}
	}

	metrics.FanOutSize.Observe(float64(len(targets)))
	if len(targets) == 0 {
		return
	}

	payload, err := r.encode(msg)
	if err != nil {
		log.Printf("relay: encode delivery for message %s: %v", msg.ID, err)
		return
	}

	for ch := range targets {
		if err := r.deliver.Deliver(ch, payload); err != nil {
			log.Printf("relay: deliver to channel %s failed: %v", ch, err)
			continue
		}
		metrics.MessagesTotal.WithLabelValues("delivered").Inc()
	}
}
