package main

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amora/relay/internal/messaging"
	"github.com/amora/relay/internal/moderation"
)

// queueGroup lets multiple moderator instances share the persisted-message
// stream without double-checking the same message.
const queueGroup = "moderators"

func main() {
	log.Println("Starting Amora moderation service...")

	// NATS setup.
	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "amora-moderator"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// Initialize content filter.
	filter := moderation.NewFilter()

	// Check every persisted message. The relay never waits on this: flags are
	// published after the fact for the trust-and-safety pipeline.
	err = natsClient.SubscribeMessagePersisted(queueGroup, func(data []byte) {
		var event moderation.MessageEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[moderator] failed to unmarshal event: %v", err)
			return
		}

		result := filter.Check(event.Text)
		if !result.Blocked {
			return
		}

		log.Printf("[moderator] FLAGGED message=%s sender=%s reason=%s term=%q",
			event.MessageID, event.Sender, result.Reason, result.Term)

		flag := moderation.Flag{
			MessageID: event.MessageID,
			Sender:    event.Sender,
			Recipient: event.Recipient,
			Reason:    result.Reason,
			Term:      result.Term,
		}
		flagData, err := json.Marshal(flag)
		if err != nil {
			log.Printf("[moderator] failed to marshal flag: %v", err)
			return
		}
		if err := natsClient.PublishModerationFlag(event.Sender, flagData); err != nil {
			log.Printf("[moderator] failed to publish flag: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe to persisted messages: %v", err)
	}

	log.Printf("Amora moderation service running")
	log.Printf("  nats_url: %s", natsConfig.URL)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	natsClient.Close()
}
