package ws

import (
	"context"
	"log"
	"time"
)

// HeartbeatConfig tunes the liveness sweep.
type HeartbeatConfig struct {
	Interval time.Duration // time between sweeps
	Timeout  time.Duration // grace period past Interval before eviction
}

// DefaultHeartbeatConfig pings every 30s and evicts after 10s more silence.
func DefaultHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{
		Interval: 30 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// StartHeartbeat runs the liveness sweep in the background until the server's
// done channel closes. Each sweep pings every live channel and evicts the
// ones with no activity inside Interval+Timeout; eviction goes through the
// normal removal path, so the presence registry stops targeting the channel.
func StartHeartbeat(server *Server, config HeartbeatConfig) {
	go func() {
		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-server.done:
				return
			case <-ticker.C:
				sweepStale(server, config)
			}
		}
	}()
}

// sweepStale evicts silent channels and pings the rest with a protocol-level
// ping frame (opcode 0x9), which browsers answer automatically.
func sweepStale(server *Server, config HeartbeatConfig) {
	deadline := config.Interval + config.Timeout
	now := time.Now()

	for _, c := range server.Connections().All() {
		idle := now.Sub(c.LastPing)
		if idle > deadline {
			log.Printf("ws: heartbeat timeout user=%s channel=%s idle=%s",
				c.UserID, c.ID, idle.Round(time.Second))
			server.RemoveConnection(c)
			continue
		}

		// The connection's write mutex keeps the ping frame from
		// interleaving with application writes.
		if err := c.WritePing(); err != nil {
			log.Printf("ws: heartbeat ping failed channel=%s: %v", c.ID, err)
			server.RemoveConnection(c)
			continue
		}

		// The channel survived the sweep; refresh its Redis TTL so the
		// metadata outlives crashed servers but not live ones.
		if server.sessionStore != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := server.sessionStore.Touch(ctx, c.ID); err != nil {
				log.Printf("ws: session touch failed channel=%s: %v", c.ID, err)
			}
			cancel()
		}
	}
}
