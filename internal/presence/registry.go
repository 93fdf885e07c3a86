// Package presence tracks which transport channels are currently live for
// which user. It is the only mutable shared structure in the relay: a
// user→channels map paired with a channel→user reverse map, both mutated
// together under one lock so unregistration stays O(1).
package presence

import "sync"

// Registry maps user identities to their set of live channel ids. A user may
// own many channels at once (multi-device); a channel id belongs to at most
// one user.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]map[string]struct{} // user_id -> set of channel ids
	byChannel map[string]string              // channel_id -> user_id
}

// NewRegistry creates an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]map[string]struct{}),
		byChannel: make(map[string]string),
	}
}

// Register adds channelID to the user's channel set, creating the set if
// absent. Registering an already-known channel id is treated as a corrected
// duplicate: the channel is moved to userID without ever holding two reverse
// entries.
func (r *Registry) Register(userID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byChannel[channelID]; ok {
		if owner == userID {
			return
		}
		// Duplicate registration under a different user: detach first so the
		// reverse index never points two ways.
		r.detachLocked(owner, channelID)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[channelID] = struct{}{}
	r.byChannel[channelID] = userID
}

// Unregister removes channelID from its owning user's set via the reverse
// index. If the resulting set is empty the user entry is removed entirely.
// Unknown channel ids are a no-op — disconnects can race and arrive twice.
func (r *Registry) Unregister(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.byChannel[channelID]
	if !ok {
		return
	}
	r.detachLocked(owner, channelID)
}

// detachLocked removes a channel from both maps. Caller holds r.mu.
func (r *Registry) detachLocked(userID, channelID string) {
	delete(r.byChannel, channelID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, channelID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

// ChannelsFor returns a snapshot of the user's live channel ids. The slice
// is safe to iterate without holding the lock; it is empty if the user is
// offline.
func (r *Registry) ChannelsFor(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byUser[userID]
	if !ok {
		return []string{}
	}
	channels := make([]string, 0, len(set))
	for id := range set {
		channels = append(channels, id)
	}
	return channels
}

// UserFor returns the user identity owning channelID, or "" if the channel
// is not registered.
func (r *Registry) UserFor(channelID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byChannel[channelID]
}

// Channels returns the total number of registered channels.
func (r *Registry) Channels() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byChannel)
}

// Users returns the number of users with at least one live channel.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
