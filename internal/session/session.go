// Package session stores per-channel connection metadata in Redis: which
// user a channel belongs to, which relay server instance owns it, and when
// it was last active.
package session
