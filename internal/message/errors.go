package message

import (
	"errors"
	"fmt"
)

// ErrNotAuthorized is returned by the conversation read path when the viewer
// has no established relationship with the partner. It deliberately carries
// no message content.
var ErrNotAuthorized = errors.New("message: not authorized to view conversation")

// ValidationError reports a message that failed content validation. The call
// is rejected before any persistence or delivery happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "message: " + e.Reason
}

// StoreError wraps a persistence failure. No delivery is attempted after a
// store error; the caller may retry the whole send.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("message: store: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
