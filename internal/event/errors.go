package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event layer.
var (
	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidEvent is returned when an event name is empty.
	ErrInvalidEvent = errors.New("invalid event name")

	// ErrNotSubscriber is returned when a peer registered as an observer
	// cannot capture events.
	ErrNotSubscriber = errors.New("peer cannot capture events")
)

// NotSubscriberError identifies the peer rejected by AddSubscriber.
type NotSubscriberError struct {
	// Type is the dynamic type of the rejected peer.
	Type string
}

// Error implements the error interface.
func (e *NotSubscriberError) Error() string {
	return fmt.Sprintf("%s: %v", e.Type, ErrNotSubscriber)
}

// Is allows errors.Is to match ErrNotSubscriber.
func (e *NotSubscriberError) Is(target error) bool {
	return target == ErrNotSubscriber
}
