package event

import "github.com/dshills/nodekit/internal/logging"

// Reserved roles.
const (
	// RoleSelf addresses events a node publishes to itself. It is the
	// default role for handler registration.
	RoleSelf = "#self"

	// RoleAll matches any publisher once no role-specific entry applies.
	RoleAll = "#all"
)

// HandlerOption configures a single handler registration.
type HandlerOption func(*HandlerOptions)

// HandlerOptions are the options stored with a registered handler.
type HandlerOptions struct {
	// Once removes the entry after its first invocation.
	Once bool

	// Label names the handler in debug logs.
	Label string
}

// WithOnce removes the handler after it runs once.
func WithOnce() HandlerOption {
	return func(o *HandlerOptions) { o.Once = true }
}

// WithLabel names the handler in debug logs.
func WithLabel(label string) HandlerOption {
	return func(o *HandlerOptions) { o.Label = label }
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithObserver reports queue activity to o.
func WithObserver(o Observer) SubscriberOption {
	return func(s *Subscriber) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithSubscriberLogger sets the subscriber's logger.
func WithSubscriberLogger(l *logging.Logger) SubscriberOption {
	return func(s *Subscriber) {
		s.logger = logging.OrNull(l).WithComponent("subscriber")
	}
}

// WithInitialLock starts the subscriber with its listening lock held.
func WithInitialLock() SubscriberOption {
	return func(s *Subscriber) { s.locked = true }
}

// Observer receives queue and delivery notifications from a Subscriber.
type Observer interface {
	// EventQueued is called after a record is appended to the queue.
	EventQueued(name string, pending int)

	// EventDelivered is called after the handlers resolved for role ran.
	EventDelivered(name, role string, handlers int)

	// EventUnrouted is called when no handler matches a record.
	EventUnrouted(name string)
}

type nopObserver struct{}

func (nopObserver) EventQueued(string, int)            {}
func (nopObserver) EventDelivered(string, string, int) {}
func (nopObserver) EventUnrouted(string)               {}
