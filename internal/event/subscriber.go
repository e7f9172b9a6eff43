package event

import (
	"slices"

	"github.com/dshills/nodekit/internal/logging"
)

// Record is one captured event waiting for delivery.
type Record struct {
	Name  string
	Roles []string
	Data  any
}

// Subscriber queues captured events and delivers them through a Registry
// while its listening lock is released.
type Subscriber struct {
	self     any
	registry *Registry
	queue    []Record
	locked   bool
	observer Observer
	logger   *logging.Logger
}

// NewSubscriber creates a subscriber. self is passed to every handler.
// A nil registry gets a fresh one.
func NewSubscriber(self any, registry *Registry, opts ...SubscriberOption) *Subscriber {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Subscriber{
		self:     self,
		registry: registry,
		observer: nopObserver{},
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the handler registry.
func (s *Subscriber) Registry() *Registry {
	return s.registry
}

// CaptureEvent queues an event and, if the listening lock is released,
// drains the queue.
func (s *Subscriber) CaptureEvent(name string, roles []string, data any) {
	s.queue = append(s.queue, Record{Name: name, Roles: roles, Data: data})
	s.observer.EventQueued(name, len(s.queue))
	if !s.locked {
		s.drain()
	}
}

// ListeningLock reports whether delivery is suspended.
func (s *Subscriber) ListeningLock() bool {
	return s.locked
}

// SetListeningLock suspends or resumes delivery. Releasing the lock
// drains the queue immediately; taking it has no other effect.
func (s *Subscriber) SetListeningLock(locked bool) {
	s.locked = locked
	if !locked {
		s.drain()
	}
}

// Pending returns the number of queued records.
func (s *Subscriber) Pending() int {
	return len(s.queue)
}

// PendingRecords returns a copy of the queue, oldest first.
func (s *Subscriber) PendingRecords() []Record {
	return slices.Clone(s.queue)
}

// drain delivers queued records oldest first until the queue is empty or
// a handler takes the lock. When the queue ends up empty the lock is
// released, even if the last handler took it.
func (s *Subscriber) drain() {
	for len(s.queue) > 0 && !s.locked {
		rec := s.queue[0]
		s.queue[0] = Record{}
		s.queue = s.queue[1:]
		s.deliver(rec)
	}
	if len(s.queue) == 0 {
		s.locked = false
	}
}

func (s *Subscriber) deliver(rec Record) {
	match, ok := s.registry.Resolve(rec.Name, rec.Roles)
	if !ok {
		s.logger.Debug("no handler for %q from %v", rec.Name, rec.Roles)
		s.observer.EventUnrouted(rec.Name)
		return
	}

	for _, e := range match.Entries {
		if e.Options.Once {
			s.registry.removeEntry(rec.Name, match.Role, e.id)
		}
		if e.Options.Label != "" {
			s.logger.Debug("%q from %s -> %s", rec.Name, match.Role, e.Options.Label)
		}
		e.Handler.HandleEvent(s.self, rec.Data)
	}
	s.observer.EventDelivered(rec.Name, match.Role, len(match.Entries))
}
