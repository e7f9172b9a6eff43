package event

import (
	"fmt"
	"reflect"
	"slices"
)

// Capturer is the capability a peer needs to observe a Publisher.
type Capturer interface {
	CaptureEvent(name string, roles []string, data any)
}

// RoleSource supplies the roles a publisher carries at broadcast time.
type RoleSource interface {
	Roles() []string
}

// StaticRoles is a fixed RoleSource.
type StaticRoles []string

// Roles returns the roles.
func (r StaticRoles) Roles() []string { return slices.Clone(r) }

// Publisher broadcasts named events to the subscribers observing it.
type Publisher struct {
	owner       any
	roles       RoleSource
	subscribers []Capturer
}

// NewPublisher creates a publisher. owner is the default payload and
// identifies self-observation; roles tags every broadcast.
func NewPublisher(owner any, roles RoleSource) *Publisher {
	if roles == nil {
		roles = StaticRoles(nil)
	}
	return &Publisher{owner: owner, roles: roles}
}

// AddSubscriber registers peer as an observer. peer must implement
// Capturer. Registering the same peer twice is a no-op.
func (p *Publisher) AddSubscriber(peer any) error {
	c, ok := peer.(Capturer)
	if !ok {
		return &NotSubscriberError{Type: fmt.Sprintf("%T", peer)}
	}
	if p.indexOf(c) >= 0 {
		return nil
	}
	p.subscribers = append(p.subscribers, c)
	return nil
}

// RemoveSubscriber unregisters peer. It reports whether peer was present.
func (p *Publisher) RemoveSubscriber(peer any) bool {
	c, ok := peer.(Capturer)
	if !ok {
		return false
	}
	i := p.indexOf(c)
	if i < 0 {
		return false
	}
	p.subscribers = slices.Delete(p.subscribers, i, i+1)
	return true
}

// HasSubscriber reports whether peer observes this publisher.
func (p *Publisher) HasSubscriber(peer any) bool {
	c, ok := peer.(Capturer)
	return ok && p.indexOf(c) >= 0
}

// Subscribers returns a copy of the observer list in registration order.
func (p *Publisher) Subscribers() []Capturer {
	return slices.Clone(p.subscribers)
}

// Roles returns the roles the next broadcast will carry.
func (p *Publisher) Roles() []string {
	return p.roles.Roles()
}

// Publish broadcasts name with the publisher's owner as payload.
func (p *Publisher) Publish(name string) {
	p.PublishData(name, p.owner)
}

// PublishData broadcasts name with data as payload. Subscribers are
// notified in registration order from a snapshot taken before the first
// delivery, so handlers may change the observer list freely. The owner,
// when it observes itself, receives RoleSelf as the origin role.
func (p *Publisher) PublishData(name string, data any) {
	snapshot := slices.Clone(p.subscribers)
	roles := p.roles.Roles()
	for _, s := range snapshot {
		origin := roles
		if same(s, p.owner) {
			origin = []string{RoleSelf}
		}
		s.CaptureEvent(name, slices.Clone(origin), data)
	}
}

func (p *Publisher) indexOf(c Capturer) int {
	for i, s := range p.subscribers {
		if same(s, c) {
			return i
		}
	}
	return -1
}

// same compares by identity without panicking on uncomparable values.
func same(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
