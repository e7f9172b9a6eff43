package node

import (
	"github.com/dshills/nodekit/internal/attr"
	"github.com/dshills/nodekit/internal/event"
	"github.com/dshills/nodekit/internal/tree"
	"github.com/dshills/nodekit/internal/validate"
)

// AttributeHolder owns an attribute store.
type AttributeHolder interface {
	Attributes() *attr.Store
	Get(name string) (any, error)
	Set(name string, value any, opts ...attr.SetOption) error
}

// RoleAddressable takes part in the ownership tree.
type RoleAddressable interface {
	tree.Node
	Roles() []string
	HasRole(role string) bool
}

// EventPublisher broadcasts events to observers.
type EventPublisher interface {
	Publisher() *event.Publisher
}

// EventSubscriber receives events and routes them to handlers.
type EventSubscriber interface {
	event.Capturer
	Registry() *event.Registry
	SetListeningLock(locked bool)
}

// Validatable owns a validator.
type Validatable = validate.Validatable

var (
	_ AttributeHolder         = (*Node)(nil)
	_ RoleAddressable         = (*Node)(nil)
	_ EventPublisher          = (*Node)(nil)
	_ EventSubscriber         = (*Node)(nil)
	_ Validatable             = (*Node)(nil)
	_ validate.SelfValidating = (*Node)(nil)
)
