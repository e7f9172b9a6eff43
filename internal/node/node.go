// Package node composes the attribute store, ownership tree, event bus,
// and validator into one component type.
//
// Each capability owns its own state: the Node only wires them together.
// Component types embed *Node and pass themselves with WithSelf so that
// tree lookups, handlers, and change events see the outer type:
//
//	type Field struct{ *node.Node }
//
//	func NewField(id string) *Field {
//	    f := &Field{}
//	    f.Node = node.New(node.WithSelf(f), node.WithID(id), node.WithAttributes("value"))
//	    return f
//	}
package node

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/nodekit/internal/attr"
	"github.com/dshills/nodekit/internal/event"
	"github.com/dshills/nodekit/internal/logging"
	"github.com/dshills/nodekit/internal/tree"
	"github.com/dshills/nodekit/internal/validate"
)

// ChangePrefix prefixes the event published for an attribute change when
// change publishing is enabled: "change:value".
const ChangePrefix = "change:"

// ErrNotPublisher is returned by Observe for a peer without a publisher.
var ErrNotPublisher = errors.New("peer does not publish events")

// Node is the composed component.
type Node struct {
	tree.Heritage

	self       tree.Node
	key        uuid.UUID
	attrs      *attr.Store
	publisher  *event.Publisher
	subscriber *event.Subscriber
	locks      *event.LockSet
	validator  *validate.Validator
	logger     *logging.Logger
}

type config struct {
	self     tree.Node
	id       string
	roles    []string
	names    []string
	attrOpts []attr.Option
	subOpts  []event.SubscriberOption
	valOpts  []validate.Option
	rules    validate.Rules
	lockable []string
	changes  bool
	logger   *logging.Logger
	catalog  *Catalog
}

// Option configures a Node.
type Option func(*config)

// WithSelf sets the value that handlers, lookups, and change events see
// as the node. It must embed the Node being constructed.
func WithSelf(self tree.Node) Option {
	return func(c *config) { c.self = self }
}

// WithID sets the node id.
func WithID(id string) Option {
	return func(c *config) { c.id = id }
}

// WithRoles sets the node roles.
func WithRoles(roles ...string) Option {
	return func(c *config) { c.roles = append(c.roles, roles...) }
}

// WithAttributes declares attribute names.
func WithAttributes(names ...string) Option {
	return func(c *config) { c.names = append(c.names, names...) }
}

// WithDefaults sets attribute defaults, applied at construction.
func WithDefaults(defaults map[string]any) Option {
	return func(c *config) { c.attrOpts = append(c.attrOpts, attr.WithDefaults(defaults)) }
}

// WithCallbacks registers attribute callbacks.
func WithCallbacks(callbacks map[string]attr.Callback) Option {
	return func(c *config) { c.attrOpts = append(c.attrOpts, attr.WithCallbacks(callbacks)) }
}

// WithRules sets validation rules.
func WithRules(rules validate.Rules) Option {
	return func(c *config) { c.rules = rules }
}

// WithValidatorOptions passes options to the validator.
func WithValidatorOptions(opts ...validate.Option) Option {
	return func(c *config) { c.valOpts = append(c.valOpts, opts...) }
}

// WithLockable whitelists lockable event names.
func WithLockable(names ...string) Option {
	return func(c *config) { c.lockable = append(c.lockable, names...) }
}

// WithSubscriberOptions passes options to the subscriber.
func WithSubscriberOptions(opts ...event.SubscriberOption) Option {
	return func(c *config) { c.subOpts = append(c.subOpts, opts...) }
}

// WithPublishChanges publishes ChangePrefix+name for attributes without
// a callback of their own.
func WithPublishChanges() Option {
	return func(c *config) { c.changes = true }
}

// WithLogger sets the logger shared by every capability.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCatalog records the node in c at construction.
func WithCatalog(cat *Catalog) Option {
	return func(c *config) { c.catalog = cat }
}

// New creates a node.
func New(opts ...Option) *Node {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	n := &Node{key: uuid.New()}
	if cfg.self == nil {
		cfg.self = n
	}
	n.self = cfg.self
	n.Init(cfg.self, cfg.id, cfg.roles...)

	n.logger = logging.OrNull(cfg.logger).WithFields(map[string]any{
		"node": cfg.id,
		"key":  n.key.String()[:8],
	})

	n.attrs = attr.New(cfg.self, cfg.names, append(cfg.attrOpts, attr.WithLogger(n.logger))...)
	n.publisher = event.NewPublisher(cfg.self, &n.Heritage)
	n.subscriber = event.NewSubscriber(cfg.self, nil,
		append([]event.SubscriberOption{event.WithSubscriberLogger(n.logger)}, cfg.subOpts...)...)
	n.locks = event.NewLockSet(cfg.lockable...)
	n.validator = validate.New(cfg.rules, append([]validate.Option{validate.WithLogger(n.logger)}, cfg.valOpts...)...)

	if cfg.changes {
		n.PublishChanges()
	}
	if err := n.attrs.SetDefaultAttributeValues(); err != nil {
		n.logger.Warn("defaults: %v", err)
	}
	if cfg.catalog != nil {
		cfg.catalog.record(n)
	}
	return n
}

// Key returns the node's unique key.
func (n *Node) Key() uuid.UUID {
	return n.key
}

// Self returns the value the node presents to handlers and lookups.
func (n *Node) Self() tree.Node {
	return n.self
}

// Logger returns the node's logger.
func (n *Node) Logger() *logging.Logger {
	return n.logger
}

// String identifies the node in logs.
func (n *Node) String() string {
	return fmt.Sprintf("%s[%s]", n.Path(), n.key.String()[:8])
}

// Attributes returns the attribute store.
func (n *Node) Attributes() *attr.Store {
	return n.attrs
}

// Get returns an attribute value.
func (n *Node) Get(name string) (any, error) {
	return n.attrs.Get(name)
}

// Set stores an attribute value and runs its callback.
func (n *Node) Set(name string, value any, opts ...attr.SetOption) error {
	return n.attrs.Set(name, value, opts...)
}

// Update sets several attributes. See attr.Store.UpdateAttributes.
func (n *Node) Update(values map[string]any, opts ...attr.UpdateOption) error {
	return n.attrs.UpdateAttributes(values, opts...)
}

// PublishChanges installs the default attribute callback, publishing
// ChangePrefix+name with the node as payload.
func (n *Node) PublishChanges() {
	n.attrs.SetCallback(attr.DefaultCallback, func(name string, _ any) {
		n.publisher.Publish(ChangePrefix + name)
	})
}

// Publisher returns the node's publisher.
func (n *Node) Publisher() *event.Publisher {
	return n.publisher
}

// Publish broadcasts name with the node as payload.
func (n *Node) Publish(name string) {
	n.publisher.Publish(name)
}

// PublishData broadcasts name with data.
func (n *Node) PublishData(name string, data any) {
	n.publisher.PublishData(name, data)
}

// Subscriber returns the node's subscriber.
func (n *Node) Subscriber() *event.Subscriber {
	return n.subscriber
}

// Registry returns the node's handler registry.
func (n *Node) Registry() *event.Registry {
	return n.subscriber.Registry()
}

// On registers fn for eventName from role.
func (n *Node) On(eventName, role string, fn func(self, data any), opts ...event.HandlerOption) error {
	return n.subscriber.Registry().AddFunc(eventName, role, fn, opts...)
}

// CaptureEvent implements event.Capturer. Events whose qualified name is
// locked are dropped.
func (n *Node) CaptureEvent(name string, roles []string, data any) {
	if n.locks.HasEventLock(name, roles...) {
		n.logger.Debug("suppressed %q from %v", name, roles)
		return
	}
	n.subscriber.CaptureEvent(name, roles, data)
}

// ListeningLock reports whether delivery is suspended.
func (n *Node) ListeningLock() bool {
	return n.subscriber.ListeningLock()
}

// SetListeningLock suspends or resumes delivery.
func (n *Node) SetListeningLock(locked bool) {
	n.subscriber.SetListeningLock(locked)
}

// Observe subscribes the node to peer's events.
func (n *Node) Observe(peer any) error {
	p, ok := peer.(EventPublisher)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotPublisher, peer)
	}
	return p.Publisher().AddSubscriber(n.self)
}

// Unobserve stops observing peer. It reports whether n was observing.
func (n *Node) Unobserve(peer any) bool {
	p, ok := peer.(EventPublisher)
	return ok && p.Publisher().RemoveSubscriber(n.self)
}

// Locks returns the node's event lock set.
func (n *Node) Locks() *event.LockSet {
	return n.locks
}

// AddEventLock suppresses name from the given publisher roles.
func (n *Node) AddEventLock(name string, publisherRoles ...string) {
	n.locks.AddEventLock(name, publisherRoles...)
}

// RemoveEventLock lifts a suppression.
func (n *Node) RemoveEventLock(name string, publisherRoles ...string) {
	n.locks.RemoveEventLock(name, publisherRoles...)
}

// HasEventLock reports whether name from the given roles is suppressed.
func (n *Node) HasEventLock(name string, publisherRoles ...string) bool {
	return n.locks.HasEventLock(name, publisherRoles...)
}

// Validator returns the node's validator.
func (n *Node) Validator() *validate.Validator {
	return n.validator
}

// DelegateValidations pushes descendant rules down the subtree.
func (n *Node) DelegateValidations() error {
	return validate.DelegateTree(n.self)
}

// Localize resolves validation message keys across the subtree.
func (n *Node) Localize(t validate.Translator) {
	tree.Walk(n.self, func(c tree.Node) bool {
		if v, ok := c.(validate.Validatable); ok {
			v.Validator().Localize(t)
		}
		return true
	})
}

// Validate validates the node and every validatable descendant. The
// bool reports whether all of them are valid; the error is a
// configuration problem.
func (n *Node) Validate() (bool, error) {
	return validate.ValidateTree(n.self)
}

// Close releases validator resources across the subtree.
func (n *Node) Close() {
	tree.Walk(n.self, func(c tree.Node) bool {
		if v, ok := c.(validate.Validatable); ok {
			v.Validator().Close()
		}
		return true
	})
}
