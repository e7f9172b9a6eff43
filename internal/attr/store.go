// Package attr implements the per-node attribute store: a closed set of
// named values with previous-value tracking, per-name change callbacks,
// and defaults.
//
// A Store is owned by exactly one node and is not safe for concurrent use.
// Callbacks run synchronously inside Set and may call back into the store.
package attr

import (
	"sort"
	"strings"

	"github.com/dshills/nodekit/internal/logging"
	"github.com/dshills/nodekit/internal/rolepath"
)

const (
	// DefaultCallback is the callback key consulted when a name has no
	// callback of its own.
	DefaultCallback = "default"

	// OldPrefix selects the previous value in Get: Get("_old_x").
	OldPrefix = "_old_"
)

// Callback is invoked after a value is stored. owner is the value passed
// to New, normally the node that owns the store.
type Callback func(name string, owner any)

// Store holds the attribute values of one node.
type Store struct {
	owner     any
	names     map[string]struct{}
	order     []string
	values    map[string]any
	old       map[string]any
	callbacks map[string]Callback
	defaults  map[string]any
	logger    *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults sets the values applied by SetDefaultAttributeValues.
func WithDefaults(defaults map[string]any) Option {
	return func(s *Store) {
		for k, v := range defaults {
			s.SetDefault(k, v)
		}
	}
}

// WithCallbacks registers callbacks by attribute name. The DefaultCallback
// key registers the fallback.
func WithCallbacks(callbacks map[string]Callback) Option {
	return func(s *Store) {
		for k, cb := range callbacks {
			s.callbacks[k] = cb
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = logging.OrNull(l).WithComponent("attr")
	}
}

// New creates a store recognising exactly the given names.
func New(owner any, names []string, opts ...Option) *Store {
	s := &Store{
		owner:     owner,
		names:     make(map[string]struct{}, len(names)),
		values:    make(map[string]any, len(names)),
		old:       make(map[string]any, len(names)),
		callbacks: make(map[string]Callback),
		defaults:  make(map[string]any),
		logger:    logging.NullLogger,
	}
	for _, n := range names {
		s.Define(n)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Define adds name to the recognised set. Defining a known name is a no-op.
func (s *Store) Define(name string) {
	if _, ok := s.names[name]; ok {
		return
	}
	s.names[name] = struct{}{}
	s.order = append(s.order, name)
}

// Has reports whether name is recognised.
func (s *Store) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Names returns the recognised names in definition order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the current value of name. A name carrying OldPrefix
// returns the value held before the most recent Set of the unprefixed name.
func (s *Store) Get(name string) (any, error) {
	if s.Has(name) {
		return s.values[name], nil
	}
	if base, ok := strings.CutPrefix(name, OldPrefix); ok && s.Has(base) {
		return s.old[base], nil
	}
	return nil, &UndefinedAttributeError{Name: name, Op: "get"}
}

// Old returns the value held before the most recent Set of name.
func (s *Store) Old(name string) (any, error) {
	if !s.Has(name) {
		return nil, &UndefinedAttributeError{Name: name, Op: "get"}
	}
	return s.old[name], nil
}

// SetOption configures a single Set.
type SetOption func(*setConfig)

type setConfig struct {
	runCallback bool
}

// WithoutCallback stores the value without running any callback.
// Binding layers mirroring values back into the store use this to avoid
// feedback loops.
func WithoutCallback() SetOption {
	return func(c *setConfig) { c.runCallback = false }
}

// Set stores value under name, remembering the previous value, then runs
// the name's callback, or the DefaultCallback, or nothing.
func (s *Store) Set(name string, value any, opts ...SetOption) error {
	cfg := setConfig{runCallback: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return s.set(name, value, cfg.runCallback)
}

func (s *Store) set(name string, value any, runCallback bool) error {
	if !s.Has(name) {
		return &UndefinedAttributeError{Name: name, Op: "set"}
	}

	s.old[name] = s.values[name]
	s.values[name] = value

	if runCallback {
		s.runCallback(name)
	}
	return nil
}

func (s *Store) runCallback(name string) {
	cb, ok := s.callbacks[name]
	if !ok {
		cb, ok = s.callbacks[DefaultCallback]
	}
	if !ok || cb == nil {
		return
	}
	s.logger.Debug("callback for %q", name)
	cb(name, s.owner)
}

// HasChanged reports whether the current value of name differs from the
// previous one under LooseEqual.
func (s *Store) HasChanged(name string) (bool, error) {
	if !s.Has(name) {
		return false, &UndefinedAttributeError{Name: name, Op: "hasChanged"}
	}
	return !LooseEqual(s.values[name], s.old[name]), nil
}

// SetCallback registers cb for name. Use DefaultCallback for the fallback.
func (s *Store) SetCallback(name string, cb Callback) {
	s.callbacks[name] = cb
}

// RemoveCallback removes the callback registered for name.
func (s *Store) RemoveCallback(name string) {
	delete(s.callbacks, name)
}

// SetDefault records the default for name.
func (s *Store) SetDefault(name string, value any) {
	s.defaults[name] = value
}

// UpdateOption configures UpdateAttributes.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	condition     func() bool
	ignoreUnknown bool
}

// WithCondition gates callbacks. condition is evaluated once per key,
// immediately before that key is stored.
func WithCondition(condition func() bool) UpdateOption {
	return func(c *updateConfig) { c.condition = condition }
}

// IgnoreUnknown skips unrecognised names instead of failing.
func IgnoreUnknown() UpdateOption {
	return func(c *updateConfig) { c.ignoreUnknown = true }
}

// UpdateAttributes sets every value in values, in sorted key order. Keys
// containing the path separator address descendants and are skipped.
// Without IgnoreUnknown the first unrecognised name stops the update and
// is returned; values stored before it are kept.
func (s *Store) UpdateAttributes(values map[string]any, opts ...UpdateOption) error {
	var cfg updateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		if rolepath.HasSeparator(name) {
			continue
		}
		if !s.Has(name) {
			if cfg.ignoreUnknown {
				continue
			}
			return &UndefinedAttributeError{Name: name, Op: "update"}
		}
		runCallback := cfg.condition == nil || cfg.condition()
		if err := s.set(name, values[name], runCallback); err != nil {
			return err
		}
	}
	return nil
}

// SetDefaultAttributeValues writes each default whose attribute currently
// holds nil. No callbacks run and previous values are left untouched.
func (s *Store) SetDefaultAttributeValues() error {
	keys := make([]string, 0, len(s.defaults))
	for k := range s.defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		if !s.Has(name) {
			return &UndefinedAttributeError{Name: name, Op: "default"}
		}
		if s.values[name] == nil {
			s.values[name] = s.defaults[name]
		}
	}
	return nil
}

// Snapshot returns a copy of the current values. Unset attributes map
// to nil.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		out[name] = s.values[name]
	}
	return out
}
