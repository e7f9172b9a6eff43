package event

import (
	"slices"
	"sort"

	"github.com/dshills/nodekit/internal/rolepath"
)

// Handler handles an event delivered to a subscriber. self is the
// subscriber's owner and data is the payload given to the publisher.
type Handler interface {
	HandleEvent(self any, data any)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(self any, data any)

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(self any, data any) {
	f(self, data)
}

// Entry is one registered handler.
type Entry struct {
	Handler Handler
	Options HandlerOptions

	id uint64
}

// Match is the outcome of resolving an event against a registry.
type Match struct {
	// Role is the registry role that matched, possibly RoleAll.
	Role string

	// Entries are the handlers registered for (event, Role), in
	// registration order.
	Entries []*Entry
}

// Registry maps event name to origin role to an ordered list of handlers.
type Registry struct {
	handlers map[string]map[string][]*Entry
	nextID   uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]map[string][]*Entry),
	}
}

// Add registers h for event under role. An empty role means RoleSelf. A
// comma-joined role key registers h independently for each listed role.
func (r *Registry) Add(event, role string, h Handler, opts ...HandlerOption) error {
	if event == "" {
		return ErrInvalidEvent
	}
	if h == nil {
		return ErrNilHandler
	}

	var o HandlerOptions
	for _, opt := range opts {
		opt(&o)
	}

	byRole := r.handlers[event]
	if byRole == nil {
		byRole = make(map[string][]*Entry)
		r.handlers[event] = byRole
	}
	for _, single := range expandRoles(role) {
		r.nextID++
		byRole[single] = append(byRole[single], &Entry{Handler: h, Options: o, id: r.nextID})
	}
	return nil
}

// AddFunc is Add for a plain function.
func (r *Registry) AddFunc(event, role string, fn func(self, data any), opts ...HandlerOption) error {
	if fn == nil {
		return ErrNilHandler
	}
	return r.Add(event, role, HandlerFunc(fn), opts...)
}

// AddEvents registers h for every event in events.
func (r *Registry) AddEvents(events []string, role string, h Handler, opts ...HandlerOption) error {
	for _, e := range events {
		if err := r.Add(e, role, h, opts...); err != nil {
			return err
		}
	}
	return nil
}

// AddForRole registers one handler per event, all under role. Events are
// registered in sorted order.
func (r *Registry) AddForRole(role string, handlers map[string]Handler, opts ...HandlerOption) error {
	for _, event := range sortedKeys(handlers) {
		if err := r.Add(event, role, handlers[event], opts...); err != nil {
			return err
		}
	}
	return nil
}

// AddForEvent registers one handler per role key, all for event. Role
// keys may be comma-joined and are registered in sorted order.
func (r *Registry) AddForEvent(event string, handlers map[string]Handler, opts ...HandlerOption) error {
	for _, role := range sortedKeys(handlers) {
		if err := r.Add(event, role, handlers[role], opts...); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes every handler registered for (event, role). A
// comma-joined role key removes each listed role. Events left without
// handlers are pruned.
func (r *Registry) Remove(event, role string) {
	byRole, ok := r.handlers[event]
	if !ok {
		return
	}
	for _, single := range expandRoles(role) {
		delete(byRole, single)
	}
	if len(byRole) == 0 {
		delete(r.handlers, event)
	}
}

// HasHandlerFor reports whether event has handlers for role or RoleAll.
func (r *Registry) HasHandlerFor(role, event string) bool {
	byRole := r.handlers[event]
	if role == "" {
		role = RoleSelf
	}
	return len(byRole[role]) > 0 || len(byRole[RoleAll]) > 0
}

// Resolve finds the handlers for event published by a node carrying
// originRoles. Roles are tried in the given order and the first with
// handlers wins; RoleAll applies only when none does.
func (r *Registry) Resolve(event string, originRoles []string) (Match, bool) {
	byRole := r.handlers[event]
	if len(byRole) == 0 {
		return Match{}, false
	}
	for _, role := range originRoles {
		if entries := byRole[role]; len(entries) > 0 {
			return Match{Role: role, Entries: slices.Clone(entries)}, true
		}
	}
	if entries := byRole[RoleAll]; len(entries) > 0 {
		return Match{Role: RoleAll, Entries: slices.Clone(entries)}, true
	}
	return Match{}, false
}

// Events returns the registered event names in sorted order.
func (r *Registry) Events() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered entries.
func (r *Registry) Count() int {
	n := 0
	for _, byRole := range r.handlers {
		for _, entries := range byRole {
			n += len(entries)
		}
	}
	return n
}

// removeEntry drops a single entry, used for once-only handlers.
func (r *Registry) removeEntry(event, role string, id uint64) {
	byRole := r.handlers[event]
	entries := byRole[role]
	i := slices.IndexFunc(entries, func(e *Entry) bool { return e.id == id })
	if i < 0 {
		return
	}
	entries = slices.Delete(entries, i, i+1)
	if len(entries) == 0 {
		r.Remove(event, role)
		return
	}
	byRole[role] = entries
}

func expandRoles(role string) []string {
	roles := rolepath.SplitRoles(role)
	if len(roles) == 0 {
		return []string{RoleSelf}
	}
	return roles
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
