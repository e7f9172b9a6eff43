package tree

// ApplyOption configures ApplyToChildren.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	recursive bool
	condition func(Node) bool
}

// Recursive extends ApplyToChildren to every descendant.
func Recursive() ApplyOption {
	return func(c *applyConfig) { c.recursive = true }
}

// WithCondition limits invocation on the immediate children to those for
// which condition returns true. It does not gate recursion, and deeper
// levels are invoked without it.
func WithCondition(condition func(Node) bool) ApplyOption {
	return func(c *applyConfig) { c.condition = condition }
}

// ApplyToChildren calls fn for each child in order. With Recursive, each
// child's own subtree is visited right after the child, unconditionally.
// The child list is snapshotted per level, so fn may add or remove
// children.
func (h *Heritage) ApplyToChildren(fn func(Node), opts ...ApplyOption) {
	var cfg applyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	h.apply(fn, cfg)
}

func (h *Heritage) apply(fn func(Node), cfg applyConfig) {
	for _, c := range h.Children() {
		if cfg.condition == nil || cfg.condition(c) {
			fn(c)
		}
		if cfg.recursive {
			c.AsHeritage().apply(fn, applyConfig{recursive: true})
		}
	}
}

// ApplyTo calls fn on every child of n that implements T, skipping the
// rest. It is the typed form of ApplyToChildren for capability interfaces:
//
//	tree.ApplyTo(root, func(v Resetter) { v.Reset() }, tree.Recursive())
func ApplyTo[T any](n Node, fn func(T), opts ...ApplyOption) {
	n.AsHeritage().ApplyToChildren(func(c Node) {
		if t, ok := c.(T); ok {
			fn(t)
		}
	}, opts...)
}

// Walk calls fn for n and every descendant, parents first. Returning false
// from fn skips that node's subtree.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.AsHeritage().Children() {
		Walk(c, fn)
	}
}
