package blueprint

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dshills/nodekit/internal/event"
	"github.com/dshills/nodekit/internal/node"
	"github.com/dshills/nodekit/internal/tree"
	"github.com/dshills/nodekit/internal/validate"
)

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	nodeOpts   []node.Option
	translator validate.Translator
}

// WithNodeOptions applies opts to every node built.
func WithNodeOptions(opts ...node.Option) BuildOption {
	return func(c *buildConfig) { c.nodeOpts = append(c.nodeOpts, opts...) }
}

// WithTranslator localizes validation messages after delegation.
func WithTranslator(t validate.Translator) BuildOption {
	return func(c *buildConfig) { c.translator = t }
}

// Build constructs the node tree for spec. Defaults are applied, initial
// values are set with change publishing, descendant validations are
// delegated, and observe paths are wired once the whole tree exists.
func Build(spec *Spec, opts ...BuildOption) (*node.Node, error) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var nodes []built
	root, err := buildNode(spec, &cfg, &nodes)
	if err != nil {
		return nil, err
	}

	if err := root.DelegateValidations(); err != nil {
		return nil, fmt.Errorf("delegating validations: %w", err)
	}
	for _, b := range nodes {
		for _, path := range b.spec.Observe {
			targets := b.node.FindDescendantsByRole(path)
			if len(targets) == 0 {
				b.node.Logger().Warn("observe %q matched nothing", path)
			}
			for _, target := range targets {
				if err := b.node.Observe(target); err != nil {
					return nil, fmt.Errorf("%s observing %q: %w", b.node.Path(), path, err)
				}
			}
		}
	}
	if cfg.translator != nil {
		root.Localize(cfg.translator)
	}
	return root, nil
}

type built struct {
	spec *Spec
	node *node.Node
}

func buildNode(spec *Spec, cfg *buildConfig, out *[]built) (*node.Node, error) {
	opts := []node.Option{
		node.WithID(spec.ID),
		node.WithRoles(spec.Roles...),
		node.WithAttributes(spec.Attributes...),
		node.WithDefaults(spec.Defaults),
		node.WithRules(validate.Rules(spec.Validations)),
		node.WithLockable(spec.Lockable...),
		node.WithPublishChanges(),
	}
	n := node.New(append(opts, cfg.nodeOpts...)...)
	*out = append(*out, built{spec: spec, node: n})

	if len(spec.Values) > 0 {
		if err := n.Update(spec.Values); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Path(), err)
		}
	}

	for _, cs := range spec.Children {
		c, err := buildNode(cs, cfg, out)
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(c); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Describe writes an indented outline of the tree rooted at root: ids,
// roles, attribute values, handled events, observers, and the failures
// of the last validation.
func Describe(w io.Writer, root tree.Node) error {
	var err error
	var walk func(n tree.Node, depth int)
	walk = func(n tree.Node, depth int) {
		if err != nil {
			return
		}
		h := n.AsHeritage()
		pad := strings.Repeat("  ", depth)
		line := pad + label(h)
		if rs := h.Roles(); len(rs) > 0 {
			line += " (" + strings.Join(rs, ", ") + ")"
		}
		if a, ok := n.(node.AttributeHolder); ok {
			if snap := a.Attributes().Snapshot(); len(snap) > 0 {
				line += " " + formatValues(snap)
			}
		}
		if _, err = fmt.Fprintln(w, line); err != nil {
			return
		}
		if s, ok := n.(node.EventSubscriber); ok {
			if evs := s.Registry().Events(); len(evs) > 0 {
				if _, err = fmt.Fprintf(w, "%s  handles: %s\n", pad, strings.Join(evs, ", ")); err != nil {
					return
				}
			}
		}
		if p, ok := n.(node.EventPublisher); ok {
			if obs := observers(n, p.Publisher().Subscribers()); len(obs) > 0 {
				if _, err = fmt.Fprintf(w, "%s  observed by: %s\n", pad, strings.Join(obs, ", ")); err != nil {
					return
				}
			}
		}
		if v, ok := n.(validate.Validatable); ok {
			errs := v.Validator().Errors()
			for _, f := range sortedFields(errs) {
				for _, msg := range errs[f] {
					if _, err = fmt.Fprintf(w, "%s  ! %s: %s\n", pad, f, msg); err != nil {
						return
					}
				}
			}
		}
		for _, c := range h.Children() {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return err
}

func label(h *tree.Heritage) string {
	if h.ID() != "" {
		return h.ID()
	}
	return "-"
}

// observers labels subs by tree path, or "self" for n itself.
func observers(n tree.Node, subs []event.Capturer) []string {
	out := make([]string, 0, len(subs))
	for _, c := range subs {
		switch s := c.(type) {
		case tree.Node:
			if any(s) == any(n) {
				out = append(out, "self")
			} else {
				out = append(out, s.AsHeritage().Path())
			}
		default:
			out = append(out, fmt.Sprintf("%T", c))
		}
	}
	return out
}

func formatValues(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedFields(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
