package tree

import (
	"github.com/dshills/nodekit/internal/rolepath"
)

// FindChildByID returns the first immediate child with the given id.
func (h *Heritage) FindChildByID(id string) (Node, bool) {
	for _, c := range h.children {
		if c.AsHeritage().id == id {
			return c, true
		}
	}
	return nil, false
}

// FindDescendantByID returns the first descendant with the given id,
// searching depth first with each node visited before its descendants.
func (h *Heritage) FindDescendantByID(id string) (Node, bool) {
	for _, c := range h.children {
		if c.AsHeritage().id == id {
			return c, true
		}
		if n, ok := c.AsHeritage().FindDescendantByID(id); ok {
			return n, true
		}
	}
	return nil, false
}

// FindDescendantsByID returns every descendant with the given id in the
// same depth-first order as FindDescendantByID.
func (h *Heritage) FindDescendantsByID(id string) []Node {
	var out []Node
	for _, c := range h.children {
		if c.AsHeritage().id == id {
			out = append(out, c)
		}
		out = append(out, c.AsHeritage().FindDescendantsByID(id)...)
	}
	return out
}

// FindChildrenByRole returns the immediate children carrying role.
func (h *Heritage) FindChildrenByRole(role string) []Node {
	var out []Node
	for _, c := range h.children {
		if c.AsHeritage().HasRole(role) {
			out = append(out, c)
		}
	}
	return out
}

// FindDescendantsByRole resolves a role path.
//
// A path starting with "*" searches at any depth for the next role and
// stops descending a branch at the first node carrying it; any further
// segments are then resolved stepwise from those matches. Any other path
// is resolved stepwise: each segment selects, among the immediate children
// of the previous selection, those carrying that role.
func (h *Heritage) FindDescendantsByRole(path string) []Node {
	p := rolepath.Path(path)
	if !p.IsValid() {
		return nil
	}
	if p.IsWildcard() {
		return h.findByRoleAnyDepth(p.Tail())
	}
	return h.findByRoleStepwise(p.Segments())
}

// findByRoleAnyDepth implements the "*.role[.more]" form.
func (h *Heritage) findByRoleAnyDepth(rest rolepath.Path) []Node {
	if rest == "" {
		return nil
	}
	matches := h.firstWithRole(rest.Head())
	remaining := rest.Tail()
	if remaining == "" {
		return matches
	}
	var out []Node
	for _, m := range matches {
		out = append(out, m.AsHeritage().findByRoleStepwise(remaining.Segments())...)
	}
	return out
}

// firstWithRole collects, per branch, the shallowest nodes carrying role.
// Nodes below a match are not examined.
func (h *Heritage) firstWithRole(role string) []Node {
	var out []Node
	for _, c := range h.children {
		if c.AsHeritage().HasRole(role) {
			out = append(out, c)
			continue
		}
		out = append(out, c.AsHeritage().firstWithRole(role)...)
	}
	return out
}

// findByRoleStepwise implements the "a.b.c" form.
func (h *Heritage) findByRoleStepwise(segments []string) []Node {
	current := []Node{h.This()}
	for _, role := range segments {
		var next []Node
		for _, n := range current {
			next = append(next, n.AsHeritage().FindChildrenByRole(role)...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}
