// Package tree implements the ownership tree that every node participates
// in: an ordered parent/child graph where each child has exactly one
// parent, plus id and role based lookup.
//
// Heritage is embedded into a node type, which then satisfies Node through
// the promoted AsHeritage method. Call Init with the outer value so that
// parents and lookups hand back the outer type, not the embedded Heritage:
//
//	type Widget struct {
//	    tree.Heritage
//	}
//
//	w := &Widget{}
//	w.Init(w, "ok-button", "button", "primary")
package tree

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// Node is anything that participates in the ownership tree.
type Node interface {
	AsHeritage() *Heritage
}

// ErrCycle is returned when a node would become its own ancestor.
var ErrCycle = errors.New("tree: node cannot be added below itself")

// Heritage holds the tree state of one node.
type Heritage struct {
	self     Node
	id       string
	roles    []string
	parent   Node
	children []Node
}

// Init records the outer node value, its id, and its roles.
func (h *Heritage) Init(self Node, id string, roles ...string) {
	h.self = self
	h.id = id
	h.roles = nil
	for _, r := range roles {
		h.AddRole(r)
	}
}

// AsHeritage implements Node.
func (h *Heritage) AsHeritage() *Heritage {
	return h
}

// This returns the outer node value passed to Init, or h itself.
func (h *Heritage) This() Node {
	if h.self == nil {
		return h
	}
	return h.self
}

// ID returns the node id, which may be empty.
func (h *Heritage) ID() string {
	return h.id
}

// SetID sets the node id. Uniqueness is not enforced.
func (h *Heritage) SetID(id string) {
	h.id = id
}

// Roles returns the node roles in the order they were added.
func (h *Heritage) Roles() []string {
	return slices.Clone(h.roles)
}

// HasRole reports whether the node carries role.
func (h *Heritage) HasRole(role string) bool {
	return slices.Contains(h.roles, role)
}

// AddRole appends role unless already present.
func (h *Heritage) AddRole(role string) {
	if role == "" || h.HasRole(role) {
		return
	}
	h.roles = append(h.roles, role)
}

// RemoveRole removes role.
func (h *Heritage) RemoveRole(role string) {
	h.roles = slices.DeleteFunc(h.roles, func(r string) bool { return r == role })
}

// SetRoles replaces the node roles.
func (h *Heritage) SetRoles(roles ...string) {
	h.roles = nil
	for _, r := range roles {
		h.AddRole(r)
	}
}

// Parent returns the parent node, or nil for a root.
func (h *Heritage) Parent() Node {
	return h.parent
}

// Children returns a copy of the ordered child list.
func (h *Heritage) Children() []Node {
	return slices.Clone(h.children)
}

// NumChildren returns the number of children.
func (h *Heritage) NumChildren() int {
	return len(h.children)
}

// IndexOf returns the position of child, or -1.
func (h *Heritage) IndexOf(child Node) int {
	for i, c := range h.children {
		if c.AsHeritage() == child.AsHeritage() {
			return i
		}
	}
	return -1
}

// IsChild reports whether child is an immediate child of this node.
func (h *Heritage) IsChild(child Node) bool {
	return child != nil && h.IndexOf(child) >= 0
}

// AddChild attaches child as the last child. Adding a child that is
// already present is a no-op. A child attached to another parent is
// detached from it first.
func (h *Heritage) AddChild(child Node) error {
	ch := child.AsHeritage()
	for n := Node(h); n != nil; n = n.AsHeritage().parent {
		if n.AsHeritage() == ch {
			return ErrCycle
		}
	}

	if h.IsChild(child) {
		ch.parent = h.This()
		return nil
	}
	if ch.parent != nil {
		ch.parent.AsHeritage().RemoveChild(child)
	}

	ch.parent = h.This()
	h.children = append(h.children, ch.This())
	return nil
}

// RemoveChild detaches child. It reports whether child was present.
func (h *Heritage) RemoveChild(child Node) bool {
	i := h.IndexOf(child)
	if i < 0 {
		return false
	}
	h.children = slices.Delete(h.children, i, i+1)
	child.AsHeritage().parent = nil
	return true
}

// Detach removes the node from its parent, if any.
func (h *Heritage) Detach() {
	if h.parent != nil {
		h.parent.AsHeritage().RemoveChild(h)
	}
}

// Root returns the topmost ancestor, or the node itself.
func (h *Heritage) Root() Node {
	n := h.This()
	for n.AsHeritage().parent != nil {
		n = n.AsHeritage().parent
	}
	return n
}

// Path returns a slash separated description of the node's position, using
// ids where set and "#<index>" otherwise. It is meant for logs and errors.
func (h *Heritage) Path() string {
	var parts []string
	for n := h.This(); n != nil; n = n.AsHeritage().parent {
		nh := n.AsHeritage()
		label := nh.id
		if label == "" {
			if nh.parent == nil {
				label = "root"
			} else {
				label = "#" + strconv.Itoa(nh.parent.AsHeritage().IndexOf(n))
			}
		}
		parts = append(parts, label)
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}
