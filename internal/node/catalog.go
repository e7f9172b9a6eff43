package node

import (
	"slices"

	"github.com/google/uuid"
)

// Catalog records nodes as they are constructed. It is meant for test
// harnesses and introspection; nodes are only recorded when built with
// WithCatalog, so there is no process-wide registry.
type Catalog struct {
	nodes map[uuid.UUID]*Node
	order []uuid.UUID
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{nodes: make(map[uuid.UUID]*Node)}
}

func (c *Catalog) record(n *Node) {
	if _, ok := c.nodes[n.key]; ok {
		return
	}
	c.nodes[n.key] = n
	c.order = append(c.order, n.key)
}

// Lookup returns the node recorded under key.
func (c *Catalog) Lookup(key uuid.UUID) (*Node, bool) {
	n, ok := c.nodes[key]
	return n, ok
}

// ByID returns the recorded nodes with id, in construction order.
func (c *Catalog) ByID(id string) []*Node {
	var out []*Node
	for _, k := range c.order {
		if n := c.nodes[k]; n.ID() == id {
			out = append(out, n)
		}
	}
	return out
}

// Nodes returns every recorded node in construction order.
func (c *Catalog) Nodes() []*Node {
	out := make([]*Node, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.nodes[k])
	}
	return out
}

// Len returns the number of recorded nodes.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Forget removes n.
func (c *Catalog) Forget(n *Node) {
	if _, ok := c.nodes[n.key]; !ok {
		return
	}
	delete(c.nodes, n.key)
	c.order = slices.DeleteFunc(c.order, func(k uuid.UUID) bool { return k == n.key })
}

// Reset empties the catalog.
func (c *Catalog) Reset() {
	clear(c.nodes)
	c.order = nil
}
