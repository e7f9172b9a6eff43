// Package nodetest provides helpers for tests that build node trees.
package nodetest

import (
	"bytes"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/nodekit/internal/logging"
	"github.com/dshills/nodekit/internal/node"
	"github.com/dshills/nodekit/internal/tree"
)

// Harness records every node built through it for the lifetime of one
// test. The catalog is reset and every node closed at cleanup.
type Harness struct {
	t       testing.TB
	Catalog *node.Catalog
	Log     *bytes.Buffer
	logger  *logging.Logger
}

// New creates a harness bound to t.
func New(t testing.TB) *Harness {
	t.Helper()
	buf := &bytes.Buffer{}
	h := &Harness{
		t:       t,
		Catalog: node.NewCatalog(),
		Log:     buf,
		logger:  logging.New(logging.Config{Level: logging.LevelDebug, Output: buf, Prefix: t.Name()}),
	}
	t.Cleanup(func() {
		for _, n := range h.Catalog.Nodes() {
			n.Close()
		}
		h.Catalog.Reset()
	})
	return h
}

// Node builds a node recorded in the harness catalog and logging to
// the harness buffer.
func (h *Harness) Node(id string, opts ...node.Option) *node.Node {
	h.t.Helper()
	base := []node.Option{node.WithID(id), node.WithCatalog(h.Catalog), node.WithLogger(h.logger)}
	return node.New(append(base, opts...)...)
}

// Lookup returns the node recorded under key, failing the test if the
// harness never built it.
func (h *Harness) Lookup(key uuid.UUID) *node.Node {
	h.t.Helper()
	n, ok := h.Catalog.Lookup(key)
	if !ok {
		h.t.Fatalf("no node with key %s", key)
	}
	return n
}

// Discard detaches n, closes its subtree, and drops every node in it
// from the catalog.
func (h *Harness) Discard(n tree.Node) {
	n.AsHeritage().Detach()
	tree.Walk(n, func(c tree.Node) bool {
		k, ok := c.(interface{ Key() uuid.UUID })
		if !ok {
			return true
		}
		if cn, ok := h.Catalog.Lookup(k.Key()); ok {
			cn.Close()
			h.Catalog.Forget(cn)
		}
		return true
	})
}

// Attach adds children to parent, failing the test on error.
func (h *Harness) Attach(parent tree.Node, children ...tree.Node) {
	h.t.Helper()
	for _, c := range children {
		if err := parent.AsHeritage().AddChild(c); err != nil {
			h.t.Fatalf("attach %s: %v", c.AsHeritage().ID(), err)
		}
	}
}

// Set sets an attribute, failing the test on error.
func (h *Harness) Set(n node.AttributeHolder, name string, value any) {
	h.t.Helper()
	if err := n.Set(name, value); err != nil {
		h.t.Fatalf("set %s: %v", name, err)
	}
}

// Get reads an attribute, failing the test on error.
func (h *Harness) Get(n node.AttributeHolder, name string) any {
	h.t.Helper()
	v, err := n.Get(name)
	if err != nil {
		h.t.Fatalf("get %s: %v", name, err)
	}
	return v
}
