package tree

import (
	"errors"
	"reflect"
	"testing"
)

type testNode struct {
	Heritage
	visits int
}

func newNode(id string, roles ...string) *testNode {
	n := &testNode{}
	n.Init(n, id, roles...)
	return n
}

func add(t *testing.T, parent Node, children ...Node) {
	t.Helper()
	for _, c := range children {
		if err := parent.AsHeritage().AddChild(c); err != nil {
			t.Fatalf("AddChild: %v", err)
		}
	}
}

func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.AsHeritage().ID())
	}
	return out
}

func TestHeritage_AddChild(t *testing.T) {
	root := newNode("root")
	child := newNode("child")

	add(t, root, child)
	add(t, root, child)

	if root.NumChildren() != 1 {
		t.Fatalf("re-adding must be a no-op, got %d children", root.NumChildren())
	}
	if child.Parent() != Node(root) {
		t.Errorf("child parent = %v, want root", child.Parent())
	}
	if _, ok := root.Children()[0].(*testNode); !ok {
		t.Errorf("children must hold the outer node type, got %T", root.Children()[0])
	}
}

func TestHeritage_AddChildMovesBetweenParents(t *testing.T) {
	a := newNode("a")
	b := newNode("b")
	c := newNode("c")

	add(t, a, c)
	add(t, b, c)

	if a.NumChildren() != 0 {
		t.Error("child should have been detached from its previous parent")
	}
	if c.Parent() != Node(b) {
		t.Error("child should belong to the new parent")
	}
}

func TestHeritage_AddChildCycle(t *testing.T) {
	root := newNode("root")
	mid := newNode("mid")
	add(t, root, mid)

	if err := mid.AddChild(root); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
	if err := root.AddChild(root); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle for self, got %v", err)
	}
}

func TestHeritage_RemoveAndDetach(t *testing.T) {
	root := newNode("root")
	a, b := newNode("a"), newNode("b")
	add(t, root, a, b)

	if !root.RemoveChild(a) {
		t.Error("RemoveChild should report true")
	}
	if root.RemoveChild(a) {
		t.Error("removing twice should report false")
	}
	if a.Parent() != nil {
		t.Error("removed child must have no parent")
	}

	b.Detach()
	if root.NumChildren() != 0 || b.Parent() != nil {
		t.Error("Detach should sever both directions")
	}
	b.Detach()
}

func TestHeritage_Roles(t *testing.T) {
	n := newNode("n", "button", "primary", "button")

	if got := n.Roles(); !reflect.DeepEqual(got, []string{"button", "primary"}) {
		t.Errorf("Roles() = %v", got)
	}
	n.AddRole("wide")
	n.RemoveRole("button")
	if got := n.Roles(); !reflect.DeepEqual(got, []string{"primary", "wide"}) {
		t.Errorf("Roles() = %v", got)
	}
	n.SetRoles("x")
	if !n.HasRole("x") || n.HasRole("wide") {
		t.Error("SetRoles should replace roles")
	}
}

func TestHeritage_RootAndPath(t *testing.T) {
	root := newNode("")
	list := newNode("list")
	item := newNode("")
	add(t, root, list)
	add(t, list, newNode("first"), item)

	if item.Root() != Node(root) {
		t.Error("Root() mismatch")
	}
	if got := item.Path(); got != "/root/list/#1" {
		t.Errorf("Path() = %q", got)
	}
}

func TestHeritage_StandaloneWithoutInit(t *testing.T) {
	var parent, child Heritage
	if err := parent.AddChild(&child); err != nil {
		t.Fatal(err)
	}
	if child.Parent() != Node(&parent) {
		t.Error("a bare Heritage should act as its own node")
	}
}
