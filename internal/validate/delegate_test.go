package validate

import (
	"errors"
	"testing"

	"github.com/dshills/nodekit/internal/tree"
)

func attach(t *testing.T, parent tree.Node, children ...tree.Node) {
	t.Helper()
	for _, c := range children {
		if err := parent.AsHeritage().AddChild(c); err != nil {
			t.Fatalf("AddChild: %v", err)
		}
	}
}

func TestAddValidationsToChild(t *testing.T) {
	parent := newVNode("form", Rules{
		"child.value": {"required": true},
		"title":       {"notEmpty": true},
	})
	child := newVNode("c", nil, "child")
	other := newVNode("o", nil, "other")
	attach(t, parent, child, other)

	if parent.v.HasRule("child.value", "required") {
		t.Fatal("dotted keys must not be active on the owner")
	}
	if got := parent.v.Fields(); len(got) != 1 || got[0] != "title" {
		t.Fatalf("owner fields = %v", got)
	}

	if err := AddValidationsToChild(parent, child); err != nil {
		t.Fatal(err)
	}
	if err := AddValidationsToChild(parent, other); err != nil {
		t.Fatal(err)
	}

	if !child.v.HasRule("value", "required") {
		t.Error("child should now validate value")
	}
	if len(other.v.Fields()) != 0 {
		t.Errorf("non-matching child received rules: %v", other.v.Fields())
	}
	if parent.v.HasRule("child.value", "required") {
		t.Error("owner must still not carry the dotted key")
	}
}

func TestAddValidationsToChild_NotAChild(t *testing.T) {
	parent := newVNode("form", Rules{"child.value": {"required": true}})
	stranger := newVNode("stranger", nil, "child")

	err := AddValidationsToChild(parent, stranger)
	if !errors.Is(err, ErrNoChildForValidations) {
		t.Fatalf("expected ErrNoChildForValidations, got %v", err)
	}
	var nce *NoChildForValidationsError
	if !errors.As(err, &nce) || nce.Owner != "form" || nce.Child != "stranger" {
		t.Errorf("unexpected error detail %#v", err)
	}
	if len(stranger.v.Fields()) != 0 {
		t.Error("rules must not leak to a non-child")
	}

	if err := AddValidationsToChild(parent, nil); !errors.Is(err, ErrNoChildForValidations) {
		t.Errorf("nil child: got %v", err)
	}
}

type plainNode struct{ tree.Heritage }

func TestAddValidationsToChild_NotValidatable(t *testing.T) {
	parent := newVNode("form", Rules{"child.value": {"required": true}})
	c := &plainNode{}
	c.Init(c, "plain", "child")
	attach(t, parent, c)

	if err := AddValidationsToChild(parent, c); !errors.Is(err, ErrNotValidatable) {
		t.Errorf("expected ErrNotValidatable, got %v", err)
	}
	if err := DelegateToChildren(parent); err != nil {
		t.Errorf("DelegateToChildren should skip plain children, got %v", err)
	}
}

func TestAddValidationsToChild_MultiSegment(t *testing.T) {
	root := newVNode("root", Rules{"list.item.label": {"maxLength": 5}})
	list := newVNode("list", nil, "list")
	item := newVNode("item", nil, "item")
	attach(t, root, list)
	attach(t, list, item)

	if err := AddValidationsToChild(root, list); err != nil {
		t.Fatal(err)
	}
	if len(list.v.Fields()) != 0 {
		t.Errorf("multi-segment remainder must not become active on the intermediate child")
	}
	if !list.v.HasDescendantRule("item", "label", "maxLength") {
		t.Fatalf("list descendant paths = %v", list.v.DescendantPaths())
	}

	if err := DelegateToChildren(list); err != nil {
		t.Fatal(err)
	}
	if !item.v.HasRule("label", "maxLength") {
		t.Error("item should validate label after the second hop")
	}
}

func TestDelegateTreeAndValidateTree(t *testing.T) {
	root := newVNode("root", Rules{
		"list.item.label": {"maxLength": 3},
		"list.size":       {"min": 1},
	})
	list := newVNode("list", nil, "list")
	a := newVNode("a", nil, "item")
	b := newVNode("b", nil, "item")
	attach(t, root, list)
	attach(t, list, a, b)

	if err := DelegateTree(root); err != nil {
		t.Fatal(err)
	}
	list.attrs["size"] = 2
	a.attrs["label"] = "ok"
	b.attrs["label"] = "too long"

	valid, err := ValidateTree(root)
	if err != nil {
		t.Fatal(err)
	}
	if valid {
		t.Error("tree with an invalid label should not be valid")
	}
	if !a.v.Valid() || b.v.Valid() || !list.v.Valid() {
		t.Errorf("valid: a=%v b=%v list=%v", a.v.Valid(), b.v.Valid(), list.v.Valid())
	}

	b.attrs["label"] = "ok"
	if valid, err = ValidateTree(root); err != nil || !valid {
		t.Errorf("ValidateTree = %v, %v", valid, err)
	}

	delete(list.attrs, "size")
	if _, err := ValidateTree(root); err == nil {
		t.Error("configuration errors should stop the walk")
	}
}
