package node_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/dshills/nodekit/internal/event"
	"github.com/dshills/nodekit/internal/i18n"
	"github.com/dshills/nodekit/internal/node"
	"github.com/dshills/nodekit/internal/node/nodetest"
	"github.com/dshills/nodekit/internal/tree"
	"github.com/dshills/nodekit/internal/validate"
)

// Field is a component type embedding a node.
type Field struct {
	*node.Node
	clicks int
}

func newField(h *nodetest.Harness, id string, opts ...node.Option) *Field {
	f := &Field{}
	base := []node.Option{node.WithSelf(f), node.WithRoles("field"), node.WithAttributes("value"), node.WithPublishChanges()}
	f.Node = h.Node(id, append(base, opts...)...)
	return f
}

func TestNode_ChangeEventsReachObservers(t *testing.T) {
	h := nodetest.New(t)
	form := h.Node("form", node.WithAttributes("dirty"))
	name := newField(h, "name")
	h.Attach(form, name)

	if err := form.Observe(name); err != nil {
		t.Fatal(err)
	}

	var gotSelf, gotData any
	if err := form.On("change:value", "field", func(self, data any) {
		gotSelf, gotData = self, data
		_ = form.Set("dirty", true)
	}); err != nil {
		t.Fatal(err)
	}

	h.Set(name, "value", "Ada")

	if gotSelf != any(form) {
		t.Errorf("handler self = %v, want the form", gotSelf)
	}
	if gotData != any(name) {
		t.Errorf("handler data = %v, want the publishing field", gotData)
	}
	if h.Get(form, "dirty") != true {
		t.Error("handler should have marked the form dirty")
	}
}

func TestNode_SelfObservation(t *testing.T) {
	h := nodetest.New(t)
	f := newField(h, "f")
	if err := f.Observe(f); err != nil {
		t.Fatal(err)
	}

	var roles []string
	_ = f.On("change:value", "", func(self, _ any) {
		if self != any(f) {
			t.Errorf("self = %v", self)
		}
		roles = append(roles, event.RoleSelf)
	})
	_ = f.On("change:value", "field", func(_, _ any) {
		t.Error("self-observation must not route through the publisher's roles")
	})

	h.Set(f, "value", 1)
	if !reflect.DeepEqual(roles, []string{event.RoleSelf}) {
		t.Errorf("self handler ran %v", roles)
	}
}

func TestNode_EventLocksSuppress(t *testing.T) {
	h := nodetest.New(t)
	form := h.Node("form", node.WithLockable("field.click"))
	f := newField(h, "f")
	h.Attach(form, f)
	_ = form.Observe(f)

	clicks := 0
	_ = form.On("click", "field", func(_, _ any) { clicks++ })

	form.AddEventLock("click", "field")
	f.Publish("click")
	if clicks != 0 {
		t.Fatal("locked event should be suppressed")
	}
	if form.Subscriber().Pending() != 0 {
		t.Error("suppressed events must not be queued")
	}

	form.AddEventLock("click", "other")
	form.RemoveEventLock("click", "field")
	f.Publish("click")
	if clicks != 1 {
		t.Errorf("clicks = %d after unlock, want 1", clicks)
	}
	if form.HasEventLock("click", "other") {
		t.Error("other.click was never lockable")
	}
}

func TestNode_ListeningLockDefersDelivery(t *testing.T) {
	h := nodetest.New(t)
	form := h.Node("form")
	f := newField(h, "f")
	_ = form.Observe(f)

	var seen []any
	_ = form.On("change:value", "field", func(_, data any) {
		v, _ := data.(*Field).Get("value")
		seen = append(seen, v)
	})

	form.SetListeningLock(true)
	h.Set(f, "value", 1)
	h.Set(f, "value", 2)
	if len(seen) != 0 {
		t.Fatalf("locked subscriber ran handlers: %v", seen)
	}

	form.SetListeningLock(false)
	if !reflect.DeepEqual(seen, []any{2, 2}) {
		t.Errorf("seen = %v, want the payload read at delivery time twice", seen)
	}
	if form.ListeningLock() {
		t.Error("lock should be released")
	}
}

func TestNode_ObserveErrors(t *testing.T) {
	h := nodetest.New(t)
	n := h.Node("n")

	if err := n.Observe("not a node"); !errors.Is(err, node.ErrNotPublisher) {
		t.Errorf("expected ErrNotPublisher, got %v", err)
	}
	if err := n.Publisher().AddSubscriber(42); !errors.Is(err, event.ErrNotSubscriber) {
		t.Errorf("expected ErrNotSubscriber, got %v", err)
	}

	other := h.Node("other")
	_ = other.Observe(n)
	if !other.Unobserve(n) || other.Unobserve(n) {
		t.Error("Unobserve should report membership once")
	}
}

func TestNode_DefaultsAtConstruction(t *testing.T) {
	h := nodetest.New(t)
	changes := 0
	n := h.Node("n",
		node.WithAttributes("size", "label"),
		node.WithDefaults(map[string]any{"size": 10}),
		node.WithPublishChanges(),
	)
	_ = n.Observe(n)
	_ = n.On("change:size", "", func(_, _ any) { changes++ })

	if h.Get(n, "size") != 10 {
		t.Errorf("size = %v, want default 10", h.Get(n, "size"))
	}
	if h.Get(n, "label") != nil {
		t.Error("label has no default")
	}
	h.Set(n, "size", 12)
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
	if old, _ := n.Get("_old_size"); old != 10 {
		t.Errorf("_old_size = %v, want 10", old)
	}
}

func TestNode_ValidationDelegation(t *testing.T) {
	h := nodetest.New(t)
	form := h.Node("form", node.WithRules(validate.Rules{
		"name.value": {"required": map[string]any{"value": true, "messageKey": "name.required"}},
		"list.item.value": {
			"maxLength": 3,
		},
	}))
	name := newField(h, "name", node.WithRoles("name"))
	list := h.Node("list", node.WithRoles("list"))
	item := newField(h, "item", node.WithRoles("item"))
	h.Attach(form, name, list)
	h.Attach(list, item)

	if err := form.DelegateValidations(); err != nil {
		t.Fatal(err)
	}
	if !name.Validator().HasRule("value", "required") {
		t.Fatal("name field should carry the delegated rule")
	}
	if form.Validator().HasRule("name.value", "required") {
		t.Error("owner must not evaluate dotted keys")
	}

	cat := i18n.NewCatalog()
	cat.Add(language.French, map[string]string{"name.required": "nom requis"})
	form.Localize(cat.Translator("fr"))

	h.Set(item, "value", "toolong")
	ok, err := form.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("form should be invalid")
	}
	if got := name.Validator().FieldErrors("value"); !reflect.DeepEqual(got, []string{"nom requis"}) {
		t.Errorf("name errors = %v", got)
	}
	if item.Validator().Valid() {
		t.Error("item should be invalid")
	}

	h.Set(name, "value", "Ada")
	h.Set(item, "value", "ok")
	if ok, err = form.Validate(); err != nil || !ok {
		t.Errorf("Validate() = %v, %v", ok, err)
	}
}

func TestNode_OuterTypeThroughTree(t *testing.T) {
	h := nodetest.New(t)
	form := h.Node("form")
	a := newField(h, "a")
	b := newField(h, "b")
	h.Attach(form, a, b)

	got := form.FindChildrenByRole("field")
	if len(got) != 2 || got[0] != tree.Node(a) || got[1] != tree.Node(b) {
		t.Fatalf("FindChildrenByRole = %v", got)
	}

	tree.ApplyTo(form, func(f *Field) { f.clicks++ })
	if a.clicks != 1 || b.clicks != 1 {
		t.Errorf("clicks = %d, %d", a.clicks, b.clicks)
	}
	if a.Self() != tree.Node(a) || a.Parent() != tree.Node(form) {
		t.Error("self and parent should be the outer values")
	}
	if !strings.HasPrefix(a.String(), "/form/a[") {
		t.Errorf("String() = %q", a.String())
	}
}

func TestCatalog(t *testing.T) {
	h := nodetest.New(t)
	a := h.Node("a")
	b := h.Node("b")
	h.Node("a")

	if h.Catalog.Len() != 3 {
		t.Fatalf("Len() = %d", h.Catalog.Len())
	}
	if got := h.Catalog.ByID("a"); len(got) != 2 || got[0] != a {
		t.Errorf("ByID(a) = %v", got)
	}
	if n, ok := h.Catalog.Lookup(b.Key()); !ok || n != b {
		t.Error("Lookup by key failed")
	}
	if a.Key() == b.Key() {
		t.Error("keys must be unique")
	}

	h.Catalog.Forget(b)
	if _, ok := h.Catalog.Lookup(b.Key()); ok || h.Catalog.Len() != 2 {
		t.Error("Forget should remove the node")
	}

	standalone := node.New(node.WithID("x"))
	if _, ok := h.Catalog.Lookup(standalone.Key()); ok {
		t.Error("nodes built without WithCatalog are not recorded")
	}
}

func TestHarness_LogsToBuffer(t *testing.T) {
	h := nodetest.New(t)
	n := h.Node("n")
	n.CaptureEvent("nobody-listens", []string{"x"}, nil)

	if !strings.Contains(h.Log.String(), "nobody-listens") {
		t.Errorf("expected an unrouted debug line, log = %q", h.Log.String())
	}
}

func TestHarness_Discard(t *testing.T) {
	h := nodetest.New(t)
	form := h.Node("form")
	a := h.Node("a")
	b := h.Node("b")
	c := h.Node("c")
	h.Attach(form, a, b)
	h.Attach(b, c)

	h.Discard(b)

	if h.Catalog.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after discarding b and c", h.Catalog.Len())
	}
	if b.Parent() != nil || form.NumChildren() != 1 {
		t.Error("discarded node should be detached")
	}
	if got := h.Lookup(a.Key()); got != a {
		t.Errorf("Lookup(a) = %v", got)
	}
	if _, ok := h.Catalog.Lookup(c.Key()); ok {
		t.Error("descendants of a discarded node should be forgotten")
	}
}
