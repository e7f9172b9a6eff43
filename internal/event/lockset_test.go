package event

import (
	"reflect"
	"testing"
)

func TestLockSet_Whitelist(t *testing.T) {
	l := NewLockSet("click")

	l.AddEventLock("click")
	if !l.HasEventLock("click") {
		t.Error("click should be locked")
	}

	l.AddEventLock("submit")
	if l.HasEventLock("submit") {
		t.Error("submit is not lockable and must be ignored")
	}
}

func TestLockSet_QualifiedByRole(t *testing.T) {
	l := NewLockSet("button.click,list.click", "change")

	l.AddEventLock("click", "button", "menu")
	if !l.HasEventLock("click", "button") {
		t.Error("button.click should be locked")
	}
	if l.HasEventLock("click", "menu") {
		t.Error("menu.click is not lockable")
	}
	if l.HasEventLock("click") {
		t.Error("bare click was never locked")
	}

	l.AddEventLock("change", RoleSelf)
	if !l.HasEventLock("change") {
		t.Error("#self should lock the bare name")
	}

	if got := l.Locks(); !reflect.DeepEqual(got, []string{"button.click", "change"}) {
		t.Errorf("Locks() = %v", got)
	}
}

func TestLockSet_RemoveIsUnconditional(t *testing.T) {
	l := NewLockSet("list.click")
	l.AddEventLock("click", "list")

	l.RemoveEventLock("click", "list")
	if l.HasEventLock("click", "list") {
		t.Error("lock should be removed")
	}
	l.RemoveEventLock("never-allowed")

	l.AddEventLock("click", "list")
	l.Clear()
	if len(l.Locks()) != 0 {
		t.Error("Clear should release every lock")
	}
}

func TestLockSet_HasEventLockAnyRole(t *testing.T) {
	l := NewLockSet("a.tick", "b.tick")
	l.AddEventLock("tick", "b")

	if !l.HasEventLock("tick", "a", "b") {
		t.Error("expected lock to be found through any listed role")
	}
	if l.HasEventLock("tick", "a") {
		t.Error("a.tick is not locked")
	}
}

func TestQualifiedNames(t *testing.T) {
	tests := []struct {
		roles []string
		want  []string
	}{
		{nil, []string{"click"}},
		{[]string{RoleSelf}, []string{"click"}},
		{[]string{"a", "b"}, []string{"a.click", "b.click"}},
		{[]string{"a", RoleSelf}, []string{"a.click", "click"}},
	}
	for _, tt := range tests {
		if got := QualifiedNames("click", tt.roles...); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QualifiedNames(click, %v) = %v, want %v", tt.roles, got, tt.want)
		}
	}
}
