package event

import (
	"sort"

	"github.com/dshills/nodekit/internal/rolepath"
)

// LockSet tracks which events a node currently suppresses. Only names
// allowed with AllowLock can be locked.
//
// Names are qualified by the publisher role they come from: "<role>.<name>"
// for a peer role, bare "<name>" for RoleSelf.
type LockSet struct {
	lockable map[string]struct{}
	locks    map[string]struct{}
}

// NewLockSet creates a lock set allowing the given qualified names.
func NewLockSet(lockable ...string) *LockSet {
	l := &LockSet{
		lockable: make(map[string]struct{}),
		locks:    make(map[string]struct{}),
	}
	l.AllowLock(lockable...)
	return l
}

// AllowLock makes names eligible for locking. Each name may be a
// comma-joined group.
func (l *LockSet) AllowLock(names ...string) {
	for _, group := range names {
		for _, name := range rolepath.SplitRoles(group) {
			l.lockable[name] = struct{}{}
		}
	}
}

// Lockable reports whether the qualified name may be locked.
func (l *LockSet) Lockable(qualified string) bool {
	_, ok := l.lockable[qualified]
	return ok
}

// QualifiedNames expands name for each publisher role. With no roles, or
// for RoleSelf, the bare name is used.
func QualifiedNames(name string, publisherRoles ...string) []string {
	if len(publisherRoles) == 0 {
		return []string{name}
	}
	out := make([]string, 0, len(publisherRoles))
	for _, role := range publisherRoles {
		if role == RoleSelf || role == "" {
			out = append(out, name)
			continue
		}
		out = append(out, role+rolepath.Separator+name)
	}
	return out
}

// AddEventLock locks name for each publisher role. Qualified names that
// were never allowed are ignored.
func (l *LockSet) AddEventLock(name string, publisherRoles ...string) {
	for _, q := range QualifiedNames(name, publisherRoles...) {
		if l.Lockable(q) {
			l.locks[q] = struct{}{}
		}
	}
}

// RemoveEventLock unlocks name for each publisher role.
func (l *LockSet) RemoveEventLock(name string, publisherRoles ...string) {
	for _, q := range QualifiedNames(name, publisherRoles...) {
		delete(l.locks, q)
	}
}

// HasEventLock reports whether name is locked for any of the publisher
// roles.
func (l *LockSet) HasEventLock(name string, publisherRoles ...string) bool {
	for _, q := range QualifiedNames(name, publisherRoles...) {
		if _, ok := l.locks[q]; ok {
			return true
		}
	}
	return false
}

// Locks returns the active locks in sorted order.
func (l *LockSet) Locks() []string {
	out := make([]string, 0, len(l.locks))
	for q := range l.locks {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Clear releases every lock.
func (l *LockSet) Clear() {
	clear(l.locks)
}
