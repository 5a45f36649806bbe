package mq

import (
	"reflect"
	"strings"
	"sync"
)

// Owner identifies whoever registered a binding, so that one module cannot remove another's bindings.
// Owners are compared with ==, so they should be pointers or plain comparable values.
// An owner whose dynamic type is not comparable never matches, not even itself.
type Owner interface {
	Name() string
}

// builtinOwner the owner of engines which are linked into the binary.
type builtinOwner struct{}

// Name implements Owner.
func (builtinOwner) Name() string { return "builtin" }

// Builtin the Owner used for engines which are linked into the binary rather than loaded as plugins.
var Builtin Owner = builtinOwner{}

// binding associates a scheme with a constructor and the owner which registered it.
// a binding with a nil constructor is a tombstone left by an unregister.
type binding struct {
	scheme      string
	constructor Constructor
	owner       Owner
}

// active whether the slot currently holds a registration.
func (b *binding) active() bool { return b.constructor != nil }

// clear tombstones the slot so it can be reused.
func (b *binding) clear() { *b = binding{} }

// Registry maps URI schemes to engine constructors, it is safe for concurrent use.
//
// Resolution only takes a read lock, so many connections can be opened in parallel,
// while registering and unregistering are exclusive.
type Registry struct {
	mu       sync.RWMutex
	bindings []binding
}

// NewRegistry creates a new, empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register binds scheme to c on behalf of owner.
// If scheme is already bound, the existing binding is replaced in place, keeping its position.
// Otherwise the first free slot is reused, or a new one is appended.
func (r *Registry) Register(scheme string, c Constructor, owner Owner) {
	r.swap(scheme, c, owner)
}

// swap registers like Register, returning the binding it replaced if scheme was already bound.
func (r *Registry) swap(scheme string, c Constructor, owner Owner) (binding, bool) {
	if c == nil {
		return binding{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swapLocked(scheme, c, owner)
}

// restore registers b again unless its scheme has been bound since.
func (r *Registry) restore(b binding) bool {
	if !b.active() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bindings {
		if r.bindings[i].active() && r.bindings[i].scheme == b.scheme {
			return false
		}
	}

	r.swapLocked(b.scheme, b.constructor, b.owner)
	return true
}

// swapLocked does the work of swap, r.mu must be held.
func (r *Registry) swapLocked(scheme string, c Constructor, owner Owner) (binding, bool) {
	free := -1
	for i := range r.bindings {
		b := &r.bindings[i]
		if !b.active() {
			if free < 0 {
				free = i
			}
			continue
		}
		if b.scheme == scheme {
			prev := *b
			b.constructor, b.owner = c, owner
			return prev, true
		}
	}

	nb := binding{scheme: scheme, constructor: c, owner: owner}
	if free >= 0 {
		r.bindings[free] = nb
		return binding{}, false
	}

	r.bindings = append(r.bindings, nb)
	return binding{}, false
}

// Unregister removes the binding for scheme only if it was registered by owner.
// It returns whether a binding was removed.
func (r *Registry) Unregister(scheme string, owner Owner) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.bindings {
		b := &r.bindings[i]
		if b.active() && b.scheme == scheme && sameOwner(b.owner, owner) {
			b.clear()
			return true
		}
	}

	return false
}

// UnregisterConstructor removes every binding to c, returning how many were removed.
func (r *Registry) UnregisterConstructor(c Constructor) int {
	return r.unregisterWhere(func(b *binding) bool { return b.constructor == c })
}

// UnregisterOwner removes every binding registered by owner, returning how many were removed.
func (r *Registry) UnregisterOwner(owner Owner) int {
	return r.unregisterWhere(func(b *binding) bool { return sameOwner(b.owner, owner) })
}

// unregisterWhere tombstones every active binding matching fn.
func (r *Registry) unregisterWhere(fn func(b *binding) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for i := range r.bindings {
		b := &r.bindings[i]
		if b.active() && fn(b) {
			b.clear()
			n++
		}
	}

	return n
}

// Resolve returns the constructor for the first binding, in registration order, whose scheme
// followed by a colon prefixes uri. The first match wins, not the longest, so overlapping
// schemes such as "db" and "db:replica" resolve to whichever occupies the earlier slot.
func (r *Registry) Resolve(uri string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.bindings {
		b := &r.bindings[i]
		if b.active() && matchScheme(b.scheme, uri) {
			return b.constructor, nil
		}
	}

	return nil, ErrNoMatchingEngine
}

// Schemes returns the registered schemes in resolution order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.bindings))
	for i := range r.bindings {
		if r.bindings[i].active() {
			schemes = append(schemes, r.bindings[i].scheme)
		}
	}

	return schemes
}

// matchScheme whether uri starts with scheme immediately followed by a colon.
func matchScheme(scheme, uri string) bool {
	return len(uri) > len(scheme) && strings.HasPrefix(uri, scheme) && uri[len(scheme)] == ':'
}

// sameOwner compares owners without panicking on non-comparable dynamic types.
func sameOwner(a, b Owner) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}
