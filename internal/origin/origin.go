// internal/origin/origin.go
// Package origin attaches hidden values to objects by identity.
//
// A Tag never touches the object it describes: the association lives in a
// side table keyed by the object's pointer, so the object's fields and its
// JSON encoding stay exactly as they were. Two objects with identical
// contents are still told apart.
package origin

import (
	"reflect"
	"sync"
)

type Tag[V any] struct {
	mu      sync.Mutex
	entries map[any]V
}

func New[V any]() *Tag[V] {
	return &Tag[V]{entries: make(map[any]V)}
}

// Set associates value with object. Only non-nil pointers to values of
// non-zero size can be tagged, since other values have no stable identity;
// Set reports whether the association was made.
func (t *Tag[V]) Set(object any, value V) bool {
	if !addressable(object) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[object] = value
	return true
}

// Get returns the value associated with object.
func (t *Tag[V]) Get(object any) (V, bool) {
	var zero V
	if !addressable(object) {
		return zero, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[object]
	return v, ok
}

func (t *Tag[V]) Delete(object any) {
	if !addressable(object) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, object)
}

func (t *Tag[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Pointers to zero-size values may share an address.
func addressable(object any) bool {
	v := reflect.ValueOf(object)
	return v.Kind() == reflect.Pointer && !v.IsNil() && v.Type().Elem().Size() > 0
}
