package bplustree

import "fmt"

// Slot pairs a key with either a value (leaf slot) or a child node (internal
// slot). Slots are ordered and identified by key alone, so storing a slot
// whose key is already present replaces the old payload.
type Slot[K, V any] struct {
	key   K
	value V
	child *Node[K, V]
}

// LeafSlot returns a slot carrying a value.
func LeafSlot[K, V any](key K, value V) Slot[K, V] {
	return Slot[K, V]{key: key, value: value}
}

func internalSlot[K, V any](key K, child *Node[K, V]) Slot[K, V] {
	if child == nil {
		panic("bplustree: internal slot without a child")
	}
	return Slot[K, V]{key: key, child: child}
}

// IsLeaf reports whether the slot carries a value rather than a child.
func (s Slot[K, V]) IsLeaf() bool { return s.child == nil }

func (s Slot[K, V]) Key() K { return s.key }

// Value returns the slot's value. It is the zero value for internal slots.
func (s Slot[K, V]) Value() V { return s.value }

// Child returns the child node of an internal slot, or nil for a leaf slot.
func (s Slot[K, V]) Child() *Node[K, V] { return s.child }

func (s Slot[K, V]) String() string {
	if s.IsLeaf() {
		return fmt.Sprintf("%v:%v", s.key, s.value)
	}
	return fmt.Sprintf("%v:->%p", s.key, s.child)
}
