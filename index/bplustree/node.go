package bplustree

import (
	"iter"
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Kind tags a node as a leaf or an internal node. It never changes after the
// node is created.
type Kind uint8

const (
	Internal Kind = iota
	Leaf
)

func (k Kind) String() string {
	if k == Leaf {
		return "leaf"
	}
	return "internal"
}

// treeData is shared by every node of one tree.
type treeData[K any] struct {
	order   KeyOrder[K]
	clone   func(K) K // nil unless order is a KeyCloner
	max     int
	splitAt int
	logger  *zap.Logger
}

func (td *treeData[K]) successor(k K) K {
	next, ok := td.order.Successor(k)
	if !ok {
		panic(errors.AssertionFailedf("bplustree: key %v has no successor", k))
	}
	return next
}

// Node is a bounded, key-ordered set of slots. Leaves hold values and are
// linked in ascending key order through next; internal nodes hold one slot
// per child, keyed by an exclusive upper bound on the keys below that child.
type Node[K, V any] struct {
	kind   Kind
	slots  []Slot[K, V]
	next   *Node[K, V] // not owned; always nil for internal nodes
	isRoot bool
	td     *treeData[K]
}

func newNode[K, V any](td *treeData[K], kind Kind) *Node[K, V] {
	return &Node[K, V]{
		kind:  kind,
		slots: make([]Slot[K, V], 0, td.max),
		td:    td,
	}
}

func (n *Node[K, V]) Kind() Kind   { return n.kind }
func (n *Node[K, V]) IsLeaf() bool { return n.kind == Leaf }
func (n *Node[K, V]) IsRoot() bool { return n.isRoot }
func (n *Node[K, V]) Len() int     { return len(n.slots) }

// Next returns the following leaf in key order, or nil for the rightmost leaf
// and for internal nodes.
func (n *Node[K, V]) Next() *Node[K, V] { return n.next }

// All yields the node's slots in ascending key order.
func (n *Node[K, V]) All() iter.Seq[Slot[K, V]] {
	return func(yield func(Slot[K, V]) bool) {
		for _, s := range n.slots {
			if !yield(s) {
				return
			}
		}
	}
}

func (n *Node[K, V]) find(key K) (int, bool) {
	return slices.BinarySearchFunc(n.slots, key, func(s Slot[K, V], k K) int {
		return n.td.order.Compare(s.key, k)
	})
}

// almostFull reports whether the node must be split before the next insert
// passes through it. The threshold defaults to half the fanout, so a node
// never overflows while it is being split.
func (n *Node[K, V]) almostFull() bool {
	return len(n.slots) >= n.td.splitAt
}

// split moves the upper half of the slots, starting at the median index, to a
// new sibling of the same kind and returns it. A new leaf is spliced into the
// chain directly after n.
func (n *Node[K, V]) split() *Node[K, V] {
	if len(n.slots) < 2 {
		panic(errors.AssertionFailedf("bplustree: split of %s node with %d slots", n.kind, len(n.slots)))
	}
	mid := len(n.slots) / 2

	sibling := newNode[K, V](n.td, n.kind)
	sibling.slots = append(sibling.slots, n.slots[mid:]...)
	clear(n.slots[mid:])
	n.slots = n.slots[:mid]

	if n.IsLeaf() {
		sibling.next = n.next
		n.next = sibling
	}

	if ce := n.td.logger.Check(zap.DebugLevel, "split"); ce != nil {
		ce.Write(
			zap.Stringer("kind", n.kind),
			zap.Int("kept", len(n.slots)),
			zap.Int("moved", len(sibling.slots)),
		)
	}
	return sibling
}

// findChild returns the position and child of the first slot whose key is
// strictly greater than key. It returns -1 and nil for leaves and when key is
// at or past every separator.
func (n *Node[K, V]) findChild(key K) (int, *Node[K, V]) {
	if n.IsLeaf() {
		return -1, nil
	}
	i := sort.Search(len(n.slots), func(i int) bool {
		return n.td.order.Compare(n.slots[i].key, key) > 0
	})
	if i == len(n.slots) {
		return -1, nil
	}
	return i, n.slots[i].child
}

// insert adds s unless a slot with the same key is present.
func (n *Node[K, V]) insert(s Slot[K, V]) bool {
	i, found := n.find(s.key)
	if found {
		return false
	}
	n.slots = slices.Insert(n.slots, i, s)
	return true
}

// replace stores s, returning the slot it evicted, if any.
func (n *Node[K, V]) replace(s Slot[K, V]) (old Slot[K, V], replaced bool) {
	i, found := n.find(s.key)
	if found {
		old = n.slots[i]
		n.slots[i] = s
		return old, true
	}
	n.slots = slices.Insert(n.slots, i, s)
	return old, false
}

// delete removes the slot with the given key. Only leaves hold deletable
// entries; separators are never removed by deletion.
func (n *Node[K, V]) delete(key K) bool {
	if !n.IsLeaf() {
		panic(errors.AssertionFailedf("bplustree: delete on internal node"))
	}
	i, found := n.find(key)
	if !found {
		return false
	}
	n.removeAt(i)
	return true
}

func (n *Node[K, V]) removeAt(i int) Slot[K, V] {
	s := n.slots[i]
	n.slots = slices.Delete(n.slots, i, i+1)
	return s
}

func (n *Node[K, V]) get(key K) (Slot[K, V], bool) {
	i, found := n.find(key)
	if !found {
		var zero Slot[K, V]
		return zero, false
	}
	return n.slots[i], true
}

func (n *Node[K, V]) first() (Slot[K, V], bool) {
	if len(n.slots) == 0 {
		var zero Slot[K, V]
		return zero, false
	}
	return n.slots[0], true
}

func (n *Node[K, V]) last() (Slot[K, V], bool) {
	if len(n.slots) == 0 {
		var zero Slot[K, V]
		return zero, false
	}
	return n.slots[len(n.slots)-1], true
}

// mustLast is last for callers that rely on the node being non-empty.
func (n *Node[K, V]) mustLast() Slot[K, V] {
	s, ok := n.last()
	if !ok {
		panic(errors.AssertionFailedf("bplustree: %s node has no last slot", n.kind))
	}
	return s
}

// bound returns the exclusive upper bound a parent stores for n: the
// successor of the largest key for a leaf, or the largest separator, which is
// already exclusive, for an internal node.
func (n *Node[K, V]) bound() K {
	last := n.mustLast()
	if n.IsLeaf() {
		return n.td.successor(last.key)
	}
	return last.key
}
