// Package bplustree implements an in-memory B+tree: an ordered key/value
// index with point lookup, upsert, deletion and in-order scans over a linked
// list of leaves.
//
// Internal nodes store one slot per child, keyed by an exclusive upper bound
// on the keys reachable through that child. A lookup for k follows the first
// slot whose key is strictly greater than k. Bounds for leaves are derived
// from the largest stored key through KeyOrder.Successor.
//
// Nodes are split on the way down, as soon as they are half full, so an
// insert never has to handle an overflowing node. Deletion only removes the
// entry from its leaf: nodes are never merged, empty leaves stay in the
// chain, and separators may become loose but remain valid upper bounds.
//
// A Tree is not safe for concurrent use.
package bplustree

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Tree owns the root node and the fanout shared by every node.
type Tree[K, V any] struct {
	root   *Node[K, V]
	length int
	td     *treeData[K]
}

// New returns an empty tree whose nodes hold at most maxFanout slots. It
// panics if maxFanout is below 2 or order is nil.
func New[K, V any](maxFanout int, order KeyOrder[K], opts ...Option) *Tree[K, V] {
	if maxFanout < 2 {
		panic(errors.Newf("bplustree: fanout %d is below the minimum of 2", maxFanout))
	}
	if order == nil {
		panic(errors.New("bplustree: nil key order"))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	td := &treeData[K]{
		order:   order,
		max:     maxFanout,
		splitAt: splitThreshold(maxFanout, o.splitAt),
		logger:  o.logger,
	}
	if c, ok := order.(KeyCloner[K]); ok {
		td.clone = c.Clone
	}
	return &Tree[K, V]{td: td}
}

// Max returns the fanout.
func (t *Tree[K, V]) Max() int { return t.td.max }

// SplitThreshold returns the effective slot count that makes a node split.
func (t *Tree[K, V]) SplitThreshold() int { return t.td.splitAt }

// Len returns the number of entries in the tree.
func (t *Tree[K, V]) Len() int { return t.length }

// Root returns the root node, or nil before the first insert.
func (t *Tree[K, V]) Root() *Node[K, V] { return t.root }

// Height returns the number of levels, 0 for a tree without a root.
func (t *Tree[K, V]) Height() int {
	h := 0
	for n := t.root; n != nil; h++ {
		if n.IsLeaf() {
			return h + 1
		}
		s, _ := n.first()
		n = s.child
	}
	return h
}

// Reset drops every node. Nodes are owned only through the root, so releasing
// it releases the whole tree, leaf chain included.
func (t *Tree[K, V]) Reset() {
	t.root = nil
	t.length = 0
}

// Insert stores value under key, replacing any value already stored there.
// It panics if key has no successor in the key order.
func (t *Tree[K, V]) Insert(key K, value V) {
	t.InsertSlot(LeafSlot(key, value))
}

// InsertSlot is Insert for a prepared slot. It panics on internal slots.
func (t *Tree[K, V]) InsertSlot(entry Slot[K, V]) {
	if !entry.IsLeaf() {
		panic(errors.AssertionFailedf("bplustree: insert of internal slot %v", entry.key))
	}
	if _, ok := t.td.order.Successor(entry.key); !ok {
		panic(errors.Newf("bplustree: key %v leaves no headroom for a separator", entry.key))
	}
	if t.td.clone != nil {
		entry.key = t.td.clone(entry.key)
	}

	if t.root == nil {
		t.root = newNode[K, V](t.td, Leaf)
		t.root.isRoot = true
	}

	sibling, replaced := t.insert(t.root, entry)
	if !replaced {
		t.length++
	}
	if sibling == nil {
		return
	}

	old := t.root
	old.isRoot = false
	root := newNode[K, V](t.td, Internal)
	root.isRoot = true
	root.insert(internalSlot(old.bound(), old))
	if !root.insert(internalSlot(sibling.bound(), sibling)) {
		panic(errors.AssertionFailedf("bplustree: root separators collide at %v", sibling.bound()))
	}
	t.root = root

	if ce := t.td.logger.Check(zap.DebugLevel, "root split"); ce != nil {
		ce.Write(zap.Int("height", t.Height()))
	}
}

// insert stores entry in the subtree rooted at n. If n had to be split it
// returns the new sibling holding n's upper half; the caller then owes both
// halves a separator. replaced reports whether an existing key was
// overwritten.
func (t *Tree[K, V]) insert(n *Node[K, V], entry Slot[K, V]) (sibling *Node[K, V], replaced bool) {
	target := n
	if n.almostFull() {
		sibling = n.split()
		if t.pastBoundary(n, entry.key) {
			target = sibling
		}
	}

	if target.IsLeaf() {
		_, replaced = target.replace(entry)
		return sibling, replaced
	}

	i, child := target.findChild(entry.key)
	if child == nil {
		// Every separator is at or below the key: raise the last one so that
		// the last child covers it.
		i = len(target.slots) - 1
		if i < 0 {
			panic(errors.AssertionFailedf("bplustree: internal node without children"))
		}
		child = target.slots[i].child
		target.slots[i].key = t.td.successor(entry.key)
	}

	childSibling, replaced := t.insert(child, entry)
	if childSibling != nil {
		t.adopt(target, i, child, childSibling)
	}
	return sibling, replaced
}

// pastBoundary reports whether key belongs to the sibling split off n. For a
// leaf that is any key above n's largest key; for an internal node any key at
// or above its largest separator, which is the bound its parent will store.
func (t *Tree[K, V]) pastBoundary(n *Node[K, V], key K) bool {
	c := t.td.order.Compare(key, n.mustLast().key)
	if n.IsLeaf() {
		return c > 0
	}
	return c >= 0
}

// adopt repairs n after its child at position i split into child and
// sibling: the stale separator is replaced by fresh bounds for both halves.
func (t *Tree[K, V]) adopt(n *Node[K, V], i int, child, sibling *Node[K, V]) {
	if n.slots[i].child != child {
		panic(errors.AssertionFailedf("bplustree: separator %d does not route to the split child", i))
	}
	n.removeAt(i)
	for _, c := range []*Node[K, V]{child, sibling} {
		if evicted, ok := n.replace(internalSlot(c.bound(), c)); ok {
			panic(errors.AssertionFailedf("bplustree: separator %v evicted by a split", evicted.key))
		}
	}
}

// Get returns the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	var zero V
	n := t.leafFor(key)
	if n == nil {
		return zero, false
	}
	s, ok := n.get(key)
	if !ok {
		return zero, false
	}
	return s.value, true
}

// Delete removes key from its leaf and reports whether it was present. The
// tree is not rebalanced.
func (t *Tree[K, V]) Delete(key K) bool {
	n := t.leafFor(key)
	if n == nil || !n.delete(key) {
		return false
	}
	t.length--
	return true
}

// leafFor returns the leaf that holds key if it is stored, or nil when the
// routing shows it cannot be present.
func (t *Tree[K, V]) leafFor(key K) *Node[K, V] {
	n := t.root
	for n != nil && !n.IsLeaf() {
		_, n = n.findChild(key)
	}
	return n
}
