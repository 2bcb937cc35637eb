package bplustree

import (
	"github.com/cockroachdb/errors"
)

// Stats describes the shape of a tree.
type Stats struct {
	Height      int
	Entries     int
	Leaves      int
	EmptyLeaves int
	Internals   int
	// Fill is the mean number of slots per node divided by the fanout.
	Fill float64
}

// Stats walks the tree through the ownership edges and summarizes its shape.
func (t *Tree[K, V]) Stats() Stats {
	st := Stats{Height: t.Height(), Entries: t.length}
	slots := 0
	var walk func(n *Node[K, V])
	walk = func(n *Node[K, V]) {
		slots += len(n.slots)
		if n.IsLeaf() {
			st.Leaves++
			if len(n.slots) == 0 {
				st.EmptyLeaves++
			}
			return
		}
		st.Internals++
		for _, s := range n.slots {
			walk(s.child)
		}
	}
	if t.root != nil {
		walk(t.root)
	}
	if nodes := st.Leaves + st.Internals; nodes > 0 {
		st.Fill = float64(slots) / float64(nodes*t.td.max)
	}
	return st
}

// Check verifies the structural invariants of the tree and returns the first
// violation found:
//
//   - slots are strictly ascending and never exceed the fanout;
//   - every key below an internal slot is below that slot's key and at or
//     above the previous slot's key;
//   - internal nodes are non-empty and have no sibling link;
//   - all leaves sit at the same depth;
//   - the leaf chain visits exactly the leaves of the tree, in order, once;
//   - only the root carries the root flag and Len matches the entry count.
func (t *Tree[K, V]) Check() error {
	if t.root == nil {
		if t.length != 0 {
			return errors.Newf("no root but length %d", t.length)
		}
		return nil
	}
	if !t.root.isRoot {
		return errors.New("root node is not flagged as root")
	}

	c := checker[K, V]{t: t, leafDepth: -1}
	if err := c.node(t.root, 0, nil, nil); err != nil {
		return err
	}
	if c.entries != t.length {
		return errors.Newf("length %d but %d entries stored", t.length, c.entries)
	}

	i := 0
	for n := range t.Leaves() {
		if i >= len(c.leaves) {
			return errors.Newf("leaf chain is longer than the %d leaves in the tree", len(c.leaves))
		}
		if n != c.leaves[i] {
			return errors.Newf("leaf chain position %d does not match tree order", i)
		}
		i++
	}
	if i != len(c.leaves) {
		return errors.Newf("leaf chain visits %d of %d leaves", i, len(c.leaves))
	}
	return nil
}

type checker[K, V any] struct {
	t         *Tree[K, V]
	leafDepth int
	leaves    []*Node[K, V]
	entries   int
}

// node checks the subtree rooted at n, whose keys must lie in [lo, hi). A nil
// bound is unbounded.
func (c *checker[K, V]) node(n *Node[K, V], depth int, lo, hi *K) error {
	cmp := c.t.td.order.Compare
	if n != c.t.root && n.isRoot {
		return errors.New("non-root node flagged as root")
	}
	if len(n.slots) > c.t.td.max {
		return errors.Newf("%s node holds %d slots, fanout is %d", n.kind, len(n.slots), c.t.td.max)
	}
	for i := 1; i < len(n.slots); i++ {
		if cmp(n.slots[i-1].key, n.slots[i].key) >= 0 {
			return errors.Newf("%s node keys out of order at %d: %v >= %v",
				n.kind, i, n.slots[i-1].key, n.slots[i].key)
		}
	}

	if n.IsLeaf() {
		if c.leafDepth == -1 {
			c.leafDepth = depth
		} else if depth != c.leafDepth {
			return errors.Newf("leaf at depth %d, expected %d", depth, c.leafDepth)
		}
		for _, s := range n.slots {
			if !s.IsLeaf() {
				return errors.Newf("leaf holds internal slot %v", s.key)
			}
			if lo != nil && cmp(s.key, *lo) < 0 {
				return errors.Newf("key %v below lower bound %v", s.key, *lo)
			}
			if hi != nil && cmp(s.key, *hi) >= 0 {
				return errors.Newf("key %v not below separator %v", s.key, *hi)
			}
		}
		c.leaves = append(c.leaves, n)
		c.entries += len(n.slots)
		return nil
	}

	if len(n.slots) == 0 {
		return errors.New("internal node without children")
	}
	if n.next != nil {
		return errors.New("internal node has a sibling link")
	}
	prev := lo
	for i := range n.slots {
		s := n.slots[i]
		if s.IsLeaf() {
			return errors.Newf("internal node holds leaf slot %v", s.key)
		}
		if err := c.node(s.child, depth+1, prev, &s.key); err != nil {
			return errors.Wrapf(err, "below separator %v", s.key)
		}
		prev = &n.slots[i].key
	}
	return nil
}
