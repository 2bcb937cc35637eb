package bplustree

import "iter"

// leftmost descends through first slots to the first leaf of the chain.
func (t *Tree[K, V]) leftmost() *Node[K, V] {
	n := t.root
	for n != nil && !n.IsLeaf() {
		s, ok := n.first()
		if !ok {
			return nil
		}
		n = s.child
	}
	return n
}

// seek returns the leaf from which a scan for keys >= key must start. When
// key is past every separator of a node, the scan starts in that node's last
// child and the chain carries it forward.
func (t *Tree[K, V]) seek(key K) *Node[K, V] {
	n := t.root
	for n != nil && !n.IsLeaf() {
		_, child := n.findChild(key)
		if child == nil {
			child = n.mustLast().child
		}
		n = child
	}
	return n
}

// Leaves yields every leaf along the sibling chain, empty ones included.
func (t *Tree[K, V]) Leaves() iter.Seq[*Node[K, V]] {
	return func(yield func(*Node[K, V]) bool) {
		for n := t.leftmost(); n != nil; n = n.next {
			if !yield(n) {
				return
			}
		}
	}
}

// Scan yields every entry in ascending key order by walking the leaf chain.
// The walk starts from the root each time the sequence is ranged over.
func (t *Tree[K, V]) Scan() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for n := range t.Leaves() {
			for _, s := range n.slots {
				if !yield(s.key, s.value) {
					return
				}
			}
		}
	}
}

// Range yields the entries with lo <= key <= hi in ascending key order.
func (t *Tree[K, V]) Range(lo, hi K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it := t.NewIterator(lo, hi)
		for it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Iterator walks a closed key range along the leaf chain. It must not be
// used after the tree is modified.
type Iterator[K, V any] struct {
	cmp    func(a, b K) int
	curr   *Node[K, V]
	i      int
	lo, hi K
	key    K
	val    V
}

// NewIterator returns an iterator positioned before the first key >= lo.
func (t *Tree[K, V]) NewIterator(lo, hi K) *Iterator[K, V] {
	return &Iterator[K, V]{
		cmp:  t.td.order.Compare,
		curr: t.seek(lo),
		lo:   lo,
		hi:   hi,
	}
}

// Next advances to the next entry in range and reports whether there is one.
func (it *Iterator[K, V]) Next() bool {
	for it.curr != nil {
		for it.i < len(it.curr.slots) {
			s := it.curr.slots[it.i]
			if it.cmp(s.key, it.hi) > 0 {
				it.curr = nil
				return false
			}
			it.i++
			if it.cmp(s.key, it.lo) >= 0 {
				it.key, it.val = s.key, s.value
				return true
			}
		}
		// Follow the leaf chain
		it.curr = it.curr.next
		it.i = 0
	}
	return false
}

func (it *Iterator[K, V]) Key() K   { return it.key }
func (it *Iterator[K, V]) Value() V { return it.val }
