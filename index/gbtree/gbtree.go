// Package gbtree adapts github.com/google/btree, a classic B-tree that keeps
// items in internal nodes and has no leaf chain, to index.Index. It is the
// B-tree the B+tree is benchmarked against.
package gbtree

import (
	"github.com/cockroachdb/errors"
	"github.com/google/btree"

	"github.com/btree-query-bench/leafchain/index"
)

var _ index.Index = (*Index)(nil)

type entry struct {
	key int64
	val []byte
}

func less(a, b entry) bool { return a.key < b.key }

type Index struct {
	tr *btree.BTreeG[entry]
}

// New returns an empty index whose nodes hold up to 2*degree-1 items.
func New(degree int) *Index {
	return &Index{tr: btree.NewG(max(degree, 2), less)}
}

// DegreeFor returns the largest degree whose node capacity does not exceed
// maxFanout, and never less than 2.
func DegreeFor(maxFanout int) int {
	return max((maxFanout+1)/2, 2)
}

func (x *Index) Len() int { return x.tr.Len() }

func (x *Index) Insert(key int64, value []byte) error {
	x.tr.ReplaceOrInsert(entry{key: key, val: value})
	return nil
}

func (x *Index) Get(key int64) ([]byte, error) {
	e, ok := x.tr.Get(entry{key: key})
	if !ok {
		return nil, errors.Wrapf(index.ErrKeyNotFound, "get %d", key)
	}
	return e.val, nil
}

func (x *Index) Delete(key int64) error {
	if _, ok := x.tr.Delete(entry{key: key}); !ok {
		return errors.Wrapf(index.ErrKeyNotFound, "delete %d", key)
	}
	return nil
}

// Range collects the entries in [start, end] up front; the B-tree has no
// cursor that survives between calls.
func (x *Index) Range(start, end int64) (index.Iterator, error) {
	it := &Iterator{cur: -1}
	x.tr.AscendGreaterOrEqual(entry{key: start}, func(e entry) bool {
		if e.key > end {
			return false
		}
		it.data = append(it.data, e)
		return true
	})
	return it, nil
}

func (x *Index) Close() error {
	x.tr.Clear(false)
	return nil
}

type Iterator struct {
	data []entry
	cur  int
}

func (it *Iterator) Next() bool {
	it.cur++
	return it.cur < len(it.data)
}

func (it *Iterator) Key() int64    { return it.data[it.cur].key }
func (it *Iterator) Value() []byte { return it.data[it.cur].val }
func (it *Iterator) Error() error  { return nil }
func (it *Iterator) Close() error  { return nil }
