// Package sortedslice is an ordered index kept in one sorted slice. It is the
// simplest correct implementation of index.Index and serves as a baseline and
// a reference model for the tree.
package sortedslice

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/btree-query-bench/leafchain/index"
)

var _ index.Index = (*Index)(nil)

type Entry struct {
	Key int64
	Val []byte
}

type Index struct {
	entries []Entry
}

func New() *Index {
	return &Index{}
}

func (x *Index) find(key int64) (int, bool) {
	return slices.BinarySearchFunc(x.entries, key, func(e Entry, k int64) int {
		return cmp.Compare(e.Key, k)
	})
}

func (x *Index) Len() int { return len(x.entries) }

func (x *Index) Insert(key int64, value []byte) error {
	i, found := x.find(key)
	if found {
		x.entries[i].Val = value
		return nil
	}
	x.entries = slices.Insert(x.entries, i, Entry{Key: key, Val: value})
	return nil
}

func (x *Index) Get(key int64) ([]byte, error) {
	i, found := x.find(key)
	if !found {
		return nil, errors.Wrapf(index.ErrKeyNotFound, "get %d", key)
	}
	return x.entries[i].Val, nil
}

func (x *Index) Delete(key int64) error {
	i, found := x.find(key)
	if !found {
		return errors.Wrapf(index.ErrKeyNotFound, "delete %d", key)
	}
	x.entries = slices.Delete(x.entries, i, i+1)
	return nil
}

func (x *Index) Range(start, end int64) (index.Iterator, error) {
	lo, _ := x.find(start)
	hi := lo
	for hi < len(x.entries) && x.entries[hi].Key <= end {
		hi++
	}
	return &Iterator{data: x.entries[lo:hi], cur: -1}, nil
}

func (x *Index) Close() error {
	x.entries = nil
	return nil
}

// Iterator walks a snapshot of the slice taken when Range was called.
type Iterator struct {
	data []Entry
	cur  int
}

func (it *Iterator) Next() bool {
	it.cur++
	return it.cur < len(it.data)
}

func (it *Iterator) Key() int64    { return it.data[it.cur].Key }
func (it *Iterator) Value() []byte { return it.data[it.cur].Val }
func (it *Iterator) Error() error  { return nil }
func (it *Iterator) Close() error  { return nil }
