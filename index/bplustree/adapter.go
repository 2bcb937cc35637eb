package bplustree

import (
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/btree-query-bench/leafchain/index"
)

var _ index.Index = (*Index)(nil)

// Index exposes a Tree[int64, []byte] through the index.Index interface.
type Index struct {
	tree *Tree[int64, []byte]
}

// NewIndex returns an empty index with the given fanout. A splitAt of zero
// keeps the default threshold of half the fanout.
func NewIndex(maxFanout, splitAt int, logger *zap.Logger) *Index {
	return &Index{
		tree: New[int64, []byte](maxFanout, IntegerOrder[int64]{},
			WithSplitThreshold(splitAt), WithLogger(logger)),
	}
}

// Tree returns the underlying tree.
func (x *Index) Tree() *Tree[int64, []byte] { return x.tree }

func (x *Index) Insert(key int64, value []byte) error {
	if key == math.MaxInt64 {
		return errors.Wrapf(index.ErrKeyOutOfRange, "insert %d", key)
	}
	x.tree.Insert(key, value)
	return nil
}

func (x *Index) Get(key int64) ([]byte, error) {
	v, ok := x.tree.Get(key)
	if !ok {
		return nil, errors.Wrapf(index.ErrKeyNotFound, "get %d", key)
	}
	return v, nil
}

func (x *Index) Delete(key int64) error {
	if !x.tree.Delete(key) {
		return errors.Wrapf(index.ErrKeyNotFound, "delete %d", key)
	}
	return nil
}

func (x *Index) Range(start, end int64) (index.Iterator, error) {
	return &rangeIterator{it: x.tree.NewIterator(start, end)}, nil
}

func (x *Index) Close() error {
	x.tree.Reset()
	return nil
}

type rangeIterator struct {
	it *Iterator[int64, []byte]
}

func (r *rangeIterator) Next() bool    { return r.it.Next() }
func (r *rangeIterator) Key() int64    { return r.it.Key() }
func (r *rangeIterator) Value() []byte { return r.it.Value() }
func (r *rangeIterator) Error() error  { return nil }
func (r *rangeIterator) Close() error  { return nil }
