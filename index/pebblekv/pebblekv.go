// Package pebblekv wraps Pebble (CockroachDB's LSM storage engine) behind the
// common Index interface. It is the baseline the B+tree is benchmarked
// against and the reference the tests compare it with.
package pebblekv

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/btree-query-bench/leafchain/index"
)

var _ index.Index = (*Store)(nil)

type Store struct {
	db *pebble.DB
}

// Open opens (or creates) a Pebble database at the given directory path.
func Open(dir string) (*Store, error) {
	return open(dir, nil)
}

// OpenInMemory opens a Pebble database that lives entirely in memory.
func OpenInMemory() (*Store, error) {
	return open("", vfs.NewMem())
}

func open(dir string, fs vfs.FS) (*Store, error) {
	opts := &pebble.Options{
		FS:           fs,
		MemTableSize: 16 << 20,
		// Keep 4 memtables so one can be flushed while the others are active.
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
		Levels:                      make([]pebble.LevelOptions, 7),
	}
	// Point lookups for absent keys skip tables whose filter rules them out.
	for i := range opts.Levels {
		opts.Levels[i].FilterPolicy = bloom.FilterPolicy(10)
		opts.Levels[i].FilterType = pebble.TableFilter
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrap(err, "pebblekv: open")
	}
	return &Store{db: db}, nil
}

// Close cleanly shuts down Pebble, flushing any in-memory state.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert inserts or updates the value for key.
func (s *Store) Insert(key int64, value []byte) error {
	return s.db.Set(encodeKey(key), value, pebble.NoSync)
}

// Get retrieves the value for key.
func (s *Store) Get(key int64) ([]byte, error) {
	val, closer, err := s.db.Get(encodeKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(index.ErrKeyNotFound, "get %d", key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "pebblekv: get")
	}
	defer closer.Close()
	// val is only valid until closer.Close(), so we copy it.
	return append([]byte(nil), val...), nil
}

// Delete removes the key. Pebble deletes are blind, so presence is checked
// first to match the Index contract.
func (s *Store) Delete(key int64) error {
	_, closer, err := s.db.Get(encodeKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return errors.Wrapf(index.ErrKeyNotFound, "delete %d", key)
	}
	if err != nil {
		return errors.Wrap(err, "pebblekv: delete")
	}
	closer.Close()
	if err := s.db.Delete(encodeKey(key), pebble.NoSync); err != nil {
		return errors.Wrap(err, "pebblekv: delete")
	}
	return nil
}

// Range returns an iterator over all keys in [start, end] inclusive.
func (s *Store) Range(start, end int64) (index.Iterator, error) {
	opts := &pebble.IterOptions{LowerBound: encodeKey(start)}
	if end < start {
		opts.UpperBound = encodeKey(start)
	} else if end != maxKey {
		// UpperBound is exclusive, unlike the Index contract.
		opts.UpperBound = encodeKey(end + 1)
	}
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return nil, errors.Wrap(err, "pebblekv: range")
	}
	iter.First()
	return &rangeIterator{iter: iter, first: true}, nil
}

const maxKey = int64(^uint64(0) >> 1)

// encodeKey encodes an int64 so that byte order matches numeric order:
// big-endian with the sign bit flipped.
func encodeKey(k int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k)^(1<<63))
	return b
}

func decodeKey(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

type rangeIterator struct {
	iter  *pebble.Iterator
	first bool
	key   int64
	val   []byte
	err   error
}

func (it *rangeIterator) Next() bool {
	var valid bool
	if it.first {
		// First() was already called in Range(); just check validity.
		it.first = false
		valid = it.iter.Valid()
	} else {
		valid = it.iter.Next()
	}
	if !valid {
		return false
	}
	k := it.iter.Key()
	if len(k) != 8 {
		it.err = errors.Newf("pebblekv: unexpected key length %d", len(k))
		return false
	}
	it.key = decodeKey(k)
	// Copy value; Pebble reuses the buffer on Next().
	it.val = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *rangeIterator) Key() int64    { return it.key }
func (it *rangeIterator) Value() []byte { return it.val }
func (it *rangeIterator) Error() error  { return it.err }
func (it *rangeIterator) Close() error  { return it.iter.Close() }
