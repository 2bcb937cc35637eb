// Package index defines the interface shared by every ordered index in this
// module, so the benchmark harness and the tests can drive them uniformly.
package index

import "github.com/cockroachdb/errors"

var (
	// ErrKeyNotFound is returned by Get and Delete when the key is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyOutOfRange is returned by Insert for keys the index cannot bound.
	ErrKeyOutOfRange = errors.New("key out of range")
)

// Index is the common interface for all implementations.
type Index interface {
	Insert(key int64, value []byte) error
	Get(key int64) ([]byte, error)
	Delete(key int64) error
	// Range returns the entries with start <= key <= end in ascending order.
	Range(start, end int64) (Iterator, error)
	Close() error
}

// Iterator allows scanning over a range of key-value pairs.
type Iterator interface {
	Next() bool
	Key() int64
	Value() []byte
	Error() error
	Close() error
}

// Collect drains it into parallel key and value slices and closes it.
func Collect(it Iterator) (keys []int64, values [][]byte, err error) {
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()
	for it.Next() {
		keys = append(keys, it.Key())
		values = append(values, it.Value())
	}
	return keys, values, it.Error()
}
