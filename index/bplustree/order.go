package bplustree

import (
	"bytes"
	"cmp"
	"strings"

	"golang.org/x/exp/constraints"
)

// KeyOrder is the capability a key type must supply: a total order and the
// immediate successor of a key. Successors are only used to turn the largest
// key of a leaf into an exclusive separator for its parent.
type KeyOrder[K any] interface {
	Compare(a, b K) int
	// Successor returns the smallest key strictly greater than k, or false if
	// k is the largest representable key.
	Successor(k K) (K, bool)
}

// IntegerOrder orders any integer type numerically.
type IntegerOrder[K constraints.Integer] struct{}

func (IntegerOrder[K]) Compare(a, b K) int { return cmp.Compare(a, b) }

func (IntegerOrder[K]) Successor(k K) (K, bool) {
	next := k + 1
	if next < k {
		return k, false
	}
	return next, true
}

// StringOrder orders strings lexicographically. Every string has a successor,
// namely itself followed by a NUL byte.
type StringOrder struct{}

func (StringOrder) Compare(a, b string) int { return strings.Compare(a, b) }

func (StringOrder) Successor(k string) (string, bool) { return k + "\x00", true }

// KeyCloner is implemented by key orders whose keys may share memory with
// the caller. The tree stores Clone(k) instead of k on insert.
type KeyCloner[K any] interface {
	Clone(k K) K
}

// BytesOrder orders byte slices lexicographically. Inserted keys are copied,
// so callers may reuse their buffers.
type BytesOrder struct{}

func (BytesOrder) Clone(k []byte) []byte { return bytes.Clone(k) }

func (BytesOrder) Compare(a, b []byte) int { return bytes.Compare(a, b) }

func (BytesOrder) Successor(k []byte) ([]byte, bool) {
	next := make([]byte, len(k)+1)
	copy(next, k)
	return next, true
}
