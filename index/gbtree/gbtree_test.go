package gbtree_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btree-query-bench/leafchain/index"
	"github.com/btree-query-bench/leafchain/index/gbtree"
	"github.com/btree-query-bench/leafchain/index/sortedslice"
)

func TestIndex(t *testing.T) {
	x := gbtree.New(2)
	for _, k := range []int64{5, 1, 3, 9, 7, math.MaxInt64} {
		require.NoError(t, x.Insert(k, []byte{byte(k)}))
	}
	require.NoError(t, x.Insert(3, []byte("three")))
	assert.Equal(t, 6, x.Len())

	v, err := x.Get(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("three"), v)

	require.NoError(t, x.Delete(1))
	_, err = x.Get(1)
	assert.True(t, errors.Is(err, index.ErrKeyNotFound))
	assert.True(t, errors.Is(x.Delete(1), index.ErrKeyNotFound))

	it, err := x.Range(2, 7)
	require.NoError(t, err)
	keys, _, err := index.Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 7}, keys)

	it, err = x.Range(8, math.MaxInt64)
	require.NoError(t, err)
	keys, _, err = index.Collect(it)
	require.NoError(t, err)
	assert.Equal(t, []int64{9, math.MaxInt64}, keys)

	require.NoError(t, x.Close())
	assert.Equal(t, 0, x.Len())
}

func TestDegreeFor(t *testing.T) {
	for _, tc := range []struct{ fanout, degree int }{
		{2, 2}, {4, 2}, {5, 3}, {8, 4}, {128, 64},
	} {
		assert.Equal(t, tc.degree, gbtree.DegreeFor(tc.fanout), "fanout %d", tc.fanout)
	}
}

func TestMatchesSortedSlice(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	model := sortedslice.New()
	x := gbtree.New(3)
	for op := 0; op < 2000; op++ {
		k := int64(rng.Intn(400))
		if rng.Intn(3) == 0 {
			assert.Equal(t, model.Delete(k) == nil, x.Delete(k) == nil, "delete %d", k)
			continue
		}
		v := []byte{byte(op)}
		require.NoError(t, model.Insert(k, v))
		require.NoError(t, x.Insert(k, v))
	}
	require.Equal(t, model.Len(), x.Len())

	want, err := model.Range(0, 400)
	require.NoError(t, err)
	wantKeys, wantVals, err := index.Collect(want)
	require.NoError(t, err)
	have, err := x.Range(0, 400)
	require.NoError(t, err)
	haveKeys, haveVals, err := index.Collect(have)
	require.NoError(t, err)
	assert.Equal(t, wantKeys, haveKeys)
	assert.Equal(t, wantVals, haveVals)
}
