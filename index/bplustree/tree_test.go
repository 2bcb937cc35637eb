package bplustree

import (
	"iter"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type kv struct {
	k, v int
}

// shuffledInserts returns (key, key+10) for every key in [lo, hi) in random
// order.
func shuffledInserts(rng *rand.Rand, lo, hi int) []kv {
	out := make([]kv, 0, hi-lo)
	for _, i := range rng.Perm(hi - lo) {
		out = append(out, kv{k: lo + i, v: lo + i + 10})
	}
	return out
}

func newIntTree(t *testing.T, max int, opts ...Option) *Tree[int, int] {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return New[int, int](max, IntegerOrder[int]{}, opts...)
}

func requireGet(t *testing.T, tree *Tree[int, int], k, want int) {
	t.Helper()
	have, ok := tree.Get(k)
	require.True(t, ok, "could not find %d", k)
	require.Equal(t, want, have, "key %d", k)
}

func TestTreeInsertDeleteReinsert(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tree := newIntTree(t, 8)

	inserts := shuffledInserts(rng, 0, 50)
	for _, e := range inserts {
		tree.Insert(e.k, e.v)
	}
	require.NoError(t, tree.Check())
	for _, e := range inserts {
		requireGet(t, tree, e.k, e.v)
	}

	for k := 0; k < 25; k++ {
		require.True(t, tree.Delete(k), "delete %d", k)
	}
	require.NoError(t, tree.Check())
	for k := 0; k < 25; k++ {
		_, ok := tree.Get(k)
		require.False(t, ok, "unexpected deleted key %d", k)
	}
	for k := 25; k < 50; k++ {
		requireGet(t, tree, k, k+10)
	}

	for _, e := range shuffledInserts(rng, 25, 100) {
		tree.Insert(e.k, e.v)
	}
	require.NoError(t, tree.Check())
	for k := 25; k < 100; k++ {
		requireGet(t, tree, k, k+10)
	}
	assert.Equal(t, 75, tree.Len())
}

func TestTreeScanSmallFanout(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tree := newIntTree(t, 4)
	for _, e := range shuffledInserts(rng, 0, 10) {
		tree.Insert(e.k, e.v)
	}
	require.NoError(t, tree.Check())

	var have []kv
	for k, v := range tree.Scan() {
		have = append(have, kv{k, v})
	}
	want := make([]kv, 0, 10)
	for k := 0; k < 10; k++ {
		want = append(want, kv{k, k + 10})
	}
	assert.Equal(t, want, have)
}

func TestTreeSingleKeyDeleted(t *testing.T) {
	tree := newIntTree(t, 8)
	tree.Insert(7, 17)
	require.True(t, tree.Delete(7))

	assert.Empty(t, slices.Collect(keysSeq(tree)))
	assert.Equal(t, 0, tree.Len())
	require.NotNil(t, tree.Root())
	assert.True(t, tree.Root().IsRoot())

	tree.Insert(8, 18)
	requireGet(t, tree, 8, 18)
	require.NoError(t, tree.Check())
}

func keysSeq(tree *Tree[int, int]) iter.Seq[int] {
	return func(yield func(int) bool) {
		for k := range tree.Scan() {
			if !yield(k) {
				return
			}
		}
	}
}

func TestTreeUpsert(t *testing.T) {
	tree := newIntTree(t, 8)
	for k := 0; k < 20; k++ {
		tree.Insert(k, 1)
	}
	tree.Insert(11, 2)

	requireGet(t, tree, 11, 2)
	assert.Equal(t, 20, tree.Len())
	count := 0
	for k, v := range tree.Scan() {
		if k == 11 {
			count++
			assert.Equal(t, 2, v)
		}
	}
	assert.Equal(t, 1, count)
}

func TestTreeEmpty(t *testing.T) {
	tree := newIntTree(t, 8)
	_, ok := tree.Get(1)
	assert.False(t, ok)
	assert.False(t, tree.Delete(1))
	assert.Equal(t, 0, tree.Height())
	assert.Empty(t, slices.Collect(keysSeq(tree)))
	assert.NoError(t, tree.Check())
}

func TestTreeHeightGrowsByOneOnRootSplit(t *testing.T) {
	for _, fanout := range []int{2, 3, 4, 8, 16} {
		tree := newIntTree(t, fanout)
		rng := rand.New(rand.NewSource(int64(fanout)))
		prevHeight, prevRoot := 0, tree.Root()
		for _, k := range rng.Perm(200) {
			tree.Insert(k, k)
			h := tree.Height()
			switch {
			case prevRoot == nil:
				assert.Equal(t, 1, h)
			case tree.Root() != prevRoot:
				assert.Equal(t, prevHeight+1, h, "fanout %d", fanout)
				assert.False(t, prevRoot.IsRoot())
			default:
				assert.Equal(t, prevHeight, h, "fanout %d", fanout)
			}
			prevHeight, prevRoot = h, tree.Root()
		}
		require.NoError(t, tree.Check(), "fanout %d", fanout)
	}
}

func TestTreeLeafChainVisitsEveryLeafOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tree := newIntTree(t, 6)
	for _, k := range rng.Perm(300) {
		tree.Insert(k, k)
	}
	for _, k := range rng.Perm(300)[:150] {
		tree.Delete(k)
	}

	seen := make(map[*Node[int, int]]bool)
	for leaf := range tree.Leaves() {
		require.True(t, leaf.IsLeaf())
		require.False(t, seen[leaf], "leaf visited twice")
		seen[leaf] = true
	}
	assert.Equal(t, tree.Stats().Leaves, len(seen))
	require.NoError(t, tree.Check())
}

// TestTreeRandomized mirrors every operation in a map and checks the tree
// against it, including its invariants, after each step.
func TestTreeRandomized(t *testing.T) {
	for _, tc := range []struct {
		fanout, splitAt int
	}{
		{fanout: 2}, {fanout: 5}, {fanout: 8}, {fanout: 8, splitAt: 8}, {fanout: 32, splitAt: 3},
	} {
		rng := rand.New(rand.NewSource(int64(tc.fanout*100 + tc.splitAt)))
		tree := newIntTree(t, tc.fanout, WithSplitThreshold(tc.splitAt))
		model := make(map[int]int)
		for op := 0; op < 2000; op++ {
			k := rng.Intn(300) - 150
			switch rng.Intn(3) {
			case 0, 1:
				v := rng.Int()
				tree.Insert(k, v)
				model[k] = v
			case 2:
				_, ok := model[k]
				require.Equal(t, ok, tree.Delete(k), "delete %d", k)
				delete(model, k)
			}
			if op%50 == 0 {
				require.NoError(t, tree.Check(), "fanout %d op %d", tc.fanout, op)
			}
		}
		require.NoError(t, tree.Check())
		require.Equal(t, len(model), tree.Len())

		for k, v := range model {
			requireGet(t, tree, k, v)
		}
		wantKeys := make([]int, 0, len(model))
		for k := range model {
			wantKeys = append(wantKeys, k)
		}
		slices.Sort(wantKeys)
		assert.Equal(t, wantKeys, slices.Collect(keysSeq(tree)))
	}
}

func TestTreeAscendingAndDescendingLoads(t *testing.T) {
	up := newIntTree(t, 8)
	down := newIntTree(t, 8)
	for k := 0; k < 500; k++ {
		up.Insert(k, k)
		down.Insert(499-k, k)
	}
	require.NoError(t, up.Check())
	require.NoError(t, down.Check())
	assert.Equal(t, 500, up.Len())
	assert.Equal(t, 500, down.Len())
	requireGet(t, up, 250, 250)
	requireGet(t, down, 250, 249)
}

func TestTreeNegativeKeys(t *testing.T) {
	tree := newIntTree(t, 4)
	for k := -20; k < 20; k++ {
		tree.Insert(k, -k)
	}
	require.NoError(t, tree.Check())
	requireGet(t, tree, -20, 20)
	requireGet(t, tree, 19, -19)
}

func TestTreePreconditions(t *testing.T) {
	assert.Panics(t, func() { New[int, int](1, IntegerOrder[int]{}) })
	assert.Panics(t, func() { New[int, int](0, IntegerOrder[int]{}) })
	assert.Panics(t, func() { New[int, int](8, nil) })

	tree := newIntTree(t, 8)
	assert.Panics(t, func() { tree.Insert(math.MaxInt, 0) })

	leaf := newNode[int, int](tree.td, Leaf)
	assert.Panics(t, func() { tree.InsertSlot(internalSlot(1, leaf)) })
	assert.Equal(t, 0, tree.Len())
}

func TestTreeStringKeys(t *testing.T) {
	tree := New[string, int](4, StringOrder{})
	words := []string{"pear", "apple", "fig", "kiwi", "banana", "cherry", "date", "grape", "lemon", "mango"}
	for i, w := range words {
		tree.Insert(w, i)
	}
	require.NoError(t, tree.Check())

	var have []string
	for k := range tree.Scan() {
		have = append(have, k)
	}
	want := slices.Clone(words)
	slices.Sort(want)
	assert.Equal(t, want, have)

	v, ok := tree.Get("kiwi")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = tree.Get("kiwi\x00")
	assert.False(t, ok)
}

// TestTreeBytesKeysReusedBuffer inserts every key through the same buffer, as
// a bufio.Scanner caller would, and expects each key to be kept.
func TestTreeBytesKeysReusedBuffer(t *testing.T) {
	tree := New[[]byte, int](4, BytesOrder{})
	buf := make([]byte, 1)
	for i := 0; i < 10; i++ {
		buf[0] = byte('a' + i)
		tree.Insert(buf, i)
	}
	buf[0] = 'z'
	require.NoError(t, tree.Check())
	assert.Equal(t, 10, tree.Len())

	var have []string
	for k, v := range tree.Scan() {
		have = append(have, string(k))
		assert.Equal(t, int(k[0]-'a'), v)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}, have)

	for i := 0; i < 10; i++ {
		buf[0] = byte('a' + i)
		tree.Insert(buf, i*10)
	}
	buf[0] = 'z'
	_, ok := tree.Get([]byte("z"))
	assert.False(t, ok)
	for i := 0; i < 10; i++ {
		v, ok := tree.Get([]byte{byte('a' + i)})
		require.True(t, ok, "key %c", 'a'+i)
		assert.Equal(t, i*10, v)
	}
	assert.Equal(t, 10, tree.Len())
	require.NoError(t, tree.Check())
}

func TestTreeReset(t *testing.T) {
	tree := newIntTree(t, 8)
	for k := 0; k < 100; k++ {
		tree.Insert(k, k)
	}
	tree.Reset()
	assert.Nil(t, tree.Root())
	assert.Equal(t, 0, tree.Len())
	_, ok := tree.Get(5)
	assert.False(t, ok)
	tree.Insert(5, 6)
	requireGet(t, tree, 5, 6)
}

func TestTreeStats(t *testing.T) {
	tree := newIntTree(t, 8)
	for k := 0; k < 100; k++ {
		tree.Insert(k, k)
	}
	for k := 0; k < 100; k++ {
		if k%10 != 0 {
			tree.Delete(k)
		}
	}
	st := tree.Stats()
	assert.Equal(t, tree.Height(), st.Height)
	assert.Equal(t, 10, st.Entries)
	assert.Greater(t, st.EmptyLeaves, 0)
	assert.Greater(t, st.Internals, 0)
	assert.Greater(t, st.Fill, 0.0)
	assert.LessOrEqual(t, st.Fill, 1.0)
}
