package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btree-query-bench/leafchain/index/bplustree"
)

func runSession(t *testing.T, tree *bplustree.Tree[string, string], input string) string {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	NewCli(bufio.NewScanner(strings.NewReader(input)), &out, tree).Start()
	return out.String()
}

func TestCliSession(t *testing.T) {
	tree := bplustree.New[string, string](4, bplustree.StringOrder{})
	out := runSession(t, tree, strings.Join([]string{
		"SET b 2",
		"SET a 1",
		"SET c 3",
		"SET b two",
		"GET b",
		"GET z",
		"DEL a",
		"DEL a",
		"RANGE b c",
		"SCAN",
		"CHECK",
		"STATS",
		"SET onlykey",
		"FROB",
		"EXIT",
		"SET never 1",
	}, "\n"))

	assert.Contains(t, out, "two\n")
	assert.Contains(t, out, "Key not found.")
	assert.Contains(t, out, "b two\nc 3\n(2 entries)")
	assert.Contains(t, out, "Usage: SET <key> <value>")
	assert.Contains(t, out, `Unknown command "frob"`)
	assert.Contains(t, out, "entries=2")

	_, found := tree.Get("never")
	assert.False(t, found)
	require.Equal(t, 2, tree.Len())
}

func TestCliDot(t *testing.T) {
	tree := bplustree.New[string, string](4, bplustree.StringOrder{})
	path := filepath.Join(t.TempDir(), "tree.dot")
	out := runSession(t, tree, "SET a 1\nSET b 2\nDOT "+path+"\nDOT\n")
	assert.Contains(t, out, "Wrote "+path)
	assert.Contains(t, out, "Usage: DOT <file>")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph BPlusTree")
}

func TestSeedTreeWithTestRecords(t *testing.T) {
	tree := bplustree.New[string, string](8, bplustree.StringOrder{})
	seedTreeWithTestRecords(tree, 200)
	assert.Greater(t, tree.Len(), 0)
	assert.LessOrEqual(t, tree.Len(), 200)
	require.NoError(t, tree.Check())
}
