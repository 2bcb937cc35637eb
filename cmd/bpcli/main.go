// Command bpcli is an interactive shell over a string-keyed B+tree.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/go-faker/faker/v4"
	"go.uber.org/zap"

	"github.com/btree-query-bench/leafchain/index/bplustree"
	"github.com/btree-query-bench/leafchain/internal/logging"
)

var (
	fanout, splitAt, seedNumRecords *int
	shouldSeed                      *bool
	logLevel                        *string
)

func seedTreeWithTestRecords(t *bplustree.Tree[string, string], n int) {
	for i := 0; i < n; i++ {
		t.Insert(faker.Word()+faker.Word(), faker.Word())
	}
}

func main() {
	setupFlags()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if *fanout < 2 {
		logger.Fatal("fanout must be at least 2", zap.Int("fanout", *fanout))
	}
	tree := bplustree.New[string, string](*fanout, bplustree.StringOrder{},
		bplustree.WithSplitThreshold(*splitAt), bplustree.WithLogger(logger))

	if *shouldSeed {
		seedTreeWithTestRecords(tree, *seedNumRecords)
		logger.Info("seeded", zap.Int("entries", tree.Len()), zap.Int("height", tree.Height()))
	}

	scanner := bufio.NewScanner(os.Stdin)
	NewCli(scanner, os.Stdout, tree).Start()
}

func setupFlags() {
	fanout = flag.Int("fanout", 8, "Maximum number of slots per node.")
	splitAt = flag.Int("split-at", 0, "Slot count that makes a node split; 0 means half the fanout.")
	shouldSeed = flag.Bool("seed", false, "Seed the tree using records created with go-faker.")
	seedNumRecords = flag.Int("records", 1000, "Amount of records to seed the tree with upon startup.")
	logLevel = flag.String("log-level", "warn", "Log level; debug shows every split.")
	flag.Usage = func() {
		fmt.Println("\nB+tree CLI\n\nArguments:")
		flag.PrintDefaults()
	}
	flag.Parse()
}
