package main

import (
	"flag"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/btree-query-bench/leafchain/index/bplustree"
)

// Config controls one benchmark run.
type Config struct {
	Scale     int
	Fanouts   []int
	SplitAt   []int // 0 keeps the tree's default of half the fanout
	CSVPath   string
	ChartPath string
	PebbleDir string // empty runs Pebble in memory
	NoPebble  bool
	Baseline  bool // also run the sorted-slice index
	LogLevel  string
	Seed      int64
}

func parseConfig(args []string) (Config, error) {
	var (
		c       Config
		fanouts string
		splits  string
	)
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.IntVar(&c.Scale, "scale", 1000000, "Number of keys loaded into each structure.")
	fs.StringVar(&fanouts, "fanouts", "8,32,128", "Comma-separated B+tree fanouts.")
	fs.StringVar(&splits, "split-at", "0", "Comma-separated split thresholds; 0 means half the fanout.")
	fs.StringVar(&c.CSVPath, "csv", "results.csv", "Where to write the CSV results.")
	fs.StringVar(&c.ChartPath, "chart", "results.png", "Where to write the latency chart; empty disables it.")
	fs.StringVar(&c.PebbleDir, "pebble-dir", "", "Directory for the Pebble baseline; empty keeps it in memory.")
	fs.BoolVar(&c.NoPebble, "no-pebble", false, "Skip the Pebble baseline.")
	fs.BoolVar(&c.Baseline, "baseline", false, "Also run the sorted-slice index; inserts are linear, so keep -scale small.")
	fs.StringVar(&c.LogLevel, "log-level", "info", "Log level: debug, info, warn or error.")
	fs.Int64Var(&c.Seed, "seed", 1, "Seed for the workload generator.")
	if err := fs.Parse(args); err != nil {
		return c, err
	}

	var err error
	if c.Fanouts, err = parseInts(fanouts); err != nil {
		return c, errors.Wrap(err, "-fanouts")
	}
	if c.SplitAt, err = parseInts(splits); err != nil {
		return c, errors.Wrap(err, "-split-at")
	}
	return c, c.Validate()
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}

// maxDegenerateScale bounds the scale for configurations with a split
// threshold of 2. Such trees grow one level per insert, so loading n keys
// costs O(n^2).
const maxDegenerateScale = 10000

func effectiveThreshold(fanout, splitAt int) int {
	return bplustree.New[int64, []byte](fanout, bplustree.IntegerOrder[int64]{},
		bplustree.WithSplitThreshold(splitAt)).SplitThreshold()
}

func (c Config) Validate() error {
	if c.Scale < 2 {
		return errors.Newf("scale must be at least 2, got %d", c.Scale)
	}
	if len(c.Fanouts) == 0 {
		return errors.New("at least one fanout is required")
	}
	for _, f := range c.Fanouts {
		if f < 2 {
			return errors.Newf("fanout %d is below the minimum of 2", f)
		}
	}
	if len(c.SplitAt) == 0 {
		return errors.New("at least one split threshold is required")
	}
	for _, s := range c.SplitAt {
		if s < 0 {
			return errors.Newf("split threshold %d is negative", s)
		}
	}
	if c.Scale > maxDegenerateScale {
		for _, f := range c.Fanouts {
			for _, s := range c.SplitAt {
				if effectiveThreshold(f, s) <= 2 {
					return errors.Newf("fanout %d with split threshold %d splits the root on every insert; "+
						"use a larger fanout or threshold, or a scale of at most %d", f, s, maxDegenerateScale)
				}
			}
		}
	}
	if c.CSVPath == "" {
		return errors.New("a CSV path is required")
	}
	return nil
}
