// Command bench loads the B+tree at several fanouts and split thresholds, a
// classic B-tree of matching node size, Pebble as an LSM baseline and
// optionally a sorted slice, runs the same workloads against each, and writes
// per-operation latencies to CSV and a bar chart.
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/btree-query-bench/leafchain/index"
	"github.com/btree-query-bench/leafchain/index/bplustree"
	"github.com/btree-query-bench/leafchain/index/gbtree"
	"github.com/btree-query-bench/leafchain/index/pebblekv"
	"github.com/btree-query-bench/leafchain/index/sortedslice"
	"github.com/btree-query-bench/leafchain/internal/logging"
)

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("benchmark failed", zap.Error(err))
	}
	logger.Info("benchmark complete", zap.String("csv", cfg.CSVPath), zap.String("chart", cfg.ChartPath))
}

func run(cfg Config, logger *zap.Logger) error {
	f, err := os.Create(cfg.CSVPath)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer f.Close()
	rec, err := NewRecorder(csv.NewWriter(f))
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	values := payloads(256)

	for _, fanout := range cfg.Fanouts {
		for _, splitAt := range cfg.SplitAt {
			idx := bplustree.NewIndex(fanout, splitAt, logger.Named("bplustree"))
			conf := fmt.Sprintf("%d/%d", fanout, idx.Tree().SplitThreshold())
			if err := runSuite(rec, logger, "BPlusTree", conf, idx, cfg.Scale, rng, values); err != nil {
				return err
			}
		}
	}

	for _, fanout := range cfg.Fanouts {
		degree := gbtree.DegreeFor(fanout)
		conf := fmt.Sprintf("degree %d", degree)
		if err := runSuite(rec, logger, "BTree", conf, gbtree.New(degree), cfg.Scale, rng, values); err != nil {
			return err
		}
	}

	if !cfg.NoPebble {
		store, err := openPebble(cfg.PebbleDir)
		if err != nil {
			return err
		}
		// Store.Delete reads the key before deleting it, so Delete_Half
		// includes a point lookup per key; the label records that.
		if err := runSuite(rec, logger, "Pebble", "lsm/checked-delete", store, cfg.Scale, rng, values); err != nil {
			return err
		}
	}

	if cfg.Baseline {
		if err := runSuite(rec, logger, "SortedSlice", "slice", sortedslice.New(), cfg.Scale, rng, values); err != nil {
			return err
		}
	}

	if err := rec.Flush(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	if cfg.ChartPath != "" {
		if err := SaveChart(cfg.ChartPath, rec.Results()); err != nil {
			return err
		}
	}
	return nil
}

func openPebble(dir string) (*pebblekv.Store, error) {
	if dir == "" {
		return pebblekv.OpenInMemory()
	}
	return pebblekv.Open(dir)
}

func runSuite(
	rec *Recorder,
	logger *zap.Logger,
	name, conf string,
	idx index.Index,
	n int,
	rng *rand.Rand,
	values [][]byte,
) (err error) {
	logger.Info("testing", zap.String("structure", name), zap.String("config", conf), zap.Int("scale", n))
	defer func() {
		err = errors.CombineErrors(err, idx.Close())
	}()

	timed := func(op string, ops int, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			return errors.Wrapf(err, "%s %s", name, op)
		}
		latency := time.Since(start).Nanoseconds() / int64(max(ops, 1))
		return rec.Record(BenchResult{name, conf, op, latency, GetDetailedMem().AllocMB, 0})
	}

	// 1. Pure Insert (Initial Load)
	start := time.Now()
	for _, k := range rng.Perm(n) {
		if err := idx.Insert(int64(k), values[k%len(values)]); err != nil {
			return errors.Wrapf(err, "%s load", name)
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)

	// Measure memory immediately after load but before workloads.
	stats := GetDetailedMem()
	if err := rec.Record(BenchResult{
		Name:      name,
		Config:    conf,
		Operation: "Footprint_SteadyState",
		LatencyNs: insertLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	}); err != nil {
		return err
	}
	if t, ok := idx.(*bplustree.Index); ok {
		if err := recordShape(rec, logger, name, conf, t.Tree().Stats()); err != nil {
			return err
		}
	}

	if err := timed("Workload_OLTP", n/2, func() error {
		return ExecuteWorkload(idx, rng, OLTP, n/2, n, values)
	}); err != nil {
		return err
	}
	if err := timed("Workload_OLAP", n/2, func() error {
		return ExecuteWorkload(idx, rng, OLAP, n/2, n, values)
	}); err != nil {
		return err
	}
	if err := timed("Workload_Range", 100, func() error {
		return ExecuteWorkload(idx, rng, Reporting, 100, n, values)
	}); err != nil {
		return err
	}
	return timed("Delete_Half", n/2, func() error {
		for _, k := range rng.Perm(n)[:n/2] {
			if err := idx.Delete(int64(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// recordShape stores the tree's shape as rows whose latency column carries
// the measurement, so that one CSV schema covers every row.
func recordShape(rec *Recorder, logger *zap.Logger, name, conf string, st bplustree.Stats) error {
	logger.Info("tree shape",
		zap.String("config", conf),
		zap.Int("height", st.Height),
		zap.Int("leaves", st.Leaves),
		zap.Int("internals", st.Internals),
		zap.Float64("fill", st.Fill),
	)
	for _, row := range []struct {
		op string
		v  int64
	}{
		{"Shape_Height", int64(st.Height)},
		{"Shape_Leaves", int64(st.Leaves)},
		{"Shape_Internals", int64(st.Internals)},
		{"Shape_FillPermille", int64(st.Fill * 1000)},
	} {
		if err := rec.Record(BenchResult{Name: name, Config: conf, Operation: row.op, LatencyNs: row.v}); err != nil {
			return err
		}
	}
	return nil
}

// seriesName labels one structure/config pair in charts.
func seriesName(r BenchResult) string {
	if r.Config == "" {
		return r.Name
	}
	return r.Name + " " + r.Config
}
