package main

import (
	"encoding/csv"
	"runtime"
	"strconv"

	"github.com/cockroachdb/errors"
)

// BenchResult is one CSV row.
type BenchResult struct {
	Name      string
	Config    string
	Operation string
	LatencyNs int64
	MemMB     uint64
	Objects   uint64
}

type MemoryStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

// GetDetailedMem forces a GC so that only live data is measured.
func GetDetailedMem() MemoryStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocMB:     m.Alloc / 1024 / 1024,
		HeapObjects: m.HeapObjects,
	}
}

var header = []string{"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"}

// Recorder writes results as CSV and keeps them for charting.
type Recorder struct {
	w       *csv.Writer
	results []BenchResult
}

func NewRecorder(w *csv.Writer) (*Recorder, error) {
	if err := w.Write(header); err != nil {
		return nil, errors.Wrap(err, "write csv header")
	}
	return &Recorder{w: w}, nil
}

func (r *Recorder) Record(res BenchResult) error {
	r.results = append(r.results, res)
	return r.w.Write([]string{
		res.Name,
		res.Config,
		res.Operation,
		strconv.FormatInt(res.LatencyNs, 10),
		strconv.FormatUint(res.MemMB, 10),
		strconv.FormatUint(res.Objects, 10),
	})
}

func (r *Recorder) Results() []BenchResult { return r.results }

func (r *Recorder) Flush() error {
	r.w.Flush()
	return r.w.Error()
}
