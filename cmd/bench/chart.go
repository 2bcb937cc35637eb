package main

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SaveChart draws one group of bars per workload, one bar per structure and
// config, and saves it in the format implied by path's extension.
func SaveChart(path string, results []BenchResult) error {
	var ops, series []string
	latency := make(map[string]map[string]float64)
	for _, r := range results {
		if !strings.HasPrefix(r.Operation, "Workload_") && r.Operation != "Delete_Half" {
			continue
		}
		name := seriesName(r)
		if !slices.Contains(ops, r.Operation) {
			ops = append(ops, r.Operation)
		}
		if latency[name] == nil {
			series = append(series, name)
			latency[name] = make(map[string]float64)
		}
		latency[name][r.Operation] = float64(r.LatencyNs)
	}
	if len(series) == 0 {
		return errors.New("chart: no workload results")
	}

	p := plot.New()
	p.Title.Text = "Latency per operation"
	p.Y.Label.Text = "ns/op"
	p.Legend.Top = true

	width := vg.Points(12)
	for i, name := range series {
		values := make(plotter.Values, len(ops))
		for j, op := range ops {
			values[j] = latency[name][op]
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return errors.Wrapf(err, "chart: bars for %s", name)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-float64(len(series)-1)/2) * width
		p.Add(bars)
		p.Legend.Add(name, bars)
	}
	p.NominalX(ops...)

	w := vg.Length(max(6, len(ops)*len(series))) * vg.Inch / 2
	if err := p.Save(w, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "chart: save")
	}
	return nil
}
