// Package report records the inputs, outputs and change metrics of a
// batch run as a JSON document.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/graynorm/internal/stats"
)

// FileName is the report's name inside an output directory.
const FileName = "graynorm.report.json"

// New creates an empty report with defaults.
func New(presetName, format string) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Preset:      presetName,
		Format:      format,
		BasePath:    "./",
		Entries:     make(map[string]Entry),
	}
}

// FromChange converts comparator output to its JSON form.
func FromChange(m stats.ChangeMetrics) Metrics {
	out := Metrics{MeanDelta: m.MeanDelta, EntropyDelta: m.EntropyDelta}
	out.ContrastGainRatio, out.ContrastGainInfinite = finite(m.ContrastGainRatio)
	out.StdDevGainRatio, out.StdDevGainInfinite = finite(m.StdDevGainRatio)
	return out
}

func finite(v float64) (*float64, bool) {
	if math.IsInf(v, 1) {
		return nil, true
	}
	return &v, false
}

// Change converts m back to comparator form.
func (m Metrics) Change() stats.ChangeMetrics {
	return stats.ChangeMetrics{
		ContrastGainRatio: ratio(m.ContrastGainRatio, m.ContrastGainInfinite),
		StdDevGainRatio:   ratio(m.StdDevGainRatio, m.StdDevGainInfinite),
		MeanDelta:         m.MeanDelta,
		EntropyDelta:      m.EntropyDelta,
	}
}

func ratio(v *float64, inf bool) float64 {
	if inf {
		return math.Inf(1)
	}
	if v == nil {
		return math.NaN()
	}
	return *v
}

// ComputeTotals recalculates aggregate numbers from entries. failed is
// carried over as-is.
func (r *Report) ComputeTotals() {
	t := Totals{Images: len(r.Entries), Failed: r.Totals.Failed}
	var gainSum float64
	var gainCount int
	for _, e := range r.Entries {
		t.TotalInputBytes += e.Source.Size
		t.TotalOutputBytes += e.Result.Size
		t.TotalPixels += int64(e.Input.PixelCount)
		if e.Metrics.ContrastGainRatio != nil {
			gainSum += *e.Metrics.ContrastGainRatio
			gainCount++
		}
	}
	if gainCount > 0 {
		t.MeanContrastGain = gainSum / float64(gainCount)
	}
	r.Totals = t
}

// WriteJSON serializes the report to a JSON file with stable ordering.
func WriteJSON(r *Report, path string) error {
	r.ComputeTotals()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report. A directory argument is resolved to the
// report file inside it.
func ReadJSON(path string) (*Report, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("parse report: %w", err)
	}
	return &r, path, nil
}
