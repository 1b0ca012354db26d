// Package normalize runs the analyze → tone curve → remap → compare flow
// for one image. Callers own the session (which image is open, which
// parameters are selected); every call here is a pure function of its
// arguments.
package normalize

import (
	"github.com/AnyUserName/graynorm/internal/histogram"
	"github.com/AnyUserName/graynorm/internal/mapper"
	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/AnyUserName/graynorm/internal/tone"
)

// OutputSuffix is appended to the input label to name the output.
const OutputSuffix = " (normalized)"

// Analysis is a buffer together with its histogram and statistics.
type Analysis struct {
	Buffer    *pixbuf.Buffer
	Histogram histogram.Histogram
	Stats     stats.Statistics
}

// Options tunes how the work is executed; results never depend on it.
type Options struct {
	// Shards > 1 splits histogram and remap work across goroutines.
	Shards int
}

// Result is the outcome of one normalization.
type Result struct {
	Params  tone.Params
	LUT     tone.LUT
	Output  Analysis
	Metrics stats.ChangeMetrics
}

// Analyze computes the histogram and statistics of buf.
func Analyze(buf *pixbuf.Buffer, label string) Analysis {
	return analyze(buf, label, Options{})
}

func analyze(buf *pixbuf.Buffer, label string, opts Options) Analysis {
	var h histogram.Histogram
	if opts.Shards > 1 {
		h = histogram.BuildParallel(buf, opts.Shards)
	} else {
		h = histogram.Build(buf)
	}
	return Analysis{
		Buffer:    buf,
		Histogram: h,
		Stats:     stats.Compute(buf, h, label),
	}
}

// DefaultParams stretches the occupied range [min, max] to full scale with
// a linear curve.
func DefaultParams(st stats.Statistics) tone.Params {
	if st.PixelCount == 0 {
		return tone.NewParams(0, 255, 1.0)
	}
	return tone.NewParams(int(st.Min), int(st.Max), 1.0)
}

// Normalize applies p to in.Buffer and measures the change.
func Normalize(in Analysis, p tone.Params, opts Options) Result {
	lut := tone.Build(p)

	var out *pixbuf.Buffer
	if opts.Shards > 1 {
		out = mapper.ApplyParallel(in.Buffer, &lut, opts.Shards)
	} else {
		out = mapper.Apply(in.Buffer, &lut)
	}

	outAnalysis := analyze(out, OutputLabel(in.Stats.SourceLabel), opts)
	return Result{
		Params:  p,
		LUT:     lut,
		Output:  outAnalysis,
		Metrics: stats.Compare(in.Stats, outAnalysis.Stats),
	}
}

// OutputLabel names the normalized version of an image labeled label.
func OutputLabel(label string) string {
	if label == "" || label == stats.DefaultLabel {
		return "(normalized)"
	}
	return label + OutputSuffix
}
