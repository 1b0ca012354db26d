// Package stats derives brightness statistics from a buffer's histogram
// and compares the statistics of two buffers.
package stats

import (
	"math"

	"github.com/AnyUserName/graynorm/internal/histogram"
	"github.com/AnyUserName/graynorm/internal/pixbuf"
)

// DefaultLabel is shown when an image has no source name.
const DefaultLabel = "(unsaved image)"

// Statistics describes the brightness distribution of one buffer.
// Min, Max and DynamicRange are only meaningful when PixelCount > 0.
type Statistics struct {
	SourceLabel     string              `json:"source_label"`
	Width           int                 `json:"width"`
	Height          int                 `json:"height"`
	PixelCount      int                 `json:"pixel_count"`
	Min             uint8               `json:"min"`
	Max             uint8               `json:"max"`
	Mean            float64             `json:"mean"`
	StdDev          float64             `json:"stddev"`
	DynamicRange    int                 `json:"dynamic_range"`
	UsedBins        int                 `json:"used_bins"`
	UtilizedRange   int                 `json:"utilized_range"`
	BinsUsedPercent float64             `json:"bins_used_pct"`
	Entropy         float64             `json:"entropy"` // bits per pixel
	Histogram       histogram.Histogram `json:"histogram"`
}

// Compute derives Statistics from buf and the histogram built from it.
// The pairing is not re-verified. label is carried for display only.
func Compute(buf *pixbuf.Buffer, h histogram.Histogram, label string) Statistics {
	if label == "" {
		label = DefaultLabel
	}
	s := Statistics{
		SourceLabel: label,
		Width:       buf.Width(),
		Height:      buf.Height(),
		PixelCount:  buf.PixelCount(),
		Histogram:   h,
	}
	if s.PixelCount == 0 {
		return s
	}

	n := float64(s.PixelCount)
	var sum, sumSq, entropy float64
	first, last := -1, -1
	for i, c := range h {
		if c == 0 {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		s.UsedBins++

		fc, fi := float64(c), float64(i)
		sum += fi * fc
		sumSq += fi * fi * fc
		p := fc / n
		entropy -= p * math.Log2(p)
	}
	if first < 0 {
		// Histogram does not belong to a non-empty buffer; keep the zero defaults.
		return s
	}

	s.Min, s.Max = uint8(first), uint8(last)
	s.DynamicRange = last - first
	s.UtilizedRange = last - first
	s.BinsUsedPercent = float64(s.UsedBins) / histogram.Bins * 100

	s.Mean = sum / n
	variance := sumSq/n - s.Mean*s.Mean
	s.StdDev = math.Sqrt(math.Max(0, variance))
	s.Entropy = entropy
	return s
}

// Analyze builds the histogram of buf and computes its Statistics.
func Analyze(buf *pixbuf.Buffer, label string) Statistics {
	return Compute(buf, histogram.Build(buf), label)
}
