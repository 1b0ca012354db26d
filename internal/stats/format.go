package stats

import (
	"fmt"
	"math"
	"strings"
)

// Format renders s as a multi-line text block. heading, if set, prefixes
// the first line ("Input", "Output").
func Format(s Statistics, heading string) string {
	var b strings.Builder
	if heading != "" {
		fmt.Fprintf(&b, "%s metrics for: %s\n", heading, s.SourceLabel)
	}
	if s.PixelCount == 0 {
		fmt.Fprintf(&b, "Size: %d × %d px (no pixels)\n", s.Width, s.Height)
		return b.String()
	}
	fmt.Fprintf(&b, "Size: %d × %d px (%d pixels)\n", s.Width, s.Height, s.PixelCount)
	fmt.Fprintf(&b, "Min: %d  Max: %d  Dynamic range: %d\n", s.Min, s.Max, s.DynamicRange)
	fmt.Fprintf(&b, "Mean: %.2f  Std dev: %.2f\n", s.Mean, s.StdDev)
	fmt.Fprintf(&b, "Utilized brightness span: %d levels  (bins used: %.1f%%)\n",
		s.UtilizedRange, s.BinsUsedPercent)
	fmt.Fprintf(&b, "Entropy: %.3f bits/pixel\n", s.Entropy)
	return b.String()
}

// FormatMetrics renders the before → after comparison of in and out.
func FormatMetrics(in, out Statistics, m ChangeMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dynamic range: %d → %d  (×%s)\n", in.DynamicRange, out.DynamicRange, ratio(m.ContrastGainRatio))
	fmt.Fprintf(&b, "Std dev: %.2f → %.2f  (×%s)\n", in.StdDev, out.StdDev, ratio(m.StdDevGainRatio))
	fmt.Fprintf(&b, "Mean: %.2f → %.2f  (Δ %+.2f)\n", in.Mean, out.Mean, m.MeanDelta)
	fmt.Fprintf(&b, "Entropy: %.3f → %.3f  (Δ %+.3f)\n", in.Entropy, out.Entropy, m.EntropyDelta)
	return b.String()
}

func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", v)
}

// sparkRunes are eighth-block glyphs from empty to full.
var sparkRunes = []rune(" ▁▂▃▄▅▆▇█")

// Sparkline draws the histogram as a one-line bar chart of the given
// width; each column shows the largest bin it covers.
func Sparkline(s Statistics, width int) string {
	if width <= 0 || width > len(s.Histogram) {
		width = len(s.Histogram)
	}
	peak := s.Histogram.Peak()
	if peak == 0 {
		return strings.Repeat(string(sparkRunes[0]), width)
	}

	bins := len(s.Histogram)
	top := len(sparkRunes) - 1
	out := make([]rune, width)
	for col := 0; col < width; col++ {
		var m uint64
		for _, c := range s.Histogram[col*bins/width : (col+1)*bins/width] {
			m = max(m, c)
		}
		level := int(math.Ceil(float64(m) / float64(peak) * float64(top)))
		out[col] = sparkRunes[level]
	}
	return string(out)
}
