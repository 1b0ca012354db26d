package stats

import "math"

// ChangeMetrics compares the statistics of an input and an output buffer.
type ChangeMetrics struct {
	ContrastGainRatio float64 `json:"contrast_gain_ratio"`
	StdDevGainRatio   float64 `json:"stddev_gain_ratio"`
	MeanDelta         float64 `json:"mean_delta"`
	EntropyDelta      float64 `json:"entropy_delta"`
}

// Compare computes output/input ratios for dynamic range and stddev, and
// signed output-input deltas for mean and entropy.
func Compare(in, out Statistics) ChangeMetrics {
	return ChangeMetrics{
		ContrastGainRatio: gain(float64(in.DynamicRange), float64(out.DynamicRange)),
		StdDevGainRatio:   gain(in.StdDev, out.StdDev),
		MeanDelta:         out.Mean - in.Mean,
		EntropyDelta:      out.Entropy - in.Entropy,
	}
}

// gain is after/before. A zero before yields +Inf if after grew, or 1 if
// both are flat.
func gain(before, after float64) float64 {
	if before == 0 {
		if after > 0 {
			return math.Inf(1)
		}
		return 1.0
	}
	return after / before
}
