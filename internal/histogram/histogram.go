// Package histogram counts 8-bit brightness values.
package histogram

import (
	"runtime"

	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"golang.org/x/sync/errgroup"
)

// Bins is the number of brightness levels.
const Bins = 256

// minShardSamples keeps goroutine overhead below the cost of the scan.
const minShardSamples = 64 * 1024

// Histogram holds the sample count for every brightness value.
type Histogram [Bins]uint64

// Build counts every sample of buf.
func Build(buf *pixbuf.Buffer) Histogram {
	var h Histogram
	h.add(buf.Range(0, buf.PixelCount()))
	return h
}

// BuildParallel splits buf into contiguous shards, counts each into a
// private partial histogram and merges the partials.
func BuildParallel(buf *pixbuf.Buffer, shards int) Histogram {
	n := buf.PixelCount()
	if shards > n/minShardSamples {
		shards = n / minShardSamples
	}
	if shards <= 1 {
		return Build(buf)
	}

	partials := make([]Histogram, shards)
	step := (n + shards - 1) / shards
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < shards; i++ {
		lo := i * step
		hi := min(lo+step, n)
		part := &partials[i]
		g.Go(func() error {
			part.add(buf.Range(lo, hi))
			return nil
		})
	}
	// Counting cannot fail; the group only bounds and joins the shards.
	_ = g.Wait()

	var h Histogram
	for i := range partials {
		for v, c := range partials[i] {
			h[v] += c
		}
	}
	return h
}

func (h *Histogram) add(samples []uint8) {
	for _, v := range samples {
		h[v]++
	}
}

// Total returns the number of counted samples.
func (h *Histogram) Total() uint64 {
	var n uint64
	for _, c := range h {
		n += c
	}
	return n
}

// Empty reports whether no sample was counted.
func (h *Histogram) Empty() bool {
	for _, c := range h {
		if c != 0 {
			return false
		}
	}
	return true
}

// Bounds returns the lowest and highest non-empty bin. ok is false for an
// empty histogram.
func (h *Histogram) Bounds() (lo, hi uint8, ok bool) {
	first, last := -1, -1
	for v, c := range h {
		if c == 0 {
			continue
		}
		if first < 0 {
			first = v
		}
		last = v
	}
	if first < 0 {
		return 0, 0, false
	}
	return uint8(first), uint8(last), true
}

// Percentile returns the smallest value v such that at least q (0..1) of
// the samples are <= v. Empty histograms return 0.
func (h *Histogram) Percentile(q float64) uint8 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	if q <= 0 {
		lo, _, _ := h.Bounds()
		return lo
	}
	if q > 1 {
		q = 1
	}
	target := q * float64(total)
	var cum uint64
	for v, c := range h {
		cum += c
		if float64(cum) >= target {
			return uint8(v)
		}
	}
	return Bins - 1
}

// Peak returns the largest bin count, used to scale histogram plots.
func (h *Histogram) Peak() uint64 {
	var p uint64
	for _, c := range h {
		if c > p {
			p = c
		}
	}
	return p
}
