// Package mapper applies a lookup table to every sample of a buffer.
package mapper

import (
	"runtime"

	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/AnyUserName/graynorm/internal/tone"
	"golang.org/x/sync/errgroup"
)

// minShardSamples is the smallest range worth handing to a goroutine.
const minShardSamples = 64 * 1024

// Apply returns a new buffer with out[k] = lut[in[k]].
func Apply(buf *pixbuf.Buffer, lut *tone.LUT) *pixbuf.Buffer {
	n := buf.PixelCount()
	out := make([]uint8, n)
	remap(out, buf.Range(0, n), lut)
	return wrap(buf, out)
}

// ApplyParallel is Apply with the sample range split across up to shards
// goroutines. Each goroutine writes a disjoint slice of the output.
func ApplyParallel(buf *pixbuf.Buffer, lut *tone.LUT, shards int) *pixbuf.Buffer {
	n := buf.PixelCount()
	if shards > n/minShardSamples {
		shards = n / minShardSamples
	}
	if shards <= 1 {
		return Apply(buf, lut)
	}

	out := make([]uint8, n)
	step := (n + shards - 1) / shards
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for lo := 0; lo < n; lo += step {
		hi := min(lo+step, n)
		dst, src := out[lo:hi], buf.Range(lo, hi)
		g.Go(func() error {
			remap(dst, src, lut)
			return nil
		})
	}
	// Table lookups cannot fail; the group only bounds and joins the shards.
	_ = g.Wait()
	return wrap(buf, out)
}

func remap(dst, src []uint8, lut *tone.LUT) {
	for i, v := range src {
		dst[i] = lut[v]
	}
}

func wrap(buf *pixbuf.Buffer, samples []uint8) *pixbuf.Buffer {
	out, err := pixbuf.Wrap(buf.Width(), buf.Height(), samples)
	if err != nil {
		// Same dimensions as a valid input buffer.
		panic(err)
	}
	return out
}
