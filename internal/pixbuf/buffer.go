// Package pixbuf holds the single-channel 8-bit pixel buffer that every
// stage of the normalizer consumes and produces.
package pixbuf

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidDimensions is returned when the sample count does not match
// width*height.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// Buffer is an immutable row-major grayscale raster.
type Buffer struct {
	width   int
	height  int
	samples []uint8
}

// New copies samples into a new Buffer of the given size.
func New(width, height int, samples []uint8) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: %dx%d needs %d samples, got %d",
			ErrInvalidDimensions, width, height, width*height, len(samples))
	}
	s := make([]uint8, len(samples))
	copy(s, samples)
	return &Buffer{width: width, height: height, samples: s}, nil
}

// Wrap takes ownership of samples without copying. Callers must not touch
// the slice afterwards. Used by stages that allocate a fresh output.
func Wrap(width, height int, samples []uint8) (*Buffer, error) {
	if width < 0 || height < 0 || len(samples) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d samples",
			ErrInvalidDimensions, width, height, len(samples))
	}
	return &Buffer{width: width, height: height, samples: samples}, nil
}

func (b *Buffer) Width() int      { return b.width }
func (b *Buffer) Height() int     { return b.height }
func (b *Buffer) PixelCount() int { return len(b.samples) }

// Samples returns a copy of the sample array.
func (b *Buffer) Samples() []uint8 {
	s := make([]uint8, len(b.samples))
	copy(s, b.samples)
	return s
}

// At returns the sample at index k.
func (b *Buffer) At(k int) uint8 { return b.samples[k] }

// Each calls fn for every sample in row-major order.
func (b *Buffer) Each(fn func(v uint8)) {
	for _, v := range b.samples {
		fn(v)
	}
}

// Range returns a read-only view of samples [lo, hi). The returned slice
// must not be written to.
func (b *Buffer) Range(lo, hi int) []uint8 { return b.samples[lo:hi:hi] }

// Image returns the buffer as a freshly allocated *image.Gray.
func (b *Buffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.samples)
	return img
}

// Extrema scans the samples directly. ok is false for an empty buffer.
func (b *Buffer) Extrema() (lo, hi uint8, ok bool) {
	if len(b.samples) == 0 {
		return 0, 0, false
	}
	lo, hi = 255, 0
	for _, v := range b.samples {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}
