// Package encoder writes gray buffers in the formats offered on save.
package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the canonical format name ("png", "jpeg", "tiff", "bmp").
	Format() string

	// Encode converts the image to bytes. quality (1-100) only matters
	// to lossy formats; 0 selects the format default.
	Encode(img image.Image, quality int) ([]byte, error)

	// Extension returns the file extension without dot.
	Extension() string
}
