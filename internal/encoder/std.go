package encoder

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
)

// DefaultJPEGQuality matches what the desktop tool used on save.
const DefaultJPEGQuality = 95

// PNGEncoder writes lossless PNG; *image.Gray input stays 8-bit gray.
type PNGEncoder struct {
	Level png.CompressionLevel
}

func (e *PNGEncoder) Format() string    { return "png" }
func (e *PNGEncoder) Extension() string { return "png" }

func (e *PNGEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	buf := sized(img, 2)
	enc := &png.Encoder{CompressionLevel: e.Level}
	if err := enc.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEGEncoder writes baseline JPEG. Gray input gives a single-component
// file.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() string    { return "jpeg" }
func (e *JPEGEncoder) Extension() string { return "jpg" }

func (e *JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	buf := sized(img, 4)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sized returns a buffer pre-grown to one byte per div pixels.
func sized(img image.Image, div int) *bytes.Buffer {
	var buf bytes.Buffer
	b := img.Bounds()
	buf.Grow(b.Dx() * b.Dy() / div)
	return &buf
}
