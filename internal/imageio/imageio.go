// Package imageio decodes source images into gray buffers and writes
// buffers back out. Codecs come from the standard library,
// golang.org/x/image and disintegration/imaging.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/AnyUserName/graynorm/internal/encoder"
	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultPreviewDim is the longest side of a preview image.
const DefaultPreviewDim = 480

// Open decodes the image at path, honoring EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return img, nil
}

// Decode reads an image from r, honoring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Load opens path and converts it to a gray buffer.
func Load(path string, luma pixbuf.Luma) (*pixbuf.Buffer, error) {
	img, err := Open(path)
	if err != nil {
		return nil, err
	}
	buf, err := pixbuf.FromImage(img, luma)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return buf, nil
}

// Encode serializes buf with enc.
func Encode(buf *pixbuf.Buffer, enc encoder.Encoder, quality int) ([]byte, error) {
	data, err := enc.Encode(buf.Image(), quality)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	return data, nil
}

// Save writes buf to path in the format implied by its extension and
// returns the number of bytes written.
func Save(path string, buf *pixbuf.Buffer, registry *encoder.Registry, quality int) (int64, error) {
	enc, err := registry.ForPath(path)
	if err != nil {
		return 0, err
	}
	data, err := Encode(buf, enc, quality)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return int64(len(data)), nil
}

// Preview scales buf down so that its longest side is at most maxDim.
// Buffers that already fit are returned unchanged.
func Preview(buf *pixbuf.Buffer, maxDim int) (*pixbuf.Buffer, error) {
	if maxDim <= 0 {
		maxDim = DefaultPreviewDim
	}
	if buf.Width() <= maxDim && buf.Height() <= maxDim {
		return buf, nil
	}
	scaled := imaging.Fit(buf.Image(), maxDim, maxDim, imaging.Lanczos)
	return pixbuf.FromImage(scaled, pixbuf.LumaRec601)
}
