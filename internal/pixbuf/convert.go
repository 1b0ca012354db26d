package pixbuf

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Luma selects how color pixels are reduced to a single brightness value.
type Luma int

const (
	// LumaRec601 uses the ITU-R 601 weights of color.GrayModel.
	LumaRec601 Luma = iota
	// LumaLab uses CIE L* (perceptual lightness), scaled to 0..255.
	LumaLab
)

func (l Luma) String() string {
	switch l {
	case LumaLab:
		return "lab"
	default:
		return "rec601"
	}
}

// ParseLuma maps a flag value to a Luma. Empty selects LumaRec601.
func ParseLuma(s string) (Luma, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rec601", "601":
		return LumaRec601, nil
	case "lab", "lstar":
		return LumaLab, nil
	}
	return LumaRec601, fmt.Errorf("unknown luma model %q (want rec601 or lab)", s)
}

// FromImage converts any decoded image to a Buffer. *image.Gray sources
// are copied through unchanged.
func FromImage(img image.Image, luma Luma) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	samples := make([]uint8, w*h)

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			off := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(samples[y*w:(y+1)*w], g.Pix[off:off+w])
		}
		return Wrap(w, h, samples)
	}

	convert := rec601
	if luma == LumaLab {
		convert = lightness
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			samples[i] = convert(img.At(x, y))
			i++
		}
	}
	return Wrap(w, h, samples)
}

func rec601(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

func lightness(c color.Color) uint8 {
	// MakeColor rejects alpha == 0.
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	l, _, _ := cf.Lab()
	v := math.Round(l * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
