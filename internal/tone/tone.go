// Package tone builds the levels + gamma lookup table.
//
// A curve maps [Black, White] linearly onto [0, 255], clips everything
// outside that window and then bends the interior with x^(1/Gamma):
// Gamma > 1 brightens midtones, Gamma < 1 darkens them.
package tone

import (
	"fmt"
	"math"
)

// MinGamma is the floor applied to non-positive or NaN gamma values.
const MinGamma = 1e-6

// Params are normalized curve parameters. The zero value is not valid;
// use NewParams.
type Params struct {
	Black uint8   `json:"black"`
	White uint8   `json:"white"`
	Gamma float64 `json:"gamma"`
}

// NewParams saturates black and white to [0, 255], then forces
// white > black (white = min(255, black+1)), and floors gamma at MinGamma.
func NewParams(black, white int, gamma float64) Params {
	b := saturate(black)
	w := saturate(white)
	if w <= b {
		w = b + 1
		if b == 255 {
			w = 255
		}
	}
	if math.IsNaN(gamma) || gamma < MinGamma {
		gamma = MinGamma
	}
	return Params{Black: b, White: w, Gamma: gamma}
}

func saturate(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (p Params) String() string {
	return fmt.Sprintf("black=%d white=%d gamma=%.2f", p.Black, p.White, p.Gamma)
}

// LUT maps every input level to an output level.
type LUT [256]uint8

// Build evaluates the curve once per input level.
func Build(p Params) LUT {
	var lut LUT
	span := float64(p.White) - float64(p.Black)
	invGamma := 1.0 / math.Max(MinGamma, p.Gamma)

	for i := 0; i < 256; i++ {
		switch {
		case i <= int(p.Black):
			lut[i] = 0
		case i >= int(p.White):
			lut[i] = 255
		default:
			x := (float64(i) - float64(p.Black)) / span
			if p.Gamma != 1.0 {
				x = math.Pow(x, invGamma)
			}
			v := math.RoundToEven(x * 255)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			lut[i] = uint8(v)
		}
	}
	return lut
}

// BuildCurve normalizes raw parameters and builds their table.
func BuildCurve(black, white uint8, gamma float64) LUT {
	return Build(NewParams(int(black), int(white), gamma))
}

// Identity returns the table that maps every level to itself.
func Identity() LUT {
	var lut LUT
	for i := range lut {
		lut[i] = uint8(i)
	}
	return lut
}

// IsMonotone reports whether the table never decreases.
func (l *LUT) IsMonotone() bool {
	for i := 1; i < len(l); i++ {
		if l[i] < l[i-1] {
			return false
		}
	}
	return true
}
