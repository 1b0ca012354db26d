// Package preset holds named ways of choosing tone curve parameters from
// an image's statistics.
package preset

import (
	"sort"

	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/AnyUserName/graynorm/internal/tone"
)

// DefaultName is used when no preset is requested or the name is unknown.
const DefaultName = "auto"

// Preset describes how to derive levels and gamma.
type Preset struct {
	Name  string
	Gamma float64
	// ClipTail is the fraction of samples clipped at each end (0 uses the
	// exact min/max).
	ClipTail float64
	// Fixed uses the full 0..255 window instead of the image extrema.
	Fixed bool
}

// Built-in presets.
var presets = map[string]Preset{
	"auto":     {Name: "auto", Gamma: 1.0},
	"identity": {Name: "identity", Gamma: 1.0, Fixed: true},
	"brighten": {Name: "brighten", Gamma: 1.4},
	"darken":   {Name: "darken", Gamma: 0.7},
	"clip":     {Name: "clip", Gamma: 1.0, ClipTail: 0.005},
}

// Get returns a preset by name. Falls back to auto if unknown.
func Get(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	p := presets[DefaultName]
	p.Name = name // preserve requested name
	return p
}

// Known reports whether name is a built-in preset.
func Known(name string) bool {
	_, ok := presets[name]
	return ok
}

// Names lists the built-in presets alphabetically.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Overrides replace individual preset fields. Nil fields are not applied.
type Overrides struct {
	Black *int
	White *int
	Gamma *float64
}

// Resolve derives curve parameters for an image with statistics st.
func (p Preset) Resolve(st stats.Statistics, o Overrides) tone.Params {
	black, white := 0, 255
	if !p.Fixed && st.PixelCount > 0 {
		black, white = int(st.Min), int(st.Max)
		if p.ClipTail > 0 {
			h := st.Histogram
			black = int(h.Percentile(p.ClipTail))
			white = int(h.Percentile(1 - p.ClipTail))
		}
	}
	gamma := p.Gamma
	if o.Black != nil {
		black = *o.Black
	}
	if o.White != nil {
		white = *o.White
	}
	if o.Gamma != nil {
		gamma = *o.Gamma
	}
	return tone.NewParams(black, white, gamma)
}
