package report

import (
	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/AnyUserName/graynorm/internal/tone"
)

// Report is the top-level output of a batch run.
type Report struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Preset      string           `json:"preset"`
	Format      string           `json:"format"`
	BasePath    string           `json:"base_path"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Entries     map[string]Entry `json:"entries"`
	Totals      Totals           `json:"totals"`
}

// BuildInfo captures run-time parameters for diagnostics.
type BuildInfo struct {
	Workers int    `json:"workers"`
	Shards  int    `json:"shards"`
	Luma    string `json:"luma"`
}

// Entry describes one source image and its normalized output.
type Entry struct {
	Source  Source           `json:"source"`
	Input   stats.Statistics `json:"input"`
	Output  stats.Statistics `json:"output"`
	Params  tone.Params      `json:"params"`
	Metrics Metrics          `json:"metrics"`
	Result  Output           `json:"result"`
}

// Source holds metadata about the original file.
type Source struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Output is the written, normalized file.
type Output struct {
	Path       string `json:"path"`       // relative to base_path
	Size       int64  `json:"size"`       // bytes on disk
	Hash       string `json:"hash"`       // xxhash64 of the encoded file
	BufferHash string `json:"pixel_hash"` // xxhash64 of the raw samples
}

// Metrics is stats.ChangeMetrics in a JSON-safe shape: infinite ratios are
// stored as null plus a flag.
type Metrics struct {
	ContrastGainRatio    *float64 `json:"contrast_gain_ratio"`
	ContrastGainInfinite bool     `json:"contrast_gain_infinite,omitempty"`
	StdDevGainRatio      *float64 `json:"stddev_gain_ratio"`
	StdDevGainInfinite   bool     `json:"stddev_gain_infinite,omitempty"`
	MeanDelta            float64  `json:"mean_delta"`
	EntropyDelta         float64  `json:"entropy_delta"`
}

// Totals aggregates run metrics.
type Totals struct {
	Images           int     `json:"images"`
	Failed           int     `json:"failed,omitempty"`
	TotalInputBytes  int64   `json:"total_input_bytes"`
	TotalOutputBytes int64   `json:"total_output_bytes"`
	TotalPixels      int64   `json:"total_pixels"`
	MeanContrastGain float64 `json:"mean_contrast_gain"` // over finite ratios only
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1
