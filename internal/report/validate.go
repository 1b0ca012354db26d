package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/graynorm/internal/stats"
)

// Validate checks r for internal consistency and verifies that every
// output file exists under baseDir with the recorded size. It returns one
// message per problem found.
func Validate(r *Report, baseDir string) []string {
	var errs []string

	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	seenPaths := map[string]string{}
	for key, e := range r.Entries {
		errs = append(errs, checkStats(key, "input", e.Input)...)
		errs = append(errs, checkStats(key, "output", e.Output)...)

		if e.Input.Width != e.Output.Width || e.Input.Height != e.Output.Height {
			errs = append(errs, fmt.Sprintf("entry %q: output %dx%d differs from input %dx%d",
				key, e.Output.Width, e.Output.Height, e.Input.Width, e.Input.Height))
		}
		if e.Params.White < e.Params.Black || e.Params.Gamma <= 0 {
			errs = append(errs, fmt.Sprintf("entry %q: invalid params %v", key, e.Params))
		}
		if e.Metrics.ContrastGainRatio == nil && !e.Metrics.ContrastGainInfinite {
			errs = append(errs, fmt.Sprintf("entry %q: missing contrast gain", key))
		}
		if e.Result.Hash == "" {
			errs = append(errs, fmt.Sprintf("entry %q: missing hash", key))
		}
		if e.Result.Path == "" {
			errs = append(errs, fmt.Sprintf("entry %q: missing path", key))
			continue
		}

		if other, dup := seenPaths[e.Result.Path]; dup {
			errs = append(errs, fmt.Sprintf("entry %q: path %q already used by %q", key, e.Result.Path, other))
		}
		seenPaths[e.Result.Path] = key

		fullPath := filepath.Join(baseDir, filepath.FromSlash(e.Result.Path))
		info, err := os.Stat(fullPath)
		if err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: file not found: %s", key, e.Result.Path))
		} else if e.Result.Size > 0 && info.Size() != e.Result.Size {
			errs = append(errs, fmt.Sprintf("entry %q: size mismatch: report=%d, disk=%d",
				key, e.Result.Size, info.Size()))
		}
	}

	if r.Totals.Images != len(r.Entries) {
		errs = append(errs, fmt.Sprintf("totals.images mismatch: %d != %d", r.Totals.Images, len(r.Entries)))
	}
	return errs
}

func checkStats(key, side string, st stats.Statistics) []string {
	var errs []string
	if st.PixelCount != st.Width*st.Height {
		errs = append(errs, fmt.Sprintf("entry %q %s: pixel count %d != %dx%d",
			key, side, st.PixelCount, st.Width, st.Height))
	}
	if total := st.Histogram.Total(); total != uint64(st.PixelCount) {
		errs = append(errs, fmt.Sprintf("entry %q %s: histogram total %d != pixel count %d",
			key, side, total, st.PixelCount))
	}
	if st.Min > st.Max || st.DynamicRange != int(st.Max)-int(st.Min) {
		errs = append(errs, fmt.Sprintf("entry %q %s: inconsistent range min=%d max=%d dynamic=%d",
			key, side, st.Min, st.Max, st.DynamicRange))
	}
	if st.Entropy < 0 || st.Entropy > 8+1e-9 {
		errs = append(errs, fmt.Sprintf("entry %q %s: entropy %.3f outside [0, 8]", key, side, st.Entropy))
	}
	return errs
}
