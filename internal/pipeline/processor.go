package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/AnyUserName/graynorm/internal/encoder"
	"github.com/AnyUserName/graynorm/internal/hasher"
	"github.com/AnyUserName/graynorm/internal/imageio"
	"github.com/AnyUserName/graynorm/internal/normalize"
	"github.com/AnyUserName/graynorm/internal/report"
)

// processResult holds the result of processing a single source image.
type processResult struct {
	key   string
	entry report.Entry
	err   error
}

// processImage handles a single source image: decode, analyze, normalize,
// encode, write.
func processImage(src Source, cfg Config, enc encoder.Encoder) processResult {
	result := processResult{key: src.Key}

	buf, err := imageio.Load(src.AbsPath, cfg.Luma)
	if err != nil {
		result.err = err
		return result
	}

	opts := normalize.Options{Shards: cfg.Shards}
	in := normalize.Analyze(buf, path.Base(src.RelPath))
	params := cfg.Preset.Resolve(in.Stats, cfg.Overrides)
	res := normalize.Normalize(in, params, opts)

	data, err := imageio.Encode(res.Output.Buffer, enc, cfg.Quality)
	if err != nil {
		result.err = fmt.Errorf("%s: %w", src.RelPath, err)
		return result
	}

	// Content hash for filename: key.hash.ext
	contentHash := hasher.ContentHash(data, hasher.DefaultHexLen)
	relPath := fmt.Sprintf("%s.%s.%s", src.Key, contentHash[:8], enc.Extension())

	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.err = fmt.Errorf("create dir for %s: %w", relPath, err)
		return result
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		result.err = fmt.Errorf("write %s: %w", relPath, err)
		return result
	}

	result.entry = report.Entry{
		Source: report.Source{
			Path:   src.RelPath,
			Format: src.Format,
			Size:   src.Size,
		},
		Input:   in.Stats,
		Output:  res.Output.Stats,
		Params:  res.Params,
		Metrics: report.FromChange(res.Metrics),
		Result: report.Output{
			Path:       relPath,
			Size:       int64(len(data)),
			Hash:       contentHash,
			BufferHash: hasher.BufferHash(res.Output.Buffer, hasher.DefaultHexLen),
		},
	}
	return result
}
