// Package pipeline normalizes every image of a directory tree and
// collects the results into a report.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/AnyUserName/graynorm/internal/encoder"
	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/AnyUserName/graynorm/internal/preset"
	"github.com/AnyUserName/graynorm/internal/report"
	"github.com/pbnjay/memory"
)

// WorkerBudgetMB is the memory one worker may need for a large image:
// decoded source, gray input, gray output and the encoded bytes.
const WorkerBudgetMB = 256

// Logf receives progress lines. Nil discards them.
type Logf func(format string, args ...any)

// Config holds all parameters for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Preset    preset.Preset
	Overrides preset.Overrides
	Format    string // output format name
	Quality   int    // JPEG quality, 0 = default
	Luma      pixbuf.Luma
	Workers   int // parallel images, 0 = NumCPU capped by memory
	Shards    int // goroutines per image for histogram and remap
	Log       Logf
}

// Pipeline orchestrates batch normalization.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers(memory.TotalMemory())
	}
	if cfg.Format == "" {
		cfg.Format = "png"
	}
	if cfg.Preset.Name == "" {
		cfg.Preset = preset.Get(preset.DefaultName)
	}
	if cfg.Log == nil {
		cfg.Log = func(string, ...any) {}
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(),
	}
}

// DefaultWorkers is NumCPU, reduced so that all workers fit in half of
// totalBytes of RAM. Unknown memory (0) leaves NumCPU.
func DefaultWorkers(totalBytes uint64) int {
	workers := runtime.NumCPU()
	if totalBytes == 0 {
		return workers
	}
	fit := int(totalBytes/2/(1024*1024)) / WorkerBudgetMB
	if fit < 1 {
		fit = 1
	}
	return min(workers, fit)
}

// Workers reports the effective worker count.
func (p *Pipeline) Workers() int { return p.cfg.Workers }

// Run executes the batch and returns the report. Cancelling ctx stops
// scheduling new images; images already in flight complete.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	enc := p.registry.Get(p.cfg.Format)
	if enc == nil {
		return nil, fmt.Errorf("unknown output format %q (%s)", p.cfg.Format, p.registry)
	}

	// Step 1: Scan for images.
	sources, err := ScanImages(p.cfg.InputDir, p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	p.cfg.Log("found %d images, %d workers, %s", len(sources), p.cfg.Workers, p.registry)

	// Step 2: Process images in parallel.
	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		if !acquire(ctx, sem) {
			for j := i; j < len(sources); j++ {
				results[j] = processResult{key: sources[j].Key, err: ctx.Err()}
			}
			break
		}

		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			defer func() { <-sem }() // release

			p.cfg.Log("processing: %s", s.Key)
			results[idx] = processImage(s, p.cfg, enc)
			if r := results[idx]; r.err == nil {
				p.cfg.Log("done: %s (%s)", s.Key, r.entry.Params)
			}
		}(i, src)
	}
	wg.Wait()

	// Step 3: Collect results into the report.
	rep := report.New(p.cfg.Preset.Name, enc.Format())

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if _, dup := rep.Entries[r.key]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate report key", r.key))
			continue
		}
		rep.Entries[r.key] = r.entry
	}

	// Report errors but don't fail the entire batch for partial failures.
	if len(errs) > 0 {
		for _, e := range errs {
			p.cfg.Log("error: %v", e)
		}
		if len(errs) == len(sources) {
			return nil, fmt.Errorf("all %d images failed to process: %w", len(errs), errs[0])
		}
		p.cfg.Log("warning: %d of %d images had errors", len(errs), len(sources))
	}

	rep.BuildInfo = &report.BuildInfo{
		Workers: p.cfg.Workers,
		Shards:  p.cfg.Shards,
		Luma:    p.cfg.Luma.String(),
	}
	rep.Totals.Failed = len(errs)
	rep.ComputeTotals()
	return rep, nil
}

// acquire takes a worker slot, or reports false once ctx is done.
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case sem <- struct{}{}:
		return true
	}
}
