package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/AnyUserName/graynorm/internal/pipeline"
	"github.com/AnyUserName/graynorm/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchOutDir string

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Normalize every image in a directory and write a report",
	Long: `Scans input directory for images (png, jpg, jpeg, gif, bmp, tif, tiff,
webp), normalizes each with the selected preset and writes the results
plus a JSON report to the output directory.

Output filenames are content-addressed: <key>.<hash>.<ext>`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutDir, "out", "o", "./graynorm_out", "output directory")
	addToneFlags(batchCmd)
	batchCmd.Flags().StringP("format", "f", "png", "output format: png, jpeg, tiff or bmp")
	batchCmd.Flags().IntP("workers", "w", 0, "parallel images (0 = NumCPU, capped by memory)")
	batchCmd.Flags().Int("shards", 0, "goroutines per image (0 = sequential)")
	batchCmd.Flags().IntP("quality", "q", 0, "JPEG quality 1-100 (0 = default)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(c *cobra.Command, args []string) error {
	bindFlags(c, "preset", "format", "workers", "shards", "quality")
	start := time.Now()

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(batchOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	luma, err := lumaMode()
	if err != nil {
		return err
	}
	prs := resolvePreset()

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("preset:  %s (gamma=%.2f, clip=%.3f)", prs.Name, prs.Gamma, prs.ClipTail)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(pipeline.Config{
		InputDir:  absInput,
		OutputDir: absOutput,
		Preset:    prs,
		Overrides: toneOverrides(c),
		Format:    viper.GetString("format"),
		Quality:   viper.GetInt("quality"),
		Luma:      luma,
		Workers:   viper.GetInt("workers"),
		Shards:    viper.GetInt("shards"),
		Log:       logVerbose,
	})

	rep, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	reportPath := filepath.Join(absOutput, report.FileName)
	if err := report.WriteJSON(rep, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	printBatchReport(rep, time.Since(start))
	return nil
}

func printBatchReport(r *report.Report, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║            graynorm batch complete               ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	t := r.Totals
	fmt.Printf("  Images:      %d\n", t.Images)
	if t.Failed > 0 {
		fmt.Printf("  Failed:      %d\n", t.Failed)
	}
	fmt.Printf("  Pixels:      %d\n", t.TotalPixels)
	fmt.Printf("  Input size:  %s\n", formatBytes(t.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(t.TotalOutputBytes))
	fmt.Printf("  Mean gain:   ×%.2f dynamic range\n", t.MeanContrastGain)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if r.BuildInfo != nil {
		fmt.Printf("  Workers:     %d  (shards %d, luma %s)\n", r.BuildInfo.Workers, r.BuildInfo.Shards, r.BuildInfo.Luma)
	}
	fmt.Println()

	printLargestGains(r, 10)

	data, _ := json.Marshal(r)
	fmt.Printf("  Report:      %s (%s)\n", report.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

// printLargestGains lists the n entries whose dynamic range grew most.
func printLargestGains(r *report.Report, n int) {
	if len(r.Entries) == 0 {
		return
	}
	type gainInfo struct {
		key     string
		in, out int
	}
	var items []gainInfo
	for key, e := range r.Entries {
		items = append(items, gainInfo{key, e.Input.DynamicRange, e.Output.DynamicRange})
	}
	sort.Slice(items, func(i, j int) bool {
		gi, gj := items[i].out-items[i].in, items[j].out-items[j].in
		if gi != gj {
			return gi > gj
		}
		return items[i].key < items[j].key
	})
	n = min(n, len(items))
	fmt.Printf("  Top %d range gains (input → output):\n", n)
	for _, it := range items[:n] {
		fmt.Printf("    %-40s %3d → %3d\n", truncKey(it.key, 40), it.in, it.out)
	}
	fmt.Println()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
