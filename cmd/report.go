package cmd

import (
	"fmt"
	"sort"

	"github.com/AnyUserName/graynorm/internal/report"
	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <out_dir_or_report>",
	Short: "Display a summary of a batch report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, args []string) error {
	r, path, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}
	logVerbose("report: %s", path)
	printReport(r)
	return nil
}

func printReport(r *report.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Preset:           %s\n", r.Preset)
	fmt.Printf("  Format:           %s\n", r.Format)
	if r.BuildInfo != nil {
		fmt.Printf("  Workers:          %d  (shards %d, luma %s)\n", r.BuildInfo.Workers, r.BuildInfo.Shards, r.BuildInfo.Luma)
	}
	fmt.Println()

	t := r.Totals
	fmt.Printf("  Images:           %d\n", t.Images)
	if t.Failed > 0 {
		fmt.Printf("  Failed:           %d\n", t.Failed)
	}
	fmt.Printf("  Pixels:           %d\n", t.TotalPixels)
	fmt.Printf("  Input size:       %s\n", formatBytes(t.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(t.TotalOutputBytes))
	fmt.Printf("  Mean range gain:  ×%.2f\n", t.MeanContrastGain)
	fmt.Println()

	keys := make([]string, 0, len(r.Entries))
	for k := range r.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("  Per image (range in → out, entropy Δ, params):")
	for _, k := range keys {
		e := r.Entries[k]
		fmt.Printf("    %-32s %3d → %3d  %+.3f  %s\n",
			truncKey(k, 32), e.Input.DynamicRange, e.Output.DynamicRange, e.Metrics.EntropyDelta, e.Params)
	}
	fmt.Println()

	// Images that did not gain anything are worth a look.
	var warnings []string
	for _, k := range keys {
		e := r.Entries[k]
		if e.Input.PixelCount == 0 {
			warnings = append(warnings, fmt.Sprintf("image %q has no pixels", k))
			continue
		}
		if e.Output.DynamicRange <= e.Input.DynamicRange && e.Input.DynamicRange < 255 {
			warnings = append(warnings, fmt.Sprintf("image %q: range not widened (%d)", k, e.Input.DynamicRange))
		}
		if e.Output.UsedBins < e.Input.UsedBins {
			warnings = append(warnings, fmt.Sprintf("image %q: %d levels merged", k, e.Input.UsedBins-e.Output.UsedBins))
		}
	}
	if len(warnings) > 0 {
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
		fmt.Println()
	}

	if len(keys) == 1 {
		e := r.Entries[keys[0]]
		fmt.Print(indent(stats.FormatMetrics(e.Input, e.Output, e.Metrics.Change())))
		fmt.Println()
	}
}
