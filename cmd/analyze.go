package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/graynorm/internal/imageio"
	"github.com/AnyUserName/graynorm/internal/normalize"
	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/spf13/cobra"
)

const sparklineWidth = 64

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Print tonal statistics of an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print statistics as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, args []string) error {
	luma, err := lumaMode()
	if err != nil {
		return err
	}
	buf, err := imageio.Load(args[0], luma)
	if err != nil {
		return err
	}
	logVerbose("loaded %s: %dx%d (%s)", args[0], buf.Width(), buf.Height(), luma)

	in := normalize.Analyze(buf, filepath.Base(args[0]))
	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(in.Stats)
	}

	fmt.Println()
	fmt.Print(indent(stats.Format(in.Stats, "Input metrics")))
	fmt.Printf("  %s\n", stats.Sparkline(in.Stats, sparklineWidth))
	fmt.Printf("  Suggested:  %s\n", normalize.DefaultParams(in.Stats))
	fmt.Println()
	return nil
}
