package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/AnyUserName/graynorm/internal/encoder"
	"github.com/AnyUserName/graynorm/internal/imageio"
	"github.com/AnyUserName/graynorm/internal/normalize"
	"github.com/AnyUserName/graynorm/internal/preset"
	"github.com/AnyUserName/graynorm/internal/stats"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var normPreview int

var normalizeCmd = &cobra.Command{
	Use:   "normalize <input> <output>",
	Short: "Remap one image through a black/white/gamma tone curve",
	Long: `Loads an image as grayscale, derives black and white levels from the
selected preset (auto uses the image's own min and max), applies the
tone curve and writes the result. The output format follows the output
extension: .png, .jpg, .jpeg, .tif, .tiff or .bmp.

--black, --white and --gamma override the preset per field.`,
	Args: cobra.ExactArgs(2),
	RunE: runNormalize,
}

func init() {
	addToneFlags(normalizeCmd)
	normalizeCmd.Flags().Int("quality", encoder.DefaultJPEGQuality, "JPEG quality 1-100")
	normalizeCmd.Flags().Int("shards", 0, "goroutines for histogram and remap (0 = sequential)")
	normalizeCmd.Flags().IntVar(&normPreview, "preview", 0, "also write a preview scaled to this size (0 = none)")
	rootCmd.AddCommand(normalizeCmd)
}

// addToneFlags registers the preset selector and per-field overrides.
func addToneFlags(c *cobra.Command) {
	c.Flags().StringP("preset", "p", preset.DefaultName, "parameter preset: "+strings.Join(preset.Names(), ", "))
	c.Flags().Int("black", 0, "black level override 0-255")
	c.Flags().Int("white", 255, "white level override 0-255")
	c.Flags().Float64("gamma", 1.0, "gamma override (>1 brightens midtones)")
}

// toneOverrides collects only the override flags the user actually set.
func toneOverrides(c *cobra.Command) preset.Overrides {
	var o preset.Overrides
	f := c.Flags()
	if f.Changed("black") {
		v, _ := f.GetInt("black")
		o.Black = &v
	}
	if f.Changed("white") {
		v, _ := f.GetInt("white")
		o.White = &v
	}
	if f.Changed("gamma") {
		v, _ := f.GetFloat64("gamma")
		o.Gamma = &v
	}
	return o
}

// resolvePreset looks up the configured preset, warning about unknown names.
func resolvePreset() preset.Preset {
	name := viper.GetString("preset")
	if !preset.Known(name) {
		logVerbose("unknown preset %q, using %s", name, preset.DefaultName)
	}
	return preset.Get(name)
}

func runNormalize(c *cobra.Command, args []string) error {
	bindFlags(c, "preset", "quality", "shards")
	inPath, outPath := args[0], args[1]
	start := time.Now()

	luma, err := lumaMode()
	if err != nil {
		return err
	}
	registry := encoder.NewRegistry()
	if _, err := registry.ForPath(outPath); err != nil {
		return err
	}

	buf, err := imageio.Load(inPath, luma)
	if err != nil {
		return err
	}
	logVerbose("loaded %s: %dx%d (%s)", inPath, buf.Width(), buf.Height(), luma)

	in := normalize.Analyze(buf, filepath.Base(inPath))
	prs := resolvePreset()
	params := prs.Resolve(in.Stats, toneOverrides(c))
	logVerbose("preset %s → %s", prs.Name, params)

	res := normalize.Normalize(in, params, normalize.Options{Shards: viper.GetInt("shards")})

	size, err := imageio.Save(outPath, res.Output.Buffer, registry, viper.GetInt("quality"))
	if err != nil {
		return err
	}

	if normPreview > 0 {
		if err := writePreview(outPath, res, registry); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Print(indent(stats.Format(in.Stats, "Input")))
	fmt.Println()
	fmt.Print(indent(stats.Format(res.Output.Stats, "Output")))
	fmt.Println()
	fmt.Printf("  Parameters: %s\n", res.Params)
	fmt.Print(indent(stats.FormatMetrics(in.Stats, res.Output.Stats, res.Metrics)))
	fmt.Println()
	fmt.Printf("  Wrote %s (%s) in %s\n", outPath, formatBytes(size), time.Since(start).Round(time.Millisecond))
	fmt.Println()
	return nil
}

// writePreview saves a scaled copy next to outPath as <name>.preview<ext>.
func writePreview(outPath string, res normalize.Result, registry *encoder.Registry) error {
	small, err := imageio.Preview(res.Output.Buffer, normPreview)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	ext := filepath.Ext(outPath)
	path := strings.TrimSuffix(outPath, ext) + ".preview" + ext
	if _, err := imageio.Save(path, small, registry, viper.GetInt("quality")); err != nil {
		return err
	}
	logVerbose("preview: %s (%dx%d)", path, small.Width(), small.Height())
	return nil
}

// indent prefixes every line of s with two spaces.
func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString("  ")
		b.WriteString(l)
	}
	return b.String()
}
