package cmd

import (
	"github.com/AnyUserName/graynorm/internal/rest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analysis and normalization over HTTP",
	Long: `Starts an HTTP API:

  GET  /api/v1/ping
  GET  /api/v1/presets
  POST /api/v1/stats       multipart "image"
  POST /api/v1/normalize   multipart "image", optional black, white,
                           gamma, preset, format; ?report=json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("listen", "l", ":8080", "listen address")
	serveCmd.Flags().Int("shards", 0, "goroutines per image (0 = sequential)")
	serveCmd.Flags().IntP("quality", "q", 0, "JPEG quality 1-100 (0 = default)")
	serveCmd.Flags().Int("max-pixels", rest.DefaultMaxPixels, "reject uploads declaring more pixels")
	rootCmd.AddCommand(serveCmd)
}

func runServe(c *cobra.Command, _ []string) error {
	bindFlags(c, "listen", "shards", "quality", "max-pixels")
	luma, err := lumaMode()
	if err != nil {
		return err
	}
	cfg := rest.Config{
		Addr:      viper.GetString("listen"),
		Luma:      luma,
		Shards:    viper.GetInt("shards"),
		Quality:   viper.GetInt("quality"),
		Verbose:   verbose,
		MaxPixels: viper.GetInt("max-pixels"),
	}
	logVerbose("listening on %s", cfg.Addr)
	return rest.New(cfg).Run()
}
