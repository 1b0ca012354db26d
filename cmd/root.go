package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/klauspost/cpuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "0.1.0"
	verbose bool
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "graynorm",
	Short: "Grayscale level and gamma normalizer",
	Long: `graynorm stretches the tonal range of grayscale images.

Measures each image (histogram, range, mean, spread, entropy), maps it
through a black/white/gamma tone curve and reports how contrast and
information content changed.`,
	Version: version,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logVerbose("%s, %d cores, avx2=%v", cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.AVX2())
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.graynorm.yaml)")
	rootCmd.PersistentFlags().String("luma", pixbuf.LumaRec601.String(), "gray conversion: rec601 or lab")
	viper.BindPFlag("luma", rootCmd.PersistentFlags().Lookup("luma"))

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"graynorm %s (%s/%s, %s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(), cpuid.CPU.BrandName,
	))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".graynorm")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.SetEnvPrefix("GRAYNORM")

	if err := viper.ReadInConfig(); err == nil {
		logVerbose("using config file: %s", viper.ConfigFileUsed())
	}
}

// bindFlags binds the named flags of c to viper keys of the same name.
func bindFlags(c *cobra.Command, names ...string) {
	for _, n := range names {
		viper.BindPFlag(n, c.Flags().Lookup(n))
	}
}

// lumaMode resolves the configured gray conversion.
func lumaMode() (pixbuf.Luma, error) {
	return pixbuf.ParseLuma(viper.GetString("luma"))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[graynorm] "+format+"\n", args...)
	}
}
