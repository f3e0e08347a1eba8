package commands

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "stylebench",
	Short: "Speaking style recognition benchmark",
	Long: `stylebench embeds labelled audio clips with a bank of harmonic
Goertzel filters, trains a nearest-neighbour recognizer on one corpus and
reports accuracy and a confusion matrix on another.

Corpora are CSV manifests with a path column and a label (or transcript)
column. WAV is decoded natively, other formats need ffmpeg on PATH.

Examples:
  stylebench evaluate --train data/train.csv --test data/test.csv
  stylebench evaluate --train train.csv --test test.csv --metric cosine --normalize
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			logging.SetGlobalLogger(logging.NewDefaultLoggerNoColor())
		}
		if logLevel != "" {
			logging.SetLevel(logging.ParseLevel(logLevel))
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads --config, or returns defaults
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(cfgFile)
}
