package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/unixpickle/skin-d/skind"
	"go.uber.org/zap"
)

var (
	cfgPath  string
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "skind",
	Short: "Build training data for learned skin deformation",
	Long: `skind reduces an expensive multi-influence skin deformation to a
single-influence skeleton plus per-joint training data for a learned
offset model.

The pipeline runs on a baked scene file exported by the host:

  skind simplify   collapse every vertex to one driving joint
  skind sample     record per-joint (transform, offsets) samples
  skind dataset    assemble per-joint training matrices`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "skind.yaml",
		"path to the pipeline config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the config's log level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"override the config's log file")
	rootCmd.AddCommand(simplifyCmd, sampleCmd, datasetCmd)
}

// setup loads the config and builds the logger shared by all subcommands.
func setup() (*skind.Config, *zap.Logger, error) {
	cfg, err := skind.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	file := cfg.Logging.File
	if logFile != "" {
		file = logFile
	}
	return cfg, newLogger(level, file), nil
}

func logDiagnostics(log *zap.Logger, report *skind.Report) {
	for _, d := range report.Diagnostics {
		log.Warn("diagnostic",
			zap.Int("vertex", d.Vertex),
			zap.String("joint", d.Joint),
			zap.Error(d.Err))
	}
}
