package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/pointops"
	"github.com/born-ml/pointops/internal/config"
)

// app carries the state shared by every subcommand once flags and config
// have been resolved.
type app struct {
	configPath string
	device     string
	workers    int
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pointops",
		Short: "Point-cloud sampling, grouping and interpolation kernels",
		Long: `pointops runs the PointNet++ point-cloud primitives on point files.

Point files are .xyz/.txt (one "x y z" per line) or .safetensors with an
"xyz" or "points" tensor of shape (n, 3) or (b, n, 3).

Commands:
  • sample   furthest-point sampling
  • query    ball query around sampled centres
  • knn      three nearest neighbours and interpolation weights
  • devices  list compute backends`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: ~/.pointops/config.yaml or ./pointops.yaml)")
	flags.StringVar(&a.device, "device", "", "Compute device: cpu, webgpu, auto")
	flags.IntVar(&a.workers, "workers", 0, "CPU worker goroutines (0 = from config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newSampleCmd(a),
		newQueryCmd(a),
		newKNNCmd(a),
		newDevicesCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "pointops %s\n", version)
			},
		},
	)
	return rootCmd
}

// setup resolves the configuration (defaults < file < env < flags) and
// installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.device != "" {
		cfg.Device = a.device
	}
	if a.workers > 0 {
		cfg.Parallel.Workers = a.workers
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := setupLogging(cmd.ErrOrStderr(), cfg.Logging); err != nil {
		return err
	}
	slog.Debug("configuration loaded", "config", cfg.String())
	a.cfg = cfg
	return nil
}

// open selects the backend for a command.
func (a *app) open() (*pointops.Ops, error) {
	return pointops.Open(pointops.Config{
		Device:   a.cfg.Device,
		Parallel: a.cfg.ToParallel(),
	})
}

func setupLogging(w io.Writer, cfg config.LoggingConfig) error {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
