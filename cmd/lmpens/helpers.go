package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seki-lab/lmpens/internal/config"
	"github.com/seki-lab/lmpens/internal/logging"
)

// loadSetup resolves the config file and log level shared by all
// subcommands. The --log-level flag wins over config and environment.
func loadSetup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logging.NewLogger(cfg.Logging.Level, os.Stderr), nil
}

// rangeFromFlag converts a two-element flag value into (min, max).
func rangeFromFlag(name string, vals []float64) (float64, float64, error) {
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("--%s needs exactly two values (min,max), got %d", name, len(vals))
	}
	return vals[0], vals[1], nil
}
