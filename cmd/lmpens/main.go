package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lmpens",
		Short: "Implantation ensemble generator and depth analyzer",
		Long: `lmpens builds statistical ensembles of particle-implantation simulations.

It instantiates a templated simulator input N times with per-run randomized
parameters (injection position, seed), materializes each run into its own
directory, optionally drives the external simulator, and merges per-run
result files into a depth-distribution histogram.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file (default: lmpens.yaml in the working directory)")
	rootCmd.PersistentFlags().String("log-level", "", "Log verbosity: info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newGenerateCmd(),
		newHistCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
