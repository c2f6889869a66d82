package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bagger/pkg/core"
)

var (
	verbose bool
)

// exitCancelled is returned when a build is interrupted (128 + SIGINT).
const exitCancelled = 130

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bagger",
	Short: "Assemble BagIt packages from content trees and their RDF descriptions",
	Long: `bagger walks a content tree, partitions its RDF graph into one description
per domain object and writes everything as a BagIt bag with an ORE resource map.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, core.ErrCancelled) {
		return exitCancelled
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
