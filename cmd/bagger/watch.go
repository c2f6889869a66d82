package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/bagger"
	"github.com/aretw0/bagger/pkg/core"
)

var (
	watchParams paramFlags
	debounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [params-file | content-dir]",
	Short: "Rebuild the package whenever its content changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := watchParams.load(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("watching", "root", f.Content.Root)
		opts := append(watchParams.options(),
			bagger.WithLogger(slog.Default()),
			bagger.WithDebounce(debounce))
		return bagger.Watch(ctx, f, func(pkg *core.Package, err error) {
			if err != nil {
				slog.Error("build failed", "error", err)
				return
			}
			if rerr := report(cmd, f, pkg); rerr != nil {
				slog.Error("report failed", "error", rerr)
			}
		}, opts...)
	},
}

func init() {
	watchParams.register(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", 250*time.Millisecond, "Quiet period before a rebuild")
	rootCmd.AddCommand(watchCmd)
}
