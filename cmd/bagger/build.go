package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aretw0/bagger"
	eventsource "github.com/aretw0/bagger/pkg/adapters/lifecycle"
	"github.com/aretw0/bagger/pkg/core"
)

var (
	buildParams paramFlags
	progress    bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [params-file | content-dir]",
	Short: "Assemble a package",
	Long: `Build loads the content tree, partitions its RDF graph and writes a BagIt
package. Without arguments the nearest bagger.yaml (or .yml, .json, .jsonc)
above the working directory is used.

Interrupting a build (Ctrl+C) exits with status 130.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := buildParams.load(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := append(buildParams.options(), bagger.WithLogger(slog.Default()))
		if progress {
			events := make(chan core.Event, 64)
			src := eventsource.NewSource(events, eventsource.WithFilter(func(e core.Event) bool {
				return verbose || e.Type != core.EventReserve
			}))
			if err := src.Start(ctx); err != nil {
				return err
			}
			done := make(chan struct{})
			go func() {
				defer close(done)
				for e := range src.Events() {
					fmt.Fprintln(cmd.ErrOrStderr(), e)
				}
			}()
			defer func() {
				close(events)
				<-done
			}()
			opts = append(opts, bagger.WithEvents(events))
		}

		pkg, err := bagger.Build(ctx, f, opts...)
		if err != nil {
			return err
		}
		return report(cmd, f, pkg)
	},
}

func report(cmd *cobra.Command, f *bagger.Params, pkg *core.Package) error {
	out := cmd.OutOrStdout()
	if pkg == nil {
		p := f.Parameters()
		fmt.Fprintf(out, "Bag written to %s\n", filepath.Join(p.Location, p.PackageName))
		return nil
	}
	size, err := pkg.Size()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Package %s (%s, %s)\n", pkg.Path, pkg.ContentType, humanize.Bytes(uint64(size)))
	return nil
}

func init() {
	buildParams.register(buildCmd)
	buildCmd.Flags().BoolVarP(&progress, "progress", "p", false, "Print build events to stderr")
	rootCmd.AddCommand(buildCmd)
}
