package bagger

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/bagger/internal/config"
	"github.com/aretw0/bagger/internal/platform"
	"github.com/aretw0/bagger/pkg/core"
)

// --- Types ---

// Params is a parsed parameter file.
type Params = config.File

// Inspection describes an exploded bag on disk.
type Inspection = platform.Inspection

// --- Configuration ---

// Option defines a functional option for configuring a build.
type Option = platform.Option

// WithLogger sets the logger for the pipeline, assembler and content source.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithEvents reports build progress on ch. The channel must be drained.
func WithEvents(ch chan<- core.Event) Option {
	return platform.WithEvents(ch)
}

// WithAssembler allows injecting a custom assembler.
func WithAssembler(factory core.AssemblerFactory) Option {
	return platform.WithAssembler(factory)
}

// WithVisitors replaces the default visitor chain.
func WithVisitors(visitors ...core.Visitor) Option {
	return platform.WithVisitors(visitors...)
}

// WithClock sets the clock used for Bagging-Date and resource map timestamps.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// WithForceTemp forces the output location into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the output sandbox used during `go run`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithIgnore adds doublestar patterns excluded from loaded content.
func WithIgnore(patterns ...string) Option {
	return platform.WithIgnore(patterns...)
}

// WithDebounce sets the quiet period used by Watch.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// --- Factory ---

// NewPipeline creates a pipeline with the BagIt assembler and default visitors.
func NewPipeline(opts ...Option) *core.Pipeline {
	return platform.NewPipeline(opts...)
}

// --- Operations ---

// LoadParams reads a YAML or JSONC parameter file.
func LoadParams(path string) (*Params, error) {
	return config.Load(path)
}

// FindParams looks upwards from startDir for a bagger parameter file.
func FindParams(startDir string) (string, error) {
	return platform.FindParams(startDir)
}

// Prepare loads the content named by f into a build request.
func Prepare(ctx context.Context, f *Params, opts ...Option) (core.Request, error) {
	return platform.Prepare(ctx, f, opts...)
}

// Build loads the content named by f and assembles its package. Exploded
// bags return a nil package.
func Build(ctx context.Context, f *Params, opts ...Option) (*core.Package, error) {
	return platform.Build(ctx, f, opts...)
}

// Watch rebuilds the package every time its content changes until ctx ends.
func Watch(ctx context.Context, f *Params, onBuild func(*core.Package, error), opts ...Option) error {
	return platform.Watch(ctx, f, onBuild, opts...)
}

// Inspect verifies an exploded bag and decodes its package state.
func Inspect(root string) (*Inspection, error) {
	return platform.Inspect(root)
}

// IsDevRun reports whether the process runs through `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
