package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/bagger/pkg/core"
)

// options holds the internal configuration for a bagger build.
type options struct {
	logger    *slog.Logger
	events    chan<- core.Event
	assembler core.AssemblerFactory
	visitors  []core.Visitor
	now       func() time.Time
	config    map[string]any
}

// Option defines a functional option for configuring bagger.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		config: make(map[string]any),
	}
}

func apply(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the pipeline, assembler and content source.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEvents reports build progress on ch. The channel must be drained.
func WithEvents(ch chan<- core.Event) Option {
	return func(o *options) {
		o.events = ch
	}
}

// WithAssembler replaces the BagIt filesystem assembler (e.g. with a mock).
func WithAssembler(factory core.AssemblerFactory) Option {
	return func(o *options) {
		o.assembler = factory
	}
}

// WithVisitors replaces the default visitor chain.
func WithVisitors(visitors ...core.Visitor) Option {
	return func(o *options) {
		o.visitors = visitors
	}
}

// WithClock sets the clock used for Bagging-Date and resource map timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithForceTemp forces the output location into a temporary directory
// (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true), output is redirected to a temporary directory so a dev
// run never overwrites a real package. Setting this to false writes to the
// configured location even during `go run`.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithIgnore adds doublestar patterns excluded from loaded content.
func WithIgnore(patterns ...string) Option {
	return func(o *options) {
		existing, _ := o.config["ignore"].([]string)
		o.config["ignore"] = append(existing, patterns...)
	}
}

// WithDebounce sets the quiet period of content watchers.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}
