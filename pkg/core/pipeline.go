package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/bagger/pkg/rdf"
)

// Request is the input of one build.
type Request struct {
	Tree     *Tree
	Graph    *rdf.Graph
	Params   Parameters
	Metadata *Fields
}

// Result is delivered by BuildAsync.
type Result struct {
	Package   *Package
	Err       error
	Cancelled bool
}

// AssemblerFactory creates a fresh assembler per build.
type AssemblerFactory func() Assembler

// Pipeline drives visitors over a content tree and hands the result to an assembler.
type Pipeline struct {
	newAssembler AssemblerFactory
	visitors     []Visitor
	logger       *slog.Logger
	events       chan<- Event

	mu          sync.RWMutex
	running     int
	builds      int
	failures    int
	cancelled   int
	lastPackage string
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the logger for the pipeline.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithEvents makes the pipeline report progress on ch. Sends block until
// received or the build context is done, so ch must be drained.
func WithEvents(ch chan<- Event) PipelineOption {
	return func(p *Pipeline) {
		p.events = ch
	}
}

// NewPipeline creates a new Pipeline. Visitors run in the given order.
func NewPipeline(factory AssemblerFactory, visitors []Visitor, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		newAssembler: factory,
		visitors:     visitors,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Build runs one synchronous build.
func (p *Pipeline) Build(ctx context.Context, req Request) (*Package, error) {
	p.mu.Lock()
	p.running++
	p.mu.Unlock()

	pkg, err := p.build(ctx, req)

	p.mu.Lock()
	p.running--
	p.builds++
	switch {
	case IsCancelled(err):
		p.cancelled++
	case err != nil:
		p.failures++
	case pkg != nil:
		p.lastPackage = pkg.Path
	}
	p.mu.Unlock()

	return pkg, err
}

func (p *Pipeline) build(ctx context.Context, req Request) (*Package, error) {
	if req.Tree == nil || req.Tree.Root() == nil {
		return nil, ConfigError("build", fmt.Errorf("%w: content tree", ErrMissingParameter))
	}
	if p.newAssembler == nil {
		return nil, ConfigError("build", fmt.Errorf("%w: assembler", ErrMissingParameter))
	}
	if err := checkStaging(req); err != nil {
		return nil, err
	}

	asm := p.newAssembler()
	bc := NewBuildContext(req, asm, p.logger.With("package", req.Params.PackageName))
	bc.emit = func(e Event) { p.emit(ctx, e) }

	bc.Emit(EventStart, req.Params.PackageName)
	pkg, err := p.run(ctx, bc)
	if err != nil {
		if IsCancelled(err) {
			bc.Logger.Warn("build cancelled", "error", err)
		} else {
			bc.Logger.Error("build failed", "error", err)
		}
		bc.Emit(EventFailed, req.Params.PackageName)
		return nil, err
	}
	bc.Emit(EventDone, req.Params.PackageName)
	return pkg, nil
}

func (p *Pipeline) run(ctx context.Context, bc *BuildContext) (*Package, error) {
	if err := CheckCancelled(ctx); err != nil {
		return nil, err
	}
	if err := bc.Assembler.Init(bc.Params, bc.Metadata); err != nil {
		return nil, err
	}

	for _, v := range p.visitors {
		if err := v.Init(ctx, bc); err != nil {
			return nil, err
		}
	}

	var visitErr error
	bc.Tree.Walk(func(n *Node) bool {
		if visitErr != nil || n.Ignored {
			return false
		}
		if err := CheckCancelled(ctx); err != nil {
			visitErr = err
			return false
		}
		for _, v := range p.visitors {
			if err := v.VisitNode(ctx, n, bc); err != nil {
				visitErr = err
				return false
			}
		}
		bc.Emit(EventVisit, n.Identifier)
		return true
	})
	if visitErr != nil {
		return nil, visitErr
	}

	for _, v := range p.visitors {
		if err := v.Finish(ctx, bc); err != nil {
			return nil, err
		}
	}
	bc.Emit(EventFinish, bc.ResourceMapURI)

	if err := CheckCancelled(ctx); err != nil {
		return nil, err
	}
	bc.Emit(EventAssemble, bc.Params.PackageName)
	pkg, err := bc.Assembler.AssemblePackage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if !IsCancelled(err) {
				return nil, Cancelled(err)
			}
		}
		return nil, err
	}
	if pkg != nil {
		bc.Logger.Info("package assembled", "path", pkg.Path, "content_type", pkg.ContentType)
	} else {
		bc.Logger.Info("package left exploded", "location", bc.Params.Location)
	}
	return pkg, nil
}

// checkStaging rejects a staging directory <location>/<name> that is, contains
// or lies inside any file or directory of the content tree. Assemblers
// recreate the staging directory, so an overlap would destroy the content.
func checkStaging(req Request) error {
	if strings.TrimSpace(req.Params.Location) == "" || strings.TrimSpace(req.Params.PackageName) == "" {
		return nil
	}
	location, err := filepath.Abs(req.Params.Location)
	if err != nil {
		return nil
	}
	staging := filepath.Join(location, req.Params.PackageName)

	for _, n := range req.Tree.Nodes() {
		if n.File == nil || n.File.Location == "" {
			continue
		}
		loc, err := filepath.Abs(n.File.Location)
		if err != nil {
			continue
		}
		if within(staging, loc) || within(loc, staging) {
			return ConfigError("build", fmt.Errorf("%w: %s and %s", ErrStagingOverlap, staging, loc))
		}
	}
	return nil
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// BuildAsync runs Build on a background worker. The channel receives one
// Result and is then closed; a panicking build closes it without a Result.
func (p *Pipeline) BuildAsync(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)
	if err := CheckCancelled(ctx); err != nil {
		out <- Result{Err: err, Cancelled: true}
		close(out)
		return out
	}
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		pkg, err := p.Build(ctx, req)
		out <- Result{Package: pkg, Err: err, Cancelled: IsCancelled(err)}
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		p.logger.Error("async build panic", "error", err)
	}))
	return out
}

func (p *Pipeline) emit(ctx context.Context, e Event) {
	if p.events == nil {
		return
	}
	select {
	case p.events <- e:
	case <-ctx.Done():
	}
}
