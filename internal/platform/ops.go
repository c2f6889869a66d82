package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/bagger/internal/config"
	"github.com/aretw0/bagger/pkg/adapters/fs"
	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/rdf"
	"github.com/aretw0/bagger/pkg/state"
)

// Prepare loads the content named by a parameter file into a build request.
// The extra graph file, when set, is merged into the loaded graph.
func Prepare(ctx context.Context, f *config.File, opts ...Option) (core.Request, error) {
	o := apply(opts)
	return o.prepare(ctx, f)
}

func (o *options) prepare(ctx context.Context, f *config.File) (core.Request, error) {
	if f.Content.Root == "" {
		return core.Request{}, core.ConfigError("prepare", fmt.Errorf("%w: content root", core.ErrMissingParameter))
	}
	src, err := o.source(f.Content.Ignore)
	if err != nil {
		return core.Request{}, err
	}
	tree, graph, err := src.Load(ctx, f.Content.Root)
	if err != nil {
		return core.Request{}, err
	}

	if f.Content.Graph != "" {
		extra, err := readGraph(f.Content.Graph)
		if err != nil {
			return core.Request{}, err
		}
		graph.Merge(extra)
	}

	params := f.Parameters()
	params.Location = ResolveLocation(params.Location, o.sandboxed())
	if o.logger != nil && params.Location != f.Package.Location {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_location", f.Package.Location, "location", params.Location)
	}

	return core.Request{
		Tree:     tree,
		Graph:    graph,
		Params:   params,
		Metadata: f.Metadata.Fields(),
	}, nil
}

func readGraph(path string) (*rdf.Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, core.IOError("read graph", path, err)
	}
	defer file.Close()
	g, err := rdf.ReadNTriples(file)
	if err != nil {
		return nil, core.ConfigError("read graph", fmt.Errorf("%s: %w", path, err))
	}
	return g, nil
}

// Build prepares and builds the package described by a parameter file.
func Build(ctx context.Context, f *config.File, opts ...Option) (*core.Package, error) {
	o := apply(opts)
	req, err := o.prepare(ctx, f)
	if err != nil {
		return nil, err
	}
	return o.pipeline().Build(ctx, req)
}

// Watch builds once, then rebuilds every time the content root changes until
// ctx ends. Each outcome is passed to onBuild.
func Watch(ctx context.Context, f *config.File, onBuild func(*core.Package, error), opts ...Option) error {
	o := apply(opts)
	src, err := o.source(f.Content.Ignore)
	if err != nil {
		return err
	}
	pipeline := o.pipeline()

	build := func() {
		req, err := o.prepare(ctx, f)
		if err != nil {
			onBuild(nil, err)
			return
		}
		onBuild(pipeline.Build(ctx, req))
	}
	build()

	changes := make(chan core.Event, 64)
	w := src.NewWatcher(f.Content.Root, changes, o.debounce())
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", f.Content.Root, err)
	}
	defer func() {
		_ = w.Stop(context.WithoutCancel(ctx))
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-changes:
			if o.logger != nil {
				o.logger.Info("content changed", "event", e.String())
			}
			drain(changes)
			build()
		}
	}
}

// drain discards queued events so one rebuild covers them all.
func drain(ch <-chan core.Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// Inspection describes an exploded bag on disk.
type Inspection struct {
	Root    string
	Info    *core.Fields
	Report  *fs.Report
	State   *state.Snapshot // nil when the bag carries no package state
	Version string
}

// Inspect reads bag-info.txt, verifies every manifest and decodes the package
// state of the exploded bag at root.
func Inspect(root string) (*Inspection, error) {
	in := &Inspection{Root: root}

	bagit, err := os.Open(filepath.Join(root, fs.BagItFile))
	if err != nil {
		return nil, fmt.Errorf("not a bag: %w", err)
	}
	declaration, err := fs.ReadBagInfo(bagit)
	bagit.Close()
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fs.BagItFile, err)
	}
	in.Version, _ = declaration.First("BagIt-Version")

	info, err := os.Open(filepath.Join(root, fs.BagInfoFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fs.BagInfoFile, err)
	}
	defer info.Close()
	if in.Info, err = fs.ReadBagInfo(info); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", fs.BagInfoFile, err)
	}

	if in.Report, err = fs.Verify(root); err != nil {
		return nil, err
	}

	snapshot, err := os.Open(filepath.Join(root, filepath.FromSlash(fs.StateDir), state.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return in, nil
	}
	if err != nil {
		return nil, err
	}
	defer snapshot.Close()
	if in.State, err = state.Decode(snapshot); err != nil {
		return nil, err
	}
	return in, nil
}
