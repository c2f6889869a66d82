package core

import (
	"context"
	"log/slog"

	"github.com/aretw0/bagger/pkg/rdf"
)

// Visitor contributes one aspect of the package model. Visitors keep no
// per-build state of their own; everything lives in the BuildContext.
type Visitor interface {
	// Init runs once before any node is visited.
	Init(ctx context.Context, bc *BuildContext) error

	// VisitNode runs for every non-ignored node in pre-order.
	VisitNode(ctx context.Context, n *Node, bc *BuildContext) error

	// Finish runs once after every node has been visited.
	Finish(ctx context.Context, bc *BuildContext) error
}

// BuildContext is the shared state of one build. It is created fresh per
// build and must only be touched from the build goroutine.
type BuildContext struct {
	Tree      *Tree
	Graph     *rdf.Graph // domain objects, drained as nodes are visited
	Assembler Assembler
	Params    Parameters
	Metadata  *Fields
	Format    rdf.Format
	Logger    *slog.Logger

	// ResourceMap is the aggregation graph, identified by ResourceMapURI.
	ResourceMap    *rdf.Graph
	ResourceMapURI string

	// StateURI is the reserved package-state snapshot resource.
	StateURI string

	// Renamed maps every rebased URI to its new value.
	Renamed map[string]string

	// Descriptions and Contents hold the URIs reserved per node.
	Descriptions map[NodeID]string
	Contents     map[NodeID]string

	emit func(Event)
}

// NewBuildContext prepares a context for one build.
func NewBuildContext(req Request, asm Assembler, logger *slog.Logger) *BuildContext {
	graph := req.Graph
	if graph == nil {
		graph = rdf.NewGraph()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BuildContext{
		Tree:         req.Tree,
		Graph:        graph,
		Assembler:    asm,
		Params:       req.Params,
		Metadata:     req.Metadata.Clone(),
		Format:       rdf.Negotiate(req.Params.RDFFormat, logger),
		Logger:       logger,
		ResourceMap:  rdf.NewGraph(),
		Renamed:      make(map[string]string),
		Descriptions: make(map[NodeID]string),
		Contents:     make(map[NodeID]string),
	}
}

// Emit reports a progress event when the pipeline has an event sink.
func (bc *BuildContext) Emit(t EventType, id string) {
	if bc.emit != nil {
		bc.emit(NewEvent(t, id))
	}
}

// Rename records old -> new and follows earlier renames of old's value so
// the map always points at the final URI.
func (bc *BuildContext) Rename(oldURI, newURI string) {
	if oldURI == newURI {
		return
	}
	bc.Renamed[oldURI] = newURI
	for k, v := range bc.Renamed {
		if v == oldURI {
			bc.Renamed[k] = newURI
		}
	}
}

// Resolve follows the rename map for uri.
func (bc *BuildContext) Resolve(uri string) string {
	if v, ok := bc.Renamed[uri]; ok {
		return v
	}
	return uri
}
