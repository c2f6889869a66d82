// Package visitors holds the pipeline stages that turn a content tree and its
// domain object graph into package resources.
//
// Visitors carry configuration only. Everything a build produces lives in the
// core.BuildContext, so one visitor value can serve any number of builds.
package visitors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/rdf"
	"github.com/aretw0/bagger/pkg/remediate"
)

// rootDescription is the description name of the root node, whose relative
// path is empty.
const rootDescription = "package"

// DomainObjects partitions the domain object graph into one description
// resource per node.
//
// Init reserves every resource and rebases each node's triples onto its
// reserved URIs. VisitNode cuts the node's local closure out of the graph and
// serializes it. Finish fails when any triple was never claimed by a node.
type DomainObjects struct{}

// NewDomainObjects returns the domain object builder.
func NewDomainObjects() *DomainObjects {
	return &DomainObjects{}
}

// Init prunes ignored subtrees from the graph, then reserves content and
// description resources for every remaining node.
func (v *DomainObjects) Init(ctx context.Context, bc *core.BuildContext) error {
	pruned := 0
	for _, n := range bc.Tree.Nodes() {
		if !bc.Tree.IsIgnored(n.ID) {
			continue
		}
		pruned += prune(bc.Graph, n)
	}
	if pruned > 0 {
		bc.Logger.Debug("pruned ignored nodes from graph", "triples", pruned)
	}

	var err error
	bc.Tree.Walk(func(n *core.Node) bool {
		if err != nil || n.Ignored {
			return false
		}
		if err = core.CheckCancelled(ctx); err != nil {
			return false
		}
		err = v.reserve(bc, n)
		return err == nil
	})
	return err
}

// prune drops the local closure of an ignored node and every statement that
// still points at it.
func prune(g *rdf.Graph, n *core.Node) int {
	removed := 0
	if n.DomainObject != "" {
		removed += rdf.Cut(g, rdf.SelectLocal(g, n.DomainObject)).Len()
		removed += rdf.RemoveReferences(g, n.DomainObject)
	}
	if n.File != nil && n.File.Location != "" {
		removed += rdf.RemoveReferences(g, core.FileURI(n.File.Location))
	}
	return removed
}

func (v *DomainObjects) reserve(bc *core.BuildContext, n *core.Node) error {
	rel := bc.Tree.RelativePath(n.ID)

	var content string
	if n.IsRegularFile() {
		if rel == "" {
			rel = n.File.Name
		}
		if rel == "" {
			rel = filepath.Base(n.File.Location)
		}
		uri, err := createContent(bc, n, rel)
		if err != nil {
			return err
		}
		content = uri
		bc.Contents[n.ID] = content
	}

	descRel := rootDescription + bc.Format.Extension()
	if rel != "" {
		descRel = rel + bc.Format.Extension()
	}
	desc, err := bc.Assembler.ReserveResource(descRel, core.ResourceMetadata)
	if errors.Is(err, core.ErrDuplicateResource) {
		hint := remediate.Unique(identity(n), descRel)
		bc.Logger.Debug("description collides after remediation", "path", descRel, "unique", hint)
		desc, err = bc.Assembler.ReserveResource(hint, core.ResourceMetadata)
	}
	if err != nil {
		return err
	}
	bc.Descriptions[n.ID] = desc

	subject := desc
	if content != "" {
		location := core.FileURI(n.File.Location)
		if rdf.References(bc.Graph, location) {
			rebase(bc, location, content)
		} else {
			subject = content
		}
		bc.Rename(location, content)
	}
	if n.DomainObject != "" {
		rebase(bc, n.DomainObject, subject)
	}
	n.DomainObject = subject
	n.Identifier = desc
	bc.Emit(core.EventReserve, desc)
	return nil
}

// createContent copies the node's file into the payload. A name that collides
// once remediated is replaced with a hash of the node identity.
func createContent(bc *core.BuildContext, n *core.Node, rel string) (string, error) {
	f, err := os.Open(n.File.Location)
	if err != nil {
		return "", core.IOError("open content", n.File.Location, err)
	}
	defer f.Close()

	uri, err := bc.Assembler.ReserveResource(rel, core.ResourceData)
	if errors.Is(err, core.ErrDuplicateResource) {
		uri, err = bc.Assembler.ReserveResource(remediate.Unique(identity(n), rel), core.ResourceData)
	}
	if err != nil {
		return "", err
	}
	if err := bc.Assembler.PutResource(uri, f); err != nil {
		return "", err
	}
	return uri, nil
}

// identity is the stable name a node is hashed under when its path collides.
func identity(n *core.Node) string {
	if n.DomainObject != "" {
		return n.DomainObject
	}
	if n.File != nil {
		return n.File.Location
	}
	return fmt.Sprintf("node-%d", n.ID)
}

func rebase(bc *core.BuildContext, from, to string) {
	renames := make(map[string]string)
	rdf.Rebase(bc.Graph, from, to, renames)
	for old, renamed := range renames {
		bc.Rename(old, renamed)
	}
}

// VisitNode streams the node's local closure into its description resource.
func (v *DomainObjects) VisitNode(ctx context.Context, n *core.Node, bc *core.BuildContext) error {
	desc, ok := bc.Descriptions[n.ID]
	if !ok {
		return core.ConsistencyError("describe", bc.Tree.RelativePath(n.ID), core.ErrUnknownResource)
	}

	sub := rdf.Cut(bc.Graph, rdf.SelectLocal(bc.Graph, n.DomainObject))
	if content, ok := bc.Contents[n.ID]; ok && rdf.Bare(content) != rdf.Bare(n.DomainObject) {
		sub.Merge(rdf.Cut(bc.Graph, rdf.SelectLocal(bc.Graph, content)))
	}

	r := rdf.NewReader(ctx, sub, bc.Format)
	defer r.Close()
	if err := bc.Assembler.PutResource(desc, r); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Cancelled(ctxErr)
		}
		return err
	}
	bc.Logger.Debug("described node", "uri", desc, "triples", sub.Len())
	return nil
}

// Finish fails when the graph still holds triples no node claimed.
func (v *DomainObjects) Finish(_ context.Context, bc *core.BuildContext) error {
	if bc.Graph.Empty() {
		return nil
	}
	for _, s := range bc.Graph.Subjects() {
		bc.Logger.Debug("unserialized subject", "subject", s.String())
	}
	return core.ConsistencyError("finish", "", fmt.Errorf("%w: %d triples left", core.ErrUnserializedGraph, bc.Graph.Len()))
}

var _ core.Visitor = (*DomainObjects)(nil)
