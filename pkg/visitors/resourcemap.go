package visitors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/rdf"
	"github.com/aretw0/bagger/pkg/vocab"
)

const (
	resourceMapName   = "ORE-REM"
	aggregationAnchor = "#aggregation"
)

// ResourceMap builds the OAI-ORE resource map of the package. It must run
// after DomainObjects, whose reservations it aggregates.
type ResourceMap struct {
	// Now stamps dcterms:created; time.Now when nil.
	Now func() time.Time
}

// NewResourceMap returns a resource map builder using the wall clock.
func NewResourceMap() *ResourceMap {
	return &ResourceMap{}
}

func (v *ResourceMap) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Aggregation returns the URI of the aggregation described by the map at uri.
func Aggregation(uri string) string {
	return rdf.Bare(uri) + aggregationAnchor
}

// Init reserves the map resource, seeds the map graph and copies ontologies.
func (v *ResourceMap) Init(ctx context.Context, bc *core.BuildContext) error {
	uri, err := bc.Assembler.ReserveResource(resourceMapName+bc.Format.Extension(), core.ResourceMap)
	if err != nil {
		return err
	}
	bc.ResourceMapURI = uri

	rem, agg := rdf.IRI(uri), rdf.IRI(Aggregation(uri))
	bc.ResourceMap.Add(
		rdf.NewTriple(rem, rdf.IRI(vocab.RDFType), rdf.IRI(vocab.OREResourceMap)),
		rdf.NewTriple(rem, rdf.IRI(vocab.OREDescribes), agg),
		rdf.NewTriple(rem, rdf.IRI(vocab.DCTermsCreated),
			rdf.TypedLiteral(v.now().UTC().Format(time.RFC3339), vocab.XSDDateTime)),
		rdf.NewTriple(agg, rdf.IRI(vocab.RDFType), rdf.IRI(vocab.OREAggregation)),
		rdf.NewTriple(agg, rdf.IRI(vocab.OREIsDescribedBy), rem),
	)
	if bc.Params.PackageName != "" {
		bc.ResourceMap.Add(rdf.NewTriple(agg, rdf.IRI(vocab.DCTermsTitle), rdf.Literal(bc.Params.PackageName)))
	}

	for _, location := range bc.Params.Ontologies {
		if err := core.CheckCancelled(ctx); err != nil {
			return err
		}
		ont, err := copyOntology(bc, location)
		if err != nil {
			return err
		}
		bc.ResourceMap.Add(rdf.NewTriple(agg, rdf.IRI(vocab.OREAggregates), rdf.IRI(ont)))
	}
	return nil
}

func copyOntology(bc *core.BuildContext, location string) (string, error) {
	f, err := os.Open(location)
	if err != nil {
		return "", core.IOError("open ontology", location, err)
	}
	defer f.Close()
	return bc.Assembler.CreateResource(filepath.Base(location), core.ResourceOntology, f)
}

// VisitNode aggregates the node's resources and links its children.
func (v *ResourceMap) VisitNode(_ context.Context, n *core.Node, bc *core.BuildContext) error {
	desc, ok := bc.Descriptions[n.ID]
	if !ok {
		return core.ConsistencyError("aggregate", bc.Tree.RelativePath(n.ID), core.ErrUnmappedResource)
	}
	agg := rdf.IRI(Aggregation(bc.ResourceMapURI))
	aggregates := rdf.IRI(vocab.OREAggregates)

	bc.ResourceMap.Add(rdf.NewTriple(agg, aggregates, rdf.IRI(desc)))
	if content, ok := bc.Contents[n.ID]; ok {
		bc.ResourceMap.Add(
			rdf.NewTriple(agg, aggregates, rdf.IRI(content)),
			rdf.NewTriple(rdf.IRI(content), rdf.IRI(vocab.OREIsDescribedBy), rdf.IRI(desc)),
		)
	}

	for _, child := range bc.Tree.Children(n.ID) {
		if child.Ignored {
			continue
		}
		target, ok := bc.Contents[child.ID]
		if !ok {
			target, ok = bc.Descriptions[child.ID]
		}
		if !ok {
			return core.ConsistencyError("aggregate", bc.Tree.RelativePath(child.ID), core.ErrUnmappedResource)
		}
		bc.ResourceMap.Add(rdf.NewTriple(rdf.IRI(desc), aggregates, rdf.IRI(target)))
	}
	return nil
}

// Finish checks that every reserved description and content resource is in
// the map, serializes it and registers it in the package metadata.
func (v *ResourceMap) Finish(ctx context.Context, bc *core.BuildContext) error {
	for _, set := range []map[core.NodeID]string{bc.Descriptions, bc.Contents} {
		for id, uri := range set {
			if !bc.ResourceMap.HasObject(rdf.IRI(uri)) {
				return core.ConsistencyError("finish", uri,
					fmt.Errorf("%w: node %d", core.ErrUnmappedResource, id))
			}
		}
	}

	r := rdf.NewReader(ctx, bc.ResourceMap, bc.Format)
	defer r.Close()
	if err := bc.Assembler.PutResource(bc.ResourceMapURI, r); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Cancelled(ctxErr)
		}
		return err
	}
	bc.Metadata.Set(core.FieldResourceMap, bc.ResourceMapURI)
	bc.Logger.Debug("resource map written", "uri", bc.ResourceMapURI, "triples", bc.ResourceMap.Len())
	return nil
}

var _ core.Visitor = (*ResourceMap)(nil)
