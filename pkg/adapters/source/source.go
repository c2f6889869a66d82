// Package source builds content trees and domain object graphs from a
// directory on disk, and watches that directory for changes.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/rdf"
	"github.com/aretw0/bagger/pkg/vocab"
)

// Node types assigned by the loader.
const (
	TypeCollection = "Collection"
	TypeDataItem   = "DataItem"
)

// Config holds the configuration for a content source.
type Config struct {
	Logger *slog.Logger
	// Ignore holds doublestar patterns matched against slash-separated paths
	// relative to the root. Matching nodes stay in the tree marked ignored.
	Ignore []string
	// NewID mints domain object URIs; random urn:uuid values when nil.
	NewID func() string
}

// Source loads a directory into a content tree.
type Source struct {
	config Config
}

// New creates a source, validating the ignore patterns.
func New(config Config) (*Source, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.NewID == nil {
		config.NewID = func() string { return uuid.New().URN() }
	}
	for _, p := range config.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, core.ConfigError("source", fmt.Errorf("invalid ignore pattern %q", p))
		}
	}
	return &Source{config: config}, nil
}

// Ignored reports whether rel, a slash-separated path relative to the root,
// matches an ignore pattern.
func (s *Source) Ignored(rel string) bool {
	for _, p := range s.config.Ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Load walks root in lexical order and returns its tree together with a graph
// describing every node. Directories become collections that dcterms:hasPart
// their children; files become data items pointing at their location.
func (s *Source) Load(ctx context.Context, root string) (*core.Tree, *rdf.Graph, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, core.ConfigError("load", fmt.Errorf("invalid root: %w", err))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, core.IOError("load", abs, err)
	}

	tree := core.NewTree()
	graph := rdf.NewGraph()
	ids := make(map[string]core.NodeID)

	add := func(path, rel string, info os.FileInfo) {
		file := &core.FileInfo{Location: path, IsFile: !info.IsDir(), Name: info.Name()}
		uri := s.config.NewID()

		var id core.NodeID
		if parent, ok := ids[filepath.Dir(path)]; ok && path != abs {
			id = tree.AddChild(parent, uri, file)
			graph.Add(rdf.NewTriple(rdf.IRI(tree.Node(parent).DomainObject), rdf.IRI(vocab.DCTermsHasPart), rdf.IRI(uri)))
		} else {
			id = tree.AddRoot(uri, file)
		}
		ids[path] = id

		n := tree.Node(id)
		n.Ignored = rel != "." && s.Ignored(rel)
		s.describe(graph, n, info)
	}

	if !info.IsDir() {
		add(abs, ".", info)
		return tree, graph, nil
	}

	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := core.CheckCancelled(ctx); err != nil {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			s.config.Logger.Debug("skipping special file", "path", path)
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		add(path, filepath.ToSlash(rel), info)
		return nil
	})
	if err != nil {
		if core.IsCancelled(err) {
			return nil, nil, err
		}
		return nil, nil, core.IOError("load", abs, err)
	}

	s.config.Logger.Info("content loaded", "root", abs, "nodes", tree.Len(), "triples", graph.Len())
	return tree, graph, nil
}

func (s *Source) describe(g *rdf.Graph, n *core.Node, info os.FileInfo) {
	subject := rdf.IRI(n.DomainObject)
	g.Add(rdf.NewTriple(subject, rdf.IRI(vocab.DCTermsTitle), rdf.Literal(info.Name())))

	if info.IsDir() {
		n.Type = TypeCollection
		g.Add(rdf.NewTriple(subject, rdf.IRI(vocab.RDFType), rdf.IRI(vocab.DCSCollection)))
		return
	}

	n.Type = TypeDataItem
	meta := rdf.Blank("file" + strconv.Itoa(int(n.ID)))
	g.Add(
		rdf.NewTriple(subject, rdf.IRI(vocab.RDFType), rdf.IRI(vocab.DCSDataItem)),
		rdf.NewTriple(subject, rdf.IRI(vocab.DCSHasFile), rdf.IRI(core.FileURI(n.File.Location))),
		rdf.NewTriple(subject, rdf.IRI(vocab.DCSHasMetadata), meta),
		rdf.NewTriple(meta, rdf.IRI(vocab.RDFType), rdf.IRI(vocab.DCSFile)),
		rdf.NewTriple(meta, rdf.IRI(vocab.DCTermsExtent), rdf.TypedLiteral(strconv.FormatInt(info.Size(), 10), vocab.XSDInteger)),
		rdf.NewTriple(meta, rdf.IRI(vocab.DCTermsModified), rdf.TypedLiteral(info.ModTime().UTC().Format(time.RFC3339), vocab.XSDDateTime)),
	)
}
