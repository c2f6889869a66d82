package core

import (
	"context"
	"io"
	"os"
)

// ResourceType selects the containing directory and checksum set of a resource.
type ResourceType int

const (
	ResourceData ResourceType = iota + 1
	ResourceMetadata
	ResourceOntology
	ResourceMap
	ResourceState
)

func (t ResourceType) String() string {
	switch t {
	case ResourceData:
		return "data"
	case ResourceMetadata:
		return "metadata"
	case ResourceOntology:
		return "ontology"
	case ResourceMap:
		return "resource-map"
	case ResourceState:
		return "state"
	default:
		return "unknown"
	}
}

// IsPayload reports whether resources of this type belong to the payload.
func (t ResourceType) IsPayload() bool {
	return t == ResourceData
}

// Assembler defines the contract for reserving, writing and finalizing
// package resources. Adhering to this interface keeps the visitors independent
// of where and how the package is laid out.
type Assembler interface {
	// Init validates parameters and prepares a clean staging area.
	// Configuration problems are reported before any I/O.
	Init(params Parameters, metadata *Fields) error

	// ReserveResource claims a file path for a resource type and returns its URI.
	ReserveResource(relPath string, t ResourceType) (string, error)

	// ReserveDirectory claims a directory path for a resource type and returns its URI.
	ReserveDirectory(relPath string, t ResourceType) (string, error)

	// PutResource streams content into a reserved resource.
	PutResource(uri string, r io.Reader) error

	// CreateResource reserves and writes in one step.
	CreateResource(relPath string, t ResourceType, r io.Reader) (string, error)

	// Resolve returns the absolute location reserved for uri.
	Resolve(uri string) (string, error)

	// AssemblePackage writes manifests and bag metadata, then archives and
	// compresses the staging area. It returns nil for exploded output.
	AssemblePackage(ctx context.Context) (*Package, error)
}

// Package is the final artifact of a build.
type Package struct {
	Name        string
	ContentType string
	Path        string
}

// Open opens the package file for reading.
func (p *Package) Open() (io.ReadCloser, error) {
	return os.Open(p.Path)
}

// Size returns the package size in bytes.
func (p *Package) Size() (int64, error) {
	fi, err := os.Stat(p.Path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
