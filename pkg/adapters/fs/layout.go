package fs

import (
	"github.com/aretw0/bagger/pkg/core"
)

// Staging layout, relative to the bag root.
const (
	PayloadDir  = "data"
	MetaInfDir  = "META-INF/org.dataconservancy.bagit"
	MetadataDir = MetaInfDir + "/OBJ"
	OntologyDir = MetaInfDir + "/ONT"
	ResMapDir   = MetaInfDir + "/ORE-REM"
	StateDir    = MetaInfDir + "/STATE"

	BagItFile   = "bagit.txt"
	BagInfoFile = "bag-info.txt"

	// URIScheme prefixes every reserved resource URI: bag://<package>/<path>.
	URIScheme = "bag://"
)

// BagItVersion is written to bagit.txt.
const BagItVersion = "0.97"

// dirFor returns the containing directory of a resource type.
func dirFor(t core.ResourceType) (string, bool) {
	switch t {
	case core.ResourceData:
		return PayloadDir, true
	case core.ResourceMetadata:
		return MetadataDir, true
	case core.ResourceOntology:
		return OntologyDir, true
	case core.ResourceMap:
		return ResMapDir, true
	case core.ResourceState:
		return StateDir, true
	default:
		return "", false
	}
}

// layoutDirs lists every directory created by Init.
func layoutDirs() []string {
	return []string{PayloadDir, MetadataDir, OntologyDir, ResMapDir, StateDir}
}
