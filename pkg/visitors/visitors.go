package visitors

import "github.com/aretw0/bagger/pkg/core"

// Default returns the standard visitor chain in the order it must run.
func Default() []core.Visitor {
	return []core.Visitor{
		NewDomainObjects(),
		NewResourceMap(),
		NewSnapshot(),
	}
}
