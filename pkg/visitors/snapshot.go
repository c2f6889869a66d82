package visitors

import (
	"bytes"
	"context"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/state"
)

// Snapshot writes the package-state resource so the package can be reopened.
type Snapshot struct{}

// NewSnapshot returns the package-state snapshotter.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Init reserves the state resource.
func (v *Snapshot) Init(_ context.Context, bc *core.BuildContext) error {
	uri, err := bc.Assembler.ReserveResource(state.FileName, core.ResourceState)
	if err != nil {
		return err
	}
	bc.StateURI = uri
	return nil
}

// VisitNode is a no-op; the snapshot is taken once every node is final.
func (v *Snapshot) VisitNode(context.Context, *core.Node, *core.BuildContext) error {
	return nil
}

// Finish encodes the tree and package description.
func (v *Snapshot) Finish(_ context.Context, bc *core.BuildContext) error {
	data, err := state.Marshal(state.FromBuild(bc))
	if err != nil {
		return core.IOError("encode state", bc.StateURI, err)
	}
	return bc.Assembler.PutResource(bc.StateURI, bytes.NewReader(data))
}

var _ core.Visitor = (*Snapshot)(nil)
