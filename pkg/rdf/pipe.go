package rdf

import (
	"context"
	"io"

	"github.com/aretw0/lifecycle"
)

// NewReader returns a stream of g serialized in format f. Encoding runs on a
// tracked goroutine writing into a pipe, so the caller can hand the reader to
// anything that consumes an io.Reader without buffering the whole document.
//
// The graph is snapshotted before the goroutine starts; later mutations of g
// do not affect the stream. Closing the reader early aborts the encoder.
func NewReader(ctx context.Context, g *Graph, f Format) io.ReadCloser {
	snapshot := g.Clone()
	pr, pw := io.Pipe()
	if err := ctx.Err(); err != nil {
		pw.CloseWithError(err)
		return pr
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		err := Write(pw, snapshot, f)
		pw.CloseWithError(err)
		return err
	})

	return pr
}
