package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/aretw0/bagger/pkg/core"
)

// compressionFormat describes one compression variant, selected once at Init.
type compressionFormat struct {
	Name        string
	Extension   string
	ContentType string
	newWriter   func(w io.Writer) (io.WriteCloser, error)
}

// None reports whether the variant leaves the archive as is.
func (c compressionFormat) None() bool {
	return c.newWriter == nil
}

var compressionFormats = map[string]compressionFormat{
	core.CompressionNone: {Name: core.CompressionNone},
	core.CompressionGzip: {
		Name: core.CompressionGzip, Extension: ".gz", ContentType: "application/gzip",
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	core.CompressionBzip2: {
		Name: core.CompressionBzip2, Extension: ".bz2", ContentType: "application/x-bzip2",
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		},
	},
	core.CompressionZstd: {
		Name: core.CompressionZstd, Extension: ".zst", ContentType: "application/zstd",
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		},
	},
	core.CompressionLz4: {
		Name: core.CompressionLz4, Extension: ".lz4", ContentType: "application/x-lz4",
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		},
	},
}

// lookupCompression resolves a compression name; empty means none.
// pack200 is recognized but has no implementation.
func lookupCompression(name string) (compressionFormat, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = core.CompressionNone
	}
	if key == core.CompressionPack200 {
		return compressionFormat{}, fmt.Errorf("%w: %s is recognized but not implemented", core.ErrUnsupportedCompression, key)
	}
	c, ok := compressionFormats[key]
	if !ok {
		return compressionFormat{}, fmt.Errorf("%w: %q", core.ErrUnsupportedCompression, name)
	}
	return c, nil
}

// compressFile writes src compressed into target atomically. Cancellation is
// honored between chunks.
func compressFile(ctx context.Context, c compressionFormat, src, target string) error {
	in, err := os.Open(src)
	if err != nil {
		return core.IOError("open archive", src, err)
	}
	defer in.Close()

	out, err := createAtomic(target, 0o644)
	if err != nil {
		return core.IOError("create compressed archive", target, err)
	}
	defer out.Abort()

	cw, err := c.newWriter(out)
	if err != nil {
		return core.IOError("init "+c.Name, target, err)
	}
	if _, err := io.Copy(cw, &ctxReader{ctx: ctx, r: in}); err != nil {
		cw.Close()
		if core.IsCancelled(err) {
			return err
		}
		return core.IOError("compress", target, err)
	}
	if err := cw.Close(); err != nil {
		return core.IOError("compress", target, err)
	}
	if err := out.Commit(); err != nil {
		return core.IOError("commit compressed archive", target, err)
	}
	return nil
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := core.CheckCancelled(c.ctx); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
