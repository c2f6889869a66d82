package fs

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/blakesmith/ar"
	"github.com/cavaliergopher/cpio"
	"github.com/klauspost/compress/zip"

	"github.com/aretw0/bagger/pkg/core"
)

// archiveWriter appends staged files to one archive variant.
type archiveWriter interface {
	Append(name string, size int64, mode os.FileMode, modTime time.Time, r io.Reader) error
	AppendDir(name string, modTime time.Time) error
	Close() error
}

// archiveFormat describes one archive variant, selected once at Init.
// Compressible is false for formats that carry their own compression.
type archiveFormat struct {
	Name         string
	Extension    string
	ContentType  string
	Compressible bool
	open         func(w io.Writer) archiveWriter
}

var archiveFormats = map[string]archiveFormat{
	core.ArchiveTar: {
		Name: core.ArchiveTar, Extension: ".tar", ContentType: "application/x-tar",
		Compressible: true, open: newTarWriter,
	},
	core.ArchiveZip: {
		Name: core.ArchiveZip, Extension: ".zip", ContentType: "application/zip",
		open: newZipWriter,
	},
	core.ArchiveJar: {
		Name: core.ArchiveJar, Extension: ".jar", ContentType: "application/java-archive",
		open: newJarWriter,
	},
	core.ArchiveAr: {
		Name: core.ArchiveAr, Extension: ".ar", ContentType: "application/x-archive",
		Compressible: true, open: newArWriter,
	},
	core.ArchiveCpio: {
		Name: core.ArchiveCpio, Extension: ".cpio", ContentType: "application/x-cpio",
		Compressible: true, open: newCpioWriter,
	},
	core.ArchiveExploded: {
		Name: core.ArchiveExploded,
	},
}

// lookupArchive resolves an archive name; empty means tar.
func lookupArchive(name string) (archiveFormat, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = core.ArchiveTar
	}
	f, ok := archiveFormats[key]
	if !ok {
		return archiveFormat{}, fmt.Errorf("%w: %q", core.ErrUnsupportedArchive, name)
	}
	return f, nil
}

// writeArchive streams the bag at root into target with entries rooted at
// "<prefix>/". Cancellation is checked before every entry.
func writeArchive(ctx context.Context, format archiveFormat, root, prefix, target string) error {
	out, err := createAtomic(target, 0o644)
	if err != nil {
		return core.IOError("create archive", target, err)
	}
	defer out.Abort()

	aw := format.open(out)
	entries, err := collectEntries(root)
	if err != nil {
		return core.IOError("list staging", root, err)
	}

	for _, e := range entries {
		if err := core.CheckCancelled(ctx); err != nil {
			return err
		}
		name := path.Join(prefix, e.rel)
		if e.info.IsDir() {
			if err := aw.AppendDir(name+"/", e.info.ModTime()); err != nil {
				return core.IOError("archive", name, err)
			}
			continue
		}
		if err := appendFile(aw, name, e); err != nil {
			return core.IOError("archive", name, err)
		}
	}

	if err := aw.Close(); err != nil {
		return core.IOError("close archive", target, err)
	}
	if err := out.Commit(); err != nil {
		return core.IOError("commit archive", target, err)
	}
	return nil
}

type stagedEntry struct {
	rel  string
	abs  string
	info os.FileInfo
}

// collectEntries lists the staging tree in sorted pre-order, the root itself
// included as "".
func collectEntries(root string) ([]stagedEntry, error) {
	var out []stagedEntry
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(info.Name(), TempFilePrefix) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		out = append(out, stagedEntry{rel: filepath.ToSlash(rel), abs: p, info: info})
		return nil
	})
	slices.SortStableFunc(out, func(a, b stagedEntry) int {
		return strings.Compare(a.rel, b.rel)
	})
	return out, err
}

func appendFile(aw archiveWriter, name string, e stagedEntry) error {
	f, err := os.Open(e.abs)
	if err != nil {
		return err
	}
	defer f.Close()
	return aw.Append(name, e.info.Size(), e.info.Mode().Perm(), e.info.ModTime(), f)
}

// --- tar ---

type tarWriter struct{ tw *tar.Writer }

func newTarWriter(w io.Writer) archiveWriter {
	return &tarWriter{tw: tar.NewWriter(w)}
}

func (t *tarWriter) Append(name string, size int64, mode os.FileMode, modTime time.Time, r io.Reader) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     size,
		Mode:     int64(mode),
		ModTime:  modTime,
		Format:   tar.FormatPAX,
	}
	if err := t.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(t.tw, r)
	return err
}

func (t *tarWriter) AppendDir(name string, modTime time.Time) error {
	return t.tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     name,
		Mode:     0o755,
		ModTime:  modTime,
		Format:   tar.FormatPAX,
	})
}

func (t *tarWriter) Close() error { return t.tw.Close() }

// --- zip / jar ---

type zipWriter struct{ zw *zip.Writer }

func newZipWriter(w io.Writer) archiveWriter {
	return &zipWriter{zw: zip.NewWriter(w)}
}

// newJarWriter writes META-INF/MANIFEST.MF as the first entry.
func newJarWriter(w io.Writer) archiveWriter {
	z := &zipWriter{zw: zip.NewWriter(w)}
	manifest := "Manifest-Version: 1.0\r\nCreated-By: bagger\r\n\r\n"
	if err := z.Append("META-INF/MANIFEST.MF", int64(len(manifest)), 0o644, time.Now(), strings.NewReader(manifest)); err != nil {
		// Surface the failure on the first real write.
		return &failedWriter{err: err}
	}
	return z
}

func (z *zipWriter) Append(name string, size int64, mode os.FileMode, modTime time.Time, r io.Reader) error {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modTime,
	}
	hdr.SetMode(mode)
	w, err := z.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

func (z *zipWriter) AppendDir(name string, modTime time.Time) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Store, Modified: modTime}
	hdr.SetMode(os.ModeDir | 0o755)
	_, err := z.zw.CreateHeader(hdr)
	return err
}

func (z *zipWriter) Close() error { return z.zw.Close() }

type failedWriter struct{ err error }

func (f *failedWriter) Append(string, int64, os.FileMode, time.Time, io.Reader) error { return f.err }
func (f *failedWriter) AppendDir(string, time.Time) error { return f.err }
func (f *failedWriter) Close() error { return f.err }

// --- ar ---

// arWriter uses the BSD long-name convention: the header name is "#1/<len>"
// and the real name is stored in front of the data.
type arWriter struct {
	aw     *ar.Writer
	header bool
	buf    []byte
}

func newArWriter(w io.Writer) archiveWriter {
	return &arWriter{aw: ar.NewWriter(w), buf: make([]byte, 32*1024)}
}

func (a *arWriter) Append(name string, size int64, mode os.FileMode, modTime time.Time, r io.Reader) error {
	if !a.header {
		if err := a.aw.WriteGlobalHeader(); err != nil {
			return err
		}
		a.header = true
	}
	hdr := &ar.Header{
		Name:    fmt.Sprintf("#1/%d", len(name)),
		ModTime: modTime,
		Mode:    int64(mode),
		Size:    size + int64(len(name)),
	}
	if err := a.aw.WriteHeader(hdr); err != nil {
		return err
	}
	// Full even-sized chunks; only the final write may be odd, where the
	// writer adds the alignment byte.
	src := io.MultiReader(strings.NewReader(name), r)
	for {
		n, err := io.ReadFull(src, a.buf)
		if n > 0 {
			if _, werr := a.aw.Write(a.buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// AppendDir is a no-op: ar has no directories.
func (a *arWriter) AppendDir(string, time.Time) error { return nil }

func (a *arWriter) Close() error {
	if !a.header {
		return a.aw.WriteGlobalHeader()
	}
	return nil
}

// --- cpio ---

type cpioWriter struct{ cw *cpio.Writer }

func newCpioWriter(w io.Writer) archiveWriter {
	return &cpioWriter{cw: cpio.NewWriter(w)}
}

func (c *cpioWriter) Append(name string, size int64, mode os.FileMode, modTime time.Time, r io.Reader) error {
	hdr := &cpio.Header{
		Name:    name,
		Mode:    cpio.FileMode(0o100000 | uint32(mode.Perm())),
		Size:    size,
		ModTime: modTime,
	}
	if err := c.cw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(c.cw, r)
	return err
}

func (c *cpioWriter) AppendDir(name string, modTime time.Time) error {
	return c.cw.WriteHeader(&cpio.Header{
		Name:    strings.TrimSuffix(name, "/"),
		Mode:    cpio.FileMode(0o040755),
		ModTime: modTime,
	})
}

func (c *cpioWriter) Close() error { return c.cw.Close() }
