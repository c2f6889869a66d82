package fs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/bagger/pkg/core"
)

const (
	manifestPrefix    = "manifest"
	tagManifestPrefix = "tagmanifest"
)

// ManifestEntry is one line of a (tag) manifest.
type ManifestEntry struct {
	Checksum string
	Path     string // posix, relative to the bag root
}

// encodeManifest renders entries sorted by path, two spaces between fields.
func encodeManifest(entries []ManifestEntry) []byte {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b ManifestEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%s  %s\n", e.Checksum, e.Path)
	}
	return buf.Bytes()
}

// ReadManifest parses a manifest stream.
func ReadManifest(r io.Reader) ([]ManifestEntry, error) {
	var out []ManifestEntry
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		sum, path, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("manifest line %d: missing path", line)
		}
		path = strings.TrimLeft(path, " *")
		if sum == "" || path == "" {
			return nil, fmt.Errorf("manifest line %d: malformed entry", line)
		}
		out = append(out, ManifestEntry{Checksum: strings.ToLower(sum), Path: path})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeManifests hashes files once and writes one manifest per algorithm.
// It returns the total size hashed.
func writeManifests(root, prefix string, files []string, algs []Algorithm) (int64, error) {
	entries := make(map[Algorithm][]ManifestEntry, len(algs))
	var total int64
	for _, rel := range files {
		d, err := hashFile(filepath.Join(root, filepath.FromSlash(rel)), algs)
		if err != nil {
			return 0, core.IOError("checksum", rel, err)
		}
		total += d.Size
		for _, a := range algs {
			entries[a] = append(entries[a], ManifestEntry{Checksum: d.Sums[a], Path: rel})
		}
	}

	for _, a := range algs {
		name := a.ManifestName(prefix)
		target := filepath.Join(root, name)
		if _, err := writeFileAtomic(target, bytes.NewReader(encodeManifest(entries[a])), 0o644); err != nil {
			return 0, core.IOError("write manifest", name, err)
		}
	}
	return total, nil
}

// listTagFiles returns every file in the bag outside the payload dir that
// is not a tag manifest, as sorted posix paths.
func listTagFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel == PayloadDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), tagManifestPrefix+"-") || strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	slices.Sort(out)
	return out, err
}
