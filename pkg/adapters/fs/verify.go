package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mismatch is one manifest entry that does not match the bag contents.
type Mismatch struct {
	Manifest string
	Path     string
	Expected string
	Actual   string // empty when the file is missing
}

func (m Mismatch) String() string {
	if m.Actual == "" {
		return fmt.Sprintf("%s: %s missing", m.Manifest, m.Path)
	}
	return fmt.Sprintf("%s: %s expected %s got %s", m.Manifest, m.Path, m.Expected, m.Actual)
}

// Report summarizes a bag verification.
type Report struct {
	Manifests  []string
	Checked    int
	Mismatches []Mismatch
}

// Valid reports whether every entry matched.
func (r *Report) Valid() bool {
	return len(r.Mismatches) == 0
}

// Verify recomputes every manifest and tag manifest of the exploded bag at
// root and reports entries whose checksum differs from the file on disk.
func Verify(root string) (*Report, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read bag: %w", err)
	}

	report := &Report{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		var prefix string
		switch {
		case strings.HasPrefix(name, tagManifestPrefix+"-"):
			prefix = tagManifestPrefix
		case strings.HasPrefix(name, manifestPrefix+"-"):
			prefix = manifestPrefix
		default:
			continue
		}
		alg, err := ParseAlgorithm(strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".txt"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := verifyManifest(root, name, alg, report); err != nil {
			return nil, err
		}
		report.Manifests = append(report.Manifests, name)
	}

	if len(report.Manifests) == 0 {
		return nil, fmt.Errorf("no manifests found in %s", root)
	}
	return report, nil
}

func verifyManifest(root, name string, alg Algorithm, report *Report) error {
	f, err := os.Open(filepath.Join(root, name))
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	lines, err := ReadManifest(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, line := range lines {
		report.Checked++
		d, err := hashFile(filepath.Join(root, filepath.FromSlash(line.Path)), []Algorithm{alg})
		if os.IsNotExist(err) {
			report.Mismatches = append(report.Mismatches, Mismatch{Manifest: name, Path: line.Path, Expected: line.Checksum})
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to hash %s: %w", line.Path, err)
		}
		if got := d.Sums[alg]; got != line.Checksum {
			report.Mismatches = append(report.Mismatches, Mismatch{Manifest: name, Path: line.Path, Expected: line.Checksum, Actual: got})
		}
	}
	return nil
}
