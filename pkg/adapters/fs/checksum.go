package fs

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm is a checksum algorithm usable in manifests.
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "md5"
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA512 Algorithm = "sha512"
	AlgorithmBLAKE3 Algorithm = "blake3"
)

// DefaultAlgorithm applies when no usable algorithm is configured.
const DefaultAlgorithm = AlgorithmMD5

var hashers = map[Algorithm]func() hash.Hash{
	AlgorithmMD5:    md5.New,
	AlgorithmSHA1:   sha1.New,
	AlgorithmSHA256: sha256.New,
	AlgorithmSHA512: sha512.New,
	AlgorithmBLAKE3: func() hash.Hash { return blake3.New() },
}

// ParseAlgorithm resolves a case-insensitive algorithm name; "SHA-256" and
// "sha256" are the same.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "-", ""))
	a := Algorithm(key)
	if _, ok := hashers[a]; !ok {
		return "", fmt.Errorf("unknown checksum algorithm: %q", name)
	}
	return a, nil
}

// ParseAlgorithms resolves names, dropping unknown ones with a warning and
// duplicates silently. An empty result yields DefaultAlgorithm.
func ParseAlgorithms(names []string, logger *slog.Logger) []Algorithm {
	var out []Algorithm
	seen := make(map[Algorithm]bool)
	for _, name := range names {
		a, err := ParseAlgorithm(name)
		if err != nil {
			if logger != nil {
				logger.Warn("ignoring checksum algorithm", "algorithm", name, "error", err)
			}
			continue
		}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return []Algorithm{DefaultAlgorithm}
	}
	return out
}

// ManifestName returns "<prefix>-<alg>.txt".
func (a Algorithm) ManifestName(prefix string) string {
	return prefix + "-" + string(a) + ".txt"
}

// digest is the outcome of hashing one file with several algorithms.
type digest struct {
	Size int64
	Sums map[Algorithm]string
}

// hashReader reads r once and feeds every algorithm.
func hashReader(r io.Reader, algs []Algorithm) (digest, error) {
	hs := make([]hash.Hash, len(algs))
	ws := make([]io.Writer, len(algs))
	for i, a := range algs {
		hs[i] = hashers[a]()
		ws[i] = hs[i]
	}

	n, err := io.Copy(io.MultiWriter(ws...), r)
	if err != nil {
		return digest{}, err
	}

	d := digest{Size: n, Sums: make(map[Algorithm]string, len(algs))}
	for i, a := range algs {
		d.Sums[a] = hex.EncodeToString(hs[i].Sum(nil))
	}
	return d, nil
}

// hashFile hashes the file at path with every algorithm in one pass.
func hashFile(path string, algs []Algorithm) (digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return digest{}, err
	}
	defer f.Close()
	return hashReader(f, algs)
}
