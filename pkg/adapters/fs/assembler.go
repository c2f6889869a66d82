package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/remediate"
)

// Assembler implements core.Assembler as a BagIt bag on the filesystem.
type Assembler struct {
	config Config
	index  *index

	mu          sync.RWMutex
	params      core.Parameters
	metadata    *core.Fields
	root        string
	profile     remediate.Profile
	archive     archiveFormat
	compression compressionFormat
	algorithms  []Algorithm
	initialized bool
	assembled   string
}

// Config holds the configuration for the filesystem assembler.
type Config struct {
	Logger *slog.Logger
	Now    func() time.Time // clock for Bagging-Date; time.Now when nil
}

// NewAssembler creates a new filesystem-backed assembler.
func NewAssembler(config Config) *Assembler {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Assembler{
		config: config,
		index:  newIndex(),
	}
}

// Init validates parameters, resolves the archive, compression and checksum
// variants, and recreates the staging directory <location>/<name>.
func (a *Assembler) Init(params core.Parameters, metadata *core.Fields) error {
	// 1. Configuration, before any I/O
	if strings.TrimSpace(params.PackageName) == "" {
		return core.ConfigError("init", fmt.Errorf("%w: package name", core.ErrMissingParameter))
	}
	if strings.ContainsAny(params.PackageName, `/\`) || params.PackageName == "." || params.PackageName == ".." {
		return core.ConfigError("init", fmt.Errorf("invalid package name %q", params.PackageName))
	}
	if strings.TrimSpace(params.Location) == "" {
		return core.ConfigError("init", fmt.Errorf("%w: location", core.ErrMissingParameter))
	}
	if strings.TrimSpace(params.Profile) == "" {
		return core.ConfigError("init", fmt.Errorf("%w: profile", core.ErrMissingParameter))
	}
	profile, ok := remediate.Lookup(params.Profile)
	if !ok {
		return core.ConfigError("init", fmt.Errorf("%w: %s", core.ErrUnsupportedProfile, params.Profile))
	}

	archive, err := lookupArchive(params.Archive)
	if err != nil {
		return core.ConfigError("init", err)
	}
	compression, err := lookupCompression(params.Compression)
	if err != nil {
		return core.ConfigError("init", err)
	}
	if !compression.None() && !archive.Compressible {
		return core.ConfigError("init", fmt.Errorf("%w: %s cannot be combined with %s",
			core.ErrIncompatibleCompression, archive.Name, compression.Name))
	}
	algorithms := ParseAlgorithms(params.Checksums, a.config.Logger)

	location, err := filepath.Abs(params.Location)
	if err != nil {
		return core.ConfigError("init", fmt.Errorf("invalid location: %w", err))
	}
	root := filepath.Join(location, params.PackageName)

	// 2. Staging layout
	if _, err := os.Stat(root); err == nil {
		if !isStaging(root) {
			return core.ConfigError("init", fmt.Errorf("%w: %s", core.ErrStagingNotBag, root))
		}
		a.config.Logger.Debug("cleaning existing staging directory", "path", root)
		if err := os.RemoveAll(root); err != nil {
			return core.IOError("clean staging", root, err)
		}
	}
	for _, dir := range layoutDirs() {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0o755); err != nil {
			return core.IOError("create layout", dir, err)
		}
	}
	if err := writeBagIt(root); err != nil {
		return err
	}

	if metadata == nil {
		metadata = core.NewFields()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.params = params
	a.params.Location = location
	a.metadata = metadata
	a.root = root
	a.profile = profile
	a.archive = archive
	a.compression = compression
	a.algorithms = algorithms
	a.initialized = true
	a.assembled = ""
	a.index.reset()

	a.config.Logger.Info("staging initialized",
		"root", root,
		"archive", archive.Name,
		"compression", compression.Name,
		"checksums", algorithmNames(algorithms))
	return nil
}

func algorithmNames(algs []Algorithm) []string {
	out := make([]string, len(algs))
	for i, a := range algs {
		out[i] = string(a)
	}
	return out
}

// ReserveResource claims relPath inside the directory of t.
func (a *Assembler) ReserveResource(relPath string, t core.ResourceType) (string, error) {
	return a.reserve(relPath, t, false)
}

// ReserveDirectory claims relPath as a directory inside the directory of t.
func (a *Assembler) ReserveDirectory(relPath string, t core.ResourceType) (string, error) {
	return a.reserve(relPath, t, true)
}

func (a *Assembler) reserve(relPath string, t core.ResourceType, isDir bool) (string, error) {
	a.mu.RLock()
	initialized, root, name, profile := a.initialized, a.root, a.params.PackageName, a.profile
	a.mu.RUnlock()
	if !initialized {
		return "", core.ConsistencyError("reserve", relPath, errors.New("assembler not initialized"))
	}

	base, ok := dirFor(t)
	if !ok {
		return "", core.ConsistencyError("reserve", relPath, fmt.Errorf("unknown resource type %d", t))
	}

	decoded, err := url.PathUnescape(relPath)
	if err != nil {
		decoded = relPath
	}
	clean := strings.TrimSuffix(profile.Path(decoded), "/")
	if clean == "" && !isDir {
		return "", core.ConsistencyError("reserve", relPath, errors.New("empty resource path"))
	}

	rel := path.Join(base, clean)
	abs := filepath.Join(root, filepath.FromSlash(rel))
	uri := URIScheme + name + "/" + (&url.URL{Path: rel}).EscapedPath()
	if isDir {
		uri += "/"
	}

	if _, taken := a.index.lookup(uri); taken {
		return "", core.ConsistencyError("reserve", rel, core.ErrDuplicateResource)
	}
	mk := filepath.Dir(abs)
	if isDir {
		mk = abs
	}
	if err := os.MkdirAll(mk, 0o755); err != nil {
		return "", core.IOError("reserve", rel, err)
	}
	if !a.index.reserve(&reservation{URI: uri, Rel: rel, Abs: abs, Type: t, Dir: isDir}) {
		return "", core.ConsistencyError("reserve", rel, core.ErrDuplicateResource)
	}

	a.config.Logger.Debug("reserved resource", "uri", uri, "type", t.String())
	return uri, nil
}

// PutResource streams r into the location reserved for uri.
func (a *Assembler) PutResource(uri string, r io.Reader) error {
	res, ok := a.index.lookup(uri)
	if !ok {
		return core.ConsistencyError("put", uri, core.ErrUnknownResource)
	}
	if res.Dir {
		return core.ConsistencyError("put", uri, errors.New("resource is a directory"))
	}
	n, err := writeFileAtomic(res.Abs, r, 0o644)
	if err != nil {
		return core.IOError("put", res.Rel, err)
	}
	a.index.markWritten(uri, n)
	return nil
}

// CreateResource reserves relPath and writes r into it.
func (a *Assembler) CreateResource(relPath string, t core.ResourceType, r io.Reader) (string, error) {
	uri, err := a.ReserveResource(relPath, t)
	if err != nil {
		return "", err
	}
	if err := a.PutResource(uri, r); err != nil {
		return "", err
	}
	return uri, nil
}

// Resolve returns the absolute path reserved for uri.
func (a *Assembler) Resolve(uri string) (string, error) {
	res, ok := a.index.lookup(uri)
	if !ok {
		return "", core.ConsistencyError("resolve", uri, core.ErrUnknownResource)
	}
	return res.Abs, nil
}

// Root returns the staging directory, which is the final output when exploded.
func (a *Assembler) Root() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.root
}

// AssemblePackage finalizes the bag: payload manifests, bag-info.txt, tag
// manifests, then archive and compression unless the output is exploded.
func (a *Assembler) AssemblePackage(ctx context.Context) (*core.Package, error) {
	a.mu.RLock()
	initialized, root, params := a.initialized, a.root, a.params
	archive, compression, algs := a.archive, a.compression, a.algorithms
	metadata := a.metadata.Clone()
	a.mu.RUnlock()

	if !initialized {
		return nil, core.ConsistencyError("assemble", "", errors.New("assembler not initialized"))
	}
	if !metadata.Has(core.FieldResourceMap) {
		return nil, core.ConsistencyError("assemble", "", core.ErrMissingResourceMap)
	}
	if err := core.CheckCancelled(ctx); err != nil {
		return nil, err
	}

	// 1. Payload manifests
	payload := a.index.files(func(r *reservation) bool { return r.Type.IsPayload() })
	var payloadRels []string
	for _, r := range payload {
		if !r.Written {
			return nil, core.ConsistencyError("assemble", r.Rel, errors.New("resource reserved but never written"))
		}
		payloadRels = append(payloadRels, r.Rel)
	}
	payloadBytes, err := writeManifests(root, manifestPrefix, payloadRels, algs)
	if err != nil {
		return nil, err
	}

	// 2. bag-info.txt
	if !metadata.Has(core.FieldBaggingDate) {
		metadata.Set(core.FieldBaggingDate, a.config.Now().Format("2006-01-02"))
	}
	metadata.Set(core.FieldPayloadOxum, fmt.Sprintf("%d.%d", payloadBytes, len(payloadRels)))
	metadata.Set(core.FieldProfile, params.Profile)
	// Bag-Size cannot count bag-info.txt itself or the tag manifests over it.
	size, err := dirSize(root)
	if err != nil {
		return nil, core.IOError("measure", root, err)
	}
	metadata.Set(core.FieldBagSize, humanize.Bytes(uint64(size)))
	if err := writeBagInfo(root, metadata); err != nil {
		return nil, err
	}

	// 3. Tag manifests over everything outside the payload
	tags, err := listTagFiles(root)
	if err != nil {
		return nil, core.IOError("list tag files", root, err)
	}
	if _, err := writeManifests(root, tagManifestPrefix, tags, algs); err != nil {
		return nil, err
	}

	a.config.Logger.Info("bag finalized",
		"payload_files", len(payloadRels),
		"payload_bytes", payloadBytes,
		"tag_files", len(tags))

	if archive.Name == core.ArchiveExploded {
		a.setAssembled(root)
		return nil, nil
	}

	// 4. Archive and compression
	if err := core.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	archivePath := filepath.Join(params.Location, params.PackageName+archive.Extension)
	if err := writeArchive(ctx, archive, root, params.PackageName, archivePath); err != nil {
		return nil, err
	}

	final, contentType := archivePath, archive.ContentType
	if !compression.None() {
		compressed := archivePath + compression.Extension
		if err := compressFile(ctx, compression, archivePath, compressed); err != nil {
			return nil, err
		}
		if err := os.Remove(archivePath); err != nil {
			return nil, core.IOError("remove intermediate archive", archivePath, err)
		}
		final, contentType = compressed, compression.ContentType
	}

	if err := os.RemoveAll(root); err != nil {
		return nil, core.IOError("remove staging", root, err)
	}
	a.setAssembled(final)

	return &core.Package{
		Name:        filepath.Base(final),
		ContentType: contentType,
		Path:        final,
	}, nil
}

func (a *Assembler) setAssembled(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assembled = p
}

// isStaging reports whether an existing directory may be replaced: it is
// empty or holds a bag declaration.
func isStaging(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	if len(entries) == 0 {
		return true
	}
	fi, err := os.Stat(filepath.Join(root, BagItFile))
	return err == nil && fi.Mode().IsRegular()
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

var _ core.Assembler = (*Assembler)(nil)
