package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// TempFilePrefix is the prefix used for temporary atomic write files.
	TempFilePrefix = "bagger-tmp-"
)

// atomicFile is a temp file that replaces its target only on Commit.
type atomicFile struct {
	*os.File
	target string
	perm   os.FileMode
	closed bool
}

// createAtomic opens a temp file next to target. The directory must exist.
func createAtomic(target string, perm os.FileMode) (*atomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), TempFilePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &atomicFile{File: tmp, target: target, perm: perm}, nil
}

// Commit syncs the temp file and renames it over the target.
func (f *atomicFile) Commit() error {
	if f.closed {
		return fmt.Errorf("atomic file %s already closed", f.target)
	}
	f.closed = true

	if err := f.Sync(); err != nil {
		f.File.Close()
		os.Remove(f.Name())
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(f.Name(), f.perm); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(f.Name(), f.target); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to rename temp file to %s: %w", f.target, err)
	}
	return nil
}

// Abort discards the temp file. It is a no-op after Commit.
func (f *atomicFile) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	f.File.Close()
	os.Remove(f.Name())
}

// writeFileAtomic streams r into filename and returns the bytes written.
func writeFileAtomic(filename string, r io.Reader, perm os.FileMode) (int64, error) {
	f, err := createAtomic(filename, perm)
	if err != nil {
		return 0, err
	}
	defer f.Abort()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("failed to write to temp file: %w", err)
	}
	return n, f.Commit()
}
