package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`,
// which build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(os.TempDir())) {
		return true
	}
	return strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe")
}

// ResolveLocation returns where packages are written. When sandboxed, the
// location is re-rooted under a namespaced temporary directory unless it
// already lives inside the system temp directory.
func ResolveLocation(location string, sandbox bool) string {
	if !sandbox {
		if location == "" {
			return "."
		}
		return location
	}

	clean := filepath.Clean(location)
	if rel, err := filepath.Rel(os.TempDir(), clean); err == nil && filepath.IsAbs(clean) && !strings.HasPrefix(rel, "..") {
		return clean
	}

	name := filepath.Base(clean)
	if location == "" || name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), "bagger-dev", name)
}

// sandboxed reports whether the options route output into the dev sandbox.
func (o *options) sandboxed() bool {
	if force, _ := o.config["temp_dir"].(bool); force {
		return true
	}
	safety := true
	if v, ok := o.config["dev_safety"].(bool); ok {
		safety = v
	}
	return safety && IsDevRun()
}
