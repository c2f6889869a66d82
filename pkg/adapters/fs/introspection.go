package fs

import (
	"github.com/aretw0/introspection"
)

// AssemblerState exposes internal state for observability.
type AssemblerState struct {
	Root        string   `json:"root"`
	Package     string   `json:"package"`
	Profile     string   `json:"profile"`
	Archive     string   `json:"archive"`
	Compression string   `json:"compression"`
	Checksums   []string `json:"checksums"`
	Payload     int      `json:"payload_resources"`
	Tags        int      `json:"tag_resources"`
	Directories int      `json:"directories"`
	Initialized bool     `json:"initialized"`
	Output      string   `json:"output,omitempty"`
}

// State implements introspection.Introspectable.
func (a *Assembler) State() any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	payload, tags, dirs := a.index.counts()
	return AssemblerState{
		Root:        a.root,
		Package:     a.params.PackageName,
		Profile:     a.profile.ID,
		Archive:     a.archive.Name,
		Compression: a.compression.Name,
		Checksums:   algorithmNames(a.algorithms),
		Payload:     payload,
		Tags:        tags,
		Directories: dirs,
		Initialized: a.initialized,
		Output:      a.assembled,
	}
}

// ComponentType implements introspection.Component.
func (a *Assembler) ComponentType() string {
	return "bagit-assembler"
}

var _ introspection.Introspectable = (*Assembler)(nil)
var _ introspection.Component = (*Assembler)(nil)
