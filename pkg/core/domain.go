// Package core holds the domain model of a package build: the content tree,
// the build parameters and metadata, the assembler and visitor ports, and the
// pipeline that drives them.
package core

import (
	"fmt"
	"slices"
	"time"
)

// Archive formats.
const (
	ArchiveTar      = "tar"
	ArchiveZip      = "zip"
	ArchiveJar      = "jar"
	ArchiveAr       = "ar"
	ArchiveCpio     = "cpio"
	ArchiveExploded = "exploded"
)

// Compression formats.
const (
	CompressionNone    = "none"
	CompressionGzip    = "gzip"
	CompressionBzip2   = "bzip2"
	CompressionZstd    = "zstd"
	CompressionLz4     = "lz4"
	CompressionPack200 = "pack200"
)

// Parameters configure one build.
type Parameters struct {
	PackageName string
	Location    string // directory receiving the staging dir and the archive
	Profile     string
	Archive     string   // defaults to tar
	Compression string   // defaults to none
	Checksums   []string // defaults to md5
	RDFFormat   string   // defaults to turtle
	Ontologies  []string // files copied into the ontology dir and aggregated
}

// Well-known metadata field names.
const (
	FieldResourceMap  = "PKG-ORE-REM"
	FieldBaggingDate  = "Bagging-Date"
	FieldPayloadOxum  = "Payload-Oxum"
	FieldBagSize      = "Bag-Size" // staged bytes before bag-info.txt and tag manifests are written
	FieldProfile      = "BagIt-Profile-Identifier"
	FieldPackageName  = "Package-Name"
	FieldExternalID   = "External-Identifier"
	FieldContactName  = "Contact-Name"
	FieldContactEmail = "Contact-Email"
	FieldSourceOrg    = "Source-Organization"
	FieldDescription  = "External-Description"
)

// Fields is an ordered multimap of descriptive package metadata.
// Names iterate sorted; values of one name keep insertion order.
// The zero value is ready to use.
type Fields struct {
	values map[string][]string
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{values: make(map[string][]string)}
}

// Add appends a value to name.
func (f *Fields) Add(name, value string) {
	if f.values == nil {
		f.values = make(map[string][]string)
	}
	f.values[name] = append(f.values[name], value)
}

// Set replaces all values of name.
func (f *Fields) Set(name string, values ...string) {
	if f.values == nil {
		f.values = make(map[string][]string)
	}
	f.values[name] = slices.Clone(values)
}

// Get returns the values of name in insertion order.
func (f *Fields) Get(name string) []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.values[name])
}

// First returns the first value of name.
func (f *Fields) First(name string) (string, bool) {
	if f == nil || len(f.values[name]) == 0 {
		return "", false
	}
	return f.values[name][0], true
}

// Has reports whether name has at least one value.
func (f *Fields) Has(name string) bool {
	return f != nil && len(f.values[name]) > 0
}

// Delete removes name.
func (f *Fields) Delete(name string) {
	if f != nil {
		delete(f.values, name)
	}
}

// Names returns the field names sorted.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.values))
	for n, v := range f.values {
		if len(v) > 0 {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// Len returns the number of names with values.
func (f *Fields) Len() int {
	return len(f.Names())
}

// Clone returns an independent copy.
func (f *Fields) Clone() *Fields {
	c := NewFields()
	if f == nil {
		return c
	}
	for n, v := range f.values {
		c.values[n] = slices.Clone(v)
	}
	return c
}

// Map returns a copy of the fields as a plain map.
func (f *Fields) Map() map[string][]string {
	out := make(map[string][]string)
	if f == nil {
		return out
	}
	for n, v := range f.values {
		out[n] = slices.Clone(v)
	}
	return out
}

// EventType represents a build progress step or a change in a content source.
type EventType string

const (
	EventStart    EventType = "START"
	EventReserve  EventType = "RESERVE"
	EventVisit    EventType = "VISIT"
	EventFinish   EventType = "FINISH"
	EventAssemble EventType = "ASSEMBLE"
	EventDone     EventType = "DONE"
	EventFailed   EventType = "FAILED"

	// Content source changes.
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event reports build progress.
type Event struct {
	Type      EventType
	ID        string // resource URI or node identifier, when relevant
	Timestamp int64  // Unix timestamp
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, id string) Event {
	return Event{Type: t, ID: id, Timestamp: time.Now().Unix()}
}

func (e Event) String() string {
	if e.ID == "" {
		return string(e.Type)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
