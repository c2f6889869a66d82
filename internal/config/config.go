// Package config loads build parameter files.
//
// A parameter file is YAML, or JSON with comments when its extension is
// .json or .jsonc:
//
//	package:
//	  name: my-package
//	  location: ./out
//	  archive: tar
//	  compression: gzip
//	  checksums: [md5, sha256]
//	metadata:
//	  Contact-Name: [Zed, Ada]
//	  External-Description: Survey data
//	content:
//	  root: ./src
//	  ignore: ["**/*.log"]
//	  graph: ./extra.nt
//
// Relative paths resolve against the directory holding the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/remediate"
)

// File is a decoded parameter file.
type File struct {
	Package  Package  `yaml:"package"`
	Metadata Metadata `yaml:"metadata"`
	Content  Content  `yaml:"content"`
}

// Package holds the build parameters.
type Package struct {
	Name        string   `yaml:"name"`
	Location    string   `yaml:"location"`
	Profile     string   `yaml:"profile"`
	Archive     string   `yaml:"archive"`
	Compression string   `yaml:"compression"`
	Checksums   []string `yaml:"checksums"`
	Format      string   `yaml:"format"`
	Ontologies  []string `yaml:"ontologies"`
}

// Content locates the material to package.
type Content struct {
	Root   string   `yaml:"root"`
	Ignore []string `yaml:"ignore"`
	Graph  string   `yaml:"graph"`
}

// Metadata is the bag-info section. Each value is a scalar or a sequence;
// sequences keep their order.
type Metadata struct {
	fields *core.Fields
}

// UnmarshalYAML reads a mapping of field names to scalars or sequences.
func (m *Metadata) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: metadata must be a mapping", value.Line)
	}
	m.fields = core.NewFields()
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			m.fields.Add(key.Value, val.Value)
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: %s values must be scalars", item.Line, key.Value)
				}
				m.fields.Add(key.Value, item.Value)
			}
		default:
			return fmt.Errorf("line %d: %s must be a scalar or a sequence", val.Line, key.Value)
		}
	}
	return nil
}

// Fields returns a copy of the metadata.
func (m Metadata) Fields() *core.Fields {
	return m.fields.Clone()
}

// Parse decodes data. JSON input may carry comments and trailing commas.
func Parse(data []byte, ext string) (*File, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	case ".yaml", ".yml", "":
	default:
		return nil, fmt.Errorf("unsupported parameter file type %q", ext)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing parameters: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the parameter file at path, resolving relative
// paths against its directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.resolve(filepath.Dir(path))
	return f, nil
}

func (f *File) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	f.Package.Location = abs(f.Package.Location)
	f.Content.Root = abs(f.Content.Root)
	f.Content.Graph = abs(f.Content.Graph)
	for i, o := range f.Package.Ontologies {
		f.Package.Ontologies[i] = abs(o)
	}
}

// Parameters converts the package section. The profile defaults to the
// Data Conservancy profile and the name to the content root's base name.
func (f *File) Parameters() core.Parameters {
	p := core.Parameters{
		PackageName: f.Package.Name,
		Location:    f.Package.Location,
		Profile:     f.Package.Profile,
		Archive:     f.Package.Archive,
		Compression: f.Package.Compression,
		Checksums:   f.Package.Checksums,
		RDFFormat:   f.Package.Format,
		Ontologies:  f.Package.Ontologies,
	}
	if p.Profile == "" {
		p.Profile = remediate.DefaultProfileID
	}
	if p.PackageName == "" && f.Content.Root != "" {
		p.PackageName = filepath.Base(filepath.Clean(f.Content.Root))
	}
	return p
}
