package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bagger"
)

// paramFlags override values read from the parameter file.
type paramFlags struct {
	name        string
	location    string
	archive     string
	compression string
	format      string
	graph       string
	checksums   []string
	ignore      []string
	forceTemp   bool
}

func (p *paramFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&p.name, "name", "n", "", "Package name (defaults to the content root name)")
	f.StringVarP(&p.location, "location", "o", "", "Directory receiving the package")
	f.StringVarP(&p.archive, "archive", "a", "", "Archive format: tar, zip, jar, ar, cpio or exploded")
	f.StringVarP(&p.compression, "compression", "z", "", "Compression: gzip, bzip2, zstd or lz4")
	f.StringVar(&p.format, "format", "", "RDF serialization: turtle, ntriples or jsonld")
	f.StringVar(&p.graph, "graph", "", "N-Triples file merged into the content graph")
	f.StringSliceVar(&p.checksums, "checksum", nil, "Checksum algorithms (repeatable)")
	f.StringSliceVar(&p.ignore, "ignore", nil, "Glob patterns excluded from the content (repeatable)")
	f.BoolVar(&p.forceTemp, "temp", false, "Write the package into a temporary directory")
}

// load reads the parameter file named by args, or the nearest one above the
// working directory, and applies the flag overrides. A bare content directory
// is accepted in place of a parameter file.
func (p *paramFlags) load(args []string) (*bagger.Params, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	var f *bagger.Params
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		f = &bagger.Params{}
		f.Content.Root = path
	} else {
		if path == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			if path, err = bagger.FindParams(cwd); err != nil {
				return nil, err
			}
		}
		if f, err = bagger.LoadParams(path); err != nil {
			return nil, err
		}
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&f.Package.Name, p.name)
	set(&f.Package.Location, p.location)
	set(&f.Package.Archive, p.archive)
	set(&f.Package.Compression, p.compression)
	set(&f.Package.Format, p.format)
	set(&f.Content.Graph, p.graph)
	if len(p.checksums) > 0 {
		f.Package.Checksums = p.checksums
	}
	f.Content.Ignore = append(f.Content.Ignore, p.ignore...)
	return f, nil
}

func (p *paramFlags) options() []bagger.Option {
	return []bagger.Option{bagger.WithForceTemp(p.forceTemp)}
}
