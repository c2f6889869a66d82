// Package state encodes the package-state snapshot stored inside a bag so a
// package can be reopened and edited later.
//
// Snapshots use CBOR Core Deterministic Encoding: the same build always
// produces the same bytes.
package state

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/aretw0/bagger/pkg/core"
)

// Version is the snapshot layout written by Encode.
const Version = 1

// FileName is the snapshot resource name inside the state directory.
const FileName = "pkgState.cbor"

// Snapshot is the post-build tree and package description.
type Snapshot struct {
	Version     int               `cbor:"1,keyasint"`
	Package     string            `cbor:"2,keyasint"`
	Profile     string            `cbor:"3,keyasint"`
	Archive     string            `cbor:"4,keyasint,omitempty"`
	Compression string            `cbor:"5,keyasint,omitempty"`
	Format      string            `cbor:"6,keyasint"`
	Checksums   []string          `cbor:"7,keyasint,omitempty"`
	Metadata    []Field           `cbor:"8,keyasint,omitempty"`
	Renamed     map[string]string `cbor:"9,keyasint,omitempty"`
	Nodes       []Node            `cbor:"10,keyasint"`
	ResourceMap string            `cbor:"11,keyasint,omitempty"`
}

// Field is one bag-info field with its values in insertion order.
type Field struct {
	Name   string   `cbor:"1,keyasint"`
	Values []string `cbor:"2,keyasint"`
}

// Node is a tree node as it stands after the build.
type Node struct {
	ID           int    `cbor:"1,keyasint"`
	Parent       int    `cbor:"2,keyasint"`
	Identifier   string `cbor:"3,keyasint,omitempty"`
	DomainObject string `cbor:"4,keyasint,omitempty"`
	Type         string `cbor:"5,keyasint,omitempty"`
	Name         string `cbor:"6,keyasint,omitempty"`
	Location     string `cbor:"7,keyasint,omitempty"`
	IsFile       bool   `cbor:"8,keyasint,omitempty"`
	Ignored      bool   `cbor:"9,keyasint,omitempty"`
	Children     []int  `cbor:"10,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("state: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("state: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode writes s to w.
func Encode(w io.Writer, s *Snapshot) error {
	if s.Version == 0 {
		s.Version = Version
	}
	return encMode.NewEncoder(w).Encode(s)
}

// Marshal returns the encoded form of s.
func Marshal(s *Snapshot) ([]byte, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	return encMode.Marshal(s)
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := decMode.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode package state: %w", err)
	}
	if s.Version > Version {
		return nil, fmt.Errorf("unsupported package state version %d", s.Version)
	}
	return &s, nil
}

// FromBuild captures the tree and package description held by bc. File
// locations are rewritten through the rename map, so a node whose source file
// was copied into the payload points at its bag:// URI.
func FromBuild(bc *core.BuildContext) *Snapshot {
	s := &Snapshot{
		Version:     Version,
		Package:     bc.Params.PackageName,
		Profile:     bc.Params.Profile,
		Archive:     bc.Params.Archive,
		Compression: bc.Params.Compression,
		Format:      string(bc.Format),
		Checksums:   bc.Params.Checksums,
		ResourceMap: bc.ResourceMapURI,
	}
	if len(bc.Renamed) > 0 {
		s.Renamed = make(map[string]string, len(bc.Renamed))
		for k, v := range bc.Renamed {
			s.Renamed[k] = v
		}
	}
	for _, name := range bc.Metadata.Names() {
		s.Metadata = append(s.Metadata, Field{Name: name, Values: bc.Metadata.Get(name)})
	}
	if bc.Tree == nil {
		return s
	}
	for _, n := range bc.Tree.Nodes() {
		node := Node{
			ID:           int(n.ID),
			Parent:       int(n.Parent),
			Identifier:   n.Identifier,
			DomainObject: n.DomainObject,
			Type:         n.Type,
			Ignored:      n.Ignored,
		}
		if n.File != nil {
			node.Name = n.File.Name
			node.IsFile = n.File.IsFile
			node.Location = n.File.Location
			if uri, ok := bc.Renamed[core.FileURI(n.File.Location)]; ok {
				node.Location = uri
			}
		}
		for _, c := range n.Children {
			node.Children = append(node.Children, int(c))
		}
		s.Nodes = append(s.Nodes, node)
	}
	return s
}

// Tree rebuilds a content tree from the snapshot. Node ids are preserved
// when the snapshot was taken from a tree built in pre-order.
func (s *Snapshot) Tree() (*core.Tree, error) {
	t := core.NewTree()
	ids := make(map[int]core.NodeID, len(s.Nodes))
	for _, n := range s.Nodes {
		var file *core.FileInfo
		if n.Location != "" || n.Name != "" {
			file = &core.FileInfo{Location: n.Location, IsFile: n.IsFile, Name: n.Name}
		}
		var id core.NodeID
		if n.Parent == int(core.NoNode) {
			if t.Len() > 0 {
				return nil, fmt.Errorf("snapshot has more than one root")
			}
			id = t.AddRoot(n.DomainObject, file)
		} else {
			parent, ok := ids[n.Parent]
			if !ok {
				return nil, fmt.Errorf("node %d references unknown parent %d", n.ID, n.Parent)
			}
			id = t.AddChild(parent, n.DomainObject, file)
		}
		node := t.Node(id)
		node.Identifier = n.Identifier
		node.Type = n.Type
		node.Ignored = n.Ignored
		ids[n.ID] = id
	}
	return t, nil
}
