package core

import (
	"net/url"
	"path"
	"path/filepath"
	"slices"
)

// NodeID addresses a node inside its Tree.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// FileInfo describes the file or directory a node wraps.
type FileInfo struct {
	Location string // absolute filesystem path
	IsFile   bool
	Name     string
}

// Node is one entry of the content tree.
type Node struct {
	ID           NodeID
	Identifier   string // description URI, set once reserved
	DomainObject string // RDF subject, rebased during a build
	File         *FileInfo
	Parent       NodeID
	Children     []NodeID
	Ignored      bool
	Type         string
}

// IsRegularFile reports whether the node wraps a file rather than a directory.
func (n *Node) IsRegularFile() bool {
	return n.File != nil && n.File.IsFile
}

// Tree is an arena of nodes. Parents are indices, never pointers.
type Tree struct {
	nodes []*Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// AddRoot creates the root node. It panics if a root already exists.
func (t *Tree) AddRoot(domainObject string, file *FileInfo) NodeID {
	if len(t.nodes) > 0 {
		panic("core: tree already has a root")
	}
	return t.add(NoNode, domainObject, file)
}

// AddChild appends a child to parent.
func (t *Tree) AddChild(parent NodeID, domainObject string, file *FileInfo) NodeID {
	if t.Node(parent) == nil {
		panic("core: unknown parent node")
	}
	id := t.add(parent, domainObject, file)
	p := t.nodes[parent]
	p.Children = append(p.Children, id)
	return id
}

func (t *Tree) add(parent NodeID, domainObject string, file *FileInfo) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &Node{
		ID:           id,
		DomainObject: domainObject,
		File:         file,
		Parent:       parent,
	})
	return id
}

// Node returns the node for id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	return t.Node(0)
}

// Parent returns the parent of id, or nil for the root.
func (t *Tree) Parent(id NodeID) *Node {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	return t.Node(n.Parent)
}

// Children returns the children of id in order.
func (t *Tree) Children(id NodeID) []*Node {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, t.nodes[c])
	}
	return out
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits nodes in pre-order. Returning false from fn skips the subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	if len(t.nodes) == 0 {
		return
	}
	stack := []NodeID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		if !fn(n) {
			continue
		}
		children := slices.Clone(n.Children)
		slices.Reverse(children)
		stack = append(stack, children...)
	}
}

// Nodes returns every node in pre-order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	t.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// IsIgnored reports whether id or any of its ancestors is ignored.
func (t *Tree) IsIgnored(id NodeID) bool {
	for n := t.Node(id); n != nil; n = t.Node(n.Parent) {
		if n.Ignored {
			return true
		}
	}
	return false
}

// RelativePath joins the file names from below the root down to id. The root
// itself has an empty relative path.
func (t *Tree) RelativePath(id NodeID) string {
	var names []string
	for n := t.Node(id); n != nil && n.Parent != NoNode; n = t.Node(n.Parent) {
		names = append(names, nodeName(n))
	}
	slices.Reverse(names)
	return path.Join(names...)
}

func nodeName(n *Node) string {
	if n.File != nil && n.File.Name != "" {
		return n.File.Name
	}
	if n.File != nil && n.File.Location != "" {
		return filepath.Base(n.File.Location)
	}
	return n.DomainObject
}

// FileURI returns the file:// URI of an absolute location, the form domain
// object graphs use to reference source files.
func FileURI(location string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(location)}).String()
}
