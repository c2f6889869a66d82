package state_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/state"
)

func buildContext(t *testing.T) *core.BuildContext {
	t.Helper()
	tree := core.NewTree()
	root := tree.AddRoot("urn:root", &core.FileInfo{Location: "/src", Name: "src"})
	child := tree.AddChild(root, "urn:file", &core.FileInfo{Location: "/src/a.txt", IsFile: true, Name: "a.txt"})
	skip := tree.AddChild(root, "urn:skip", &core.FileInfo{Location: "/src/skip", Name: "skip"})
	tree.Node(child).Identifier = "bag://pkg/META-INF/org.dataconservancy.bagit/OBJ/a.txt.ttl"
	tree.Node(child).Type = "File"
	tree.Node(skip).Ignored = true

	meta := core.NewFields()
	meta.Add("Contact-Name", "Zed")
	meta.Add("Contact-Name", "Ada")

	bc := core.NewBuildContext(core.Request{
		Tree:     tree,
		Params:   core.Parameters{PackageName: "pkg", Profile: "p", Archive: "tar", Checksums: []string{"md5"}},
		Metadata: meta,
	}, nil, nil)
	bc.Rename(core.FileURI("/src/a.txt"), "bag://pkg/data/a.txt")
	bc.ResourceMapURI = "bag://pkg/META-INF/org.dataconservancy.bagit/ORE-REM/ORE-REM.ttl"
	return bc
}

func TestFromBuild(t *testing.T) {
	s := state.FromBuild(buildContext(t))

	assert.Equal(t, "pkg", s.Package)
	assert.Equal(t, "turtle", s.Format)
	require.Len(t, s.Nodes, 3)
	assert.Equal(t, -1, s.Nodes[0].Parent)
	assert.Equal(t, []int{1, 2}, s.Nodes[0].Children)
	assert.Equal(t, "bag://pkg/data/a.txt", s.Nodes[1].Location, "file location follows the rename map")
	assert.Equal(t, "/src", s.Nodes[0].Location)
	assert.True(t, s.Nodes[2].Ignored)
	assert.Equal(t, []state.Field{{Name: "Contact-Name", Values: []string{"Zed", "Ada"}}}, s.Metadata)
}

func TestEncodeDecode(t *testing.T) {
	s := state.FromBuild(buildContext(t))

	var buf bytes.Buffer
	require.NoError(t, state.Encode(&buf, s))

	got, err := state.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, s, got)

	tree, err := got.Tree()
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, "a.txt", tree.RelativePath(1))
	assert.Equal(t, "File", tree.Node(1).Type)
	assert.True(t, tree.IsIgnored(2))
}

func TestEncodingIsDeterministic(t *testing.T) {
	a, err := state.Marshal(state.FromBuild(buildContext(t)))
	require.NoError(t, err)
	for range 5 {
		b, err := state.Marshal(state.FromBuild(buildContext(t)))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestDecodeRejects(t *testing.T) {
	_, err := state.Decode(bytes.NewReader([]byte{0xff, 0x00}))
	assert.Error(t, err)

	data, err := state.Marshal(&state.Snapshot{Version: state.Version + 1})
	require.NoError(t, err)
	_, err = state.Decode(bytes.NewReader(data))
	assert.ErrorContains(t, err, "unsupported package state version")
}

func TestTreeRejectsOrphans(t *testing.T) {
	s := &state.Snapshot{Nodes: []state.Node{{ID: 0, Parent: -1}, {ID: 1, Parent: 7}}}
	_, err := s.Tree()
	assert.ErrorContains(t, err, "unknown parent")
}
