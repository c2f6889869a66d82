package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/bagger/pkg/core"
)

func TestTreeNavigation(t *testing.T) {
	tree := sampleTree()
	assert.Equal(t, 6, tree.Len())

	root := tree.Root()
	assert.Equal(t, core.NoNode, root.Parent)
	assert.Nil(t, tree.Parent(root.ID))

	children := tree.Children(root.ID)
	assert.Len(t, children, 3)
	assert.Equal(t, "urn:a", children[0].DomainObject)
	assert.Equal(t, root, tree.Parent(children[0].ID))

	var order []string
	for _, n := range tree.Nodes() {
		order = append(order, n.DomainObject)
	}
	assert.Equal(t, []string{"urn:root", "urn:a", "urn:a1", "urn:skip", "urn:skip1", "urn:b"}, order)

	assert.Nil(t, tree.Node(42))
	assert.Nil(t, tree.Node(core.NoNode))
}

func TestTreeIgnoredPropagates(t *testing.T) {
	tree := sampleTree()
	byDO := map[string]*core.Node{}
	for _, n := range tree.Nodes() {
		byDO[n.DomainObject] = n
	}

	assert.True(t, tree.IsIgnored(byDO["urn:skip"].ID))
	assert.True(t, tree.IsIgnored(byDO["urn:skip1"].ID))
	assert.False(t, byDO["urn:skip1"].Ignored, "the flag itself is not copied down")
	assert.False(t, tree.IsIgnored(byDO["urn:a1"].ID))
}

func TestTreeRelativePath(t *testing.T) {
	tree := sampleTree()
	byDO := map[string]*core.Node{}
	for _, n := range tree.Nodes() {
		byDO[n.DomainObject] = n
	}

	assert.Equal(t, "", tree.RelativePath(tree.Root().ID))
	assert.Equal(t, "a/a1.txt", tree.RelativePath(byDO["urn:a1"].ID))
	assert.Equal(t, "b.txt", tree.RelativePath(byDO["urn:b"].ID))
	assert.True(t, byDO["urn:b"].IsRegularFile())
	assert.False(t, byDO["urn:a"].IsRegularFile())
}

func TestTreeWalkSkipsSubtree(t *testing.T) {
	tree := sampleTree()
	var seen []string
	tree.Walk(func(n *core.Node) bool {
		seen = append(seen, n.DomainObject)
		return n.DomainObject != "urn:a"
	})
	assert.NotContains(t, seen, "urn:a1")
	assert.Contains(t, seen, "urn:b")
}

func TestTreeSingleRoot(t *testing.T) {
	tree := core.NewTree()
	tree.AddRoot("urn:r", nil)
	assert.Panics(t, func() { tree.AddRoot("urn:r2", nil) })
	assert.Panics(t, func() { tree.AddChild(7, "urn:x", nil) })
}
