package core_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bagger/pkg/core"
)

// MockAssembler implements core.Assembler in memory.
type MockAssembler struct {
	calls     []string
	resources map[string][]byte
	initErr   error
}

func NewMockAssembler() *MockAssembler {
	return &MockAssembler{resources: make(map[string][]byte)}
}

func (m *MockAssembler) Init(params core.Parameters, metadata *core.Fields) error {
	m.calls = append(m.calls, "init")
	return m.initErr
}

func (m *MockAssembler) ReserveResource(relPath string, t core.ResourceType) (string, error) {
	uri := "bag://mock/" + relPath
	if _, ok := m.resources[uri]; ok {
		return "", core.ErrDuplicateResource
	}
	m.resources[uri] = nil
	return uri, nil
}

func (m *MockAssembler) ReserveDirectory(relPath string, t core.ResourceType) (string, error) {
	return m.ReserveResource(strings.TrimSuffix(relPath, "/")+"/", t)
}

func (m *MockAssembler) PutResource(uri string, r io.Reader) error {
	if _, ok := m.resources[uri]; !ok {
		return core.ErrUnknownResource
	}
	data, err := io.ReadAll(r)
	m.resources[uri] = data
	return err
}

func (m *MockAssembler) CreateResource(relPath string, t core.ResourceType, r io.Reader) (string, error) {
	uri, err := m.ReserveResource(relPath, t)
	if err != nil {
		return "", err
	}
	return uri, m.PutResource(uri, r)
}

func (m *MockAssembler) Resolve(uri string) (string, error) {
	return strings.TrimPrefix(uri, "bag://mock/"), nil
}

func (m *MockAssembler) AssemblePackage(ctx context.Context) (*core.Package, error) {
	m.calls = append(m.calls, "assemble")
	return &core.Package{Name: "mock.tar", ContentType: "application/x-tar", Path: "/tmp/mock.tar"}, nil
}

// recordingVisitor logs every call it receives.
type recordingVisitor struct {
	name    string
	log     *[]string
	failOn  string
	onVisit func(context.Context)
}

func (v recordingVisitor) Init(ctx context.Context, bc *core.BuildContext) error {
	*v.log = append(*v.log, v.name+":init")
	return nil
}

func (v recordingVisitor) VisitNode(ctx context.Context, n *core.Node, bc *core.BuildContext) error {
	*v.log = append(*v.log, fmt.Sprintf("%s:visit:%s", v.name, n.DomainObject))
	if v.onVisit != nil {
		v.onVisit(ctx)
	}
	if n.DomainObject == v.failOn {
		return core.ConsistencyError("visit", n.DomainObject, errors.New("boom"))
	}
	return nil
}

func (v recordingVisitor) Finish(ctx context.Context, bc *core.BuildContext) error {
	*v.log = append(*v.log, v.name+":finish")
	return nil
}

func sampleTree() *core.Tree {
	tree := core.NewTree()
	root := tree.AddRoot("urn:root", &core.FileInfo{Name: "root"})
	a := tree.AddChild(root, "urn:a", &core.FileInfo{Name: "a"})
	tree.AddChild(a, "urn:a1", &core.FileInfo{Name: "a1.txt", IsFile: true})
	skip := tree.AddChild(root, "urn:skip", &core.FileInfo{Name: "skip"})
	tree.AddChild(skip, "urn:skip1", &core.FileInfo{Name: "s.txt", IsFile: true})
	tree.Node(skip).Ignored = true
	tree.AddChild(root, "urn:b", &core.FileInfo{Name: "b.txt", IsFile: true})
	return tree
}

func TestPipelineBuildOrder(t *testing.T) {
	var log []string
	asm := NewMockAssembler()
	p := core.NewPipeline(func() core.Assembler { return asm }, []core.Visitor{
		recordingVisitor{name: "one", log: &log},
		recordingVisitor{name: "two", log: &log},
	})

	pkg, err := p.Build(context.Background(), core.Request{Tree: sampleTree()})
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, "mock.tar", pkg.Name)

	assert.Equal(t, []string{
		"one:init", "two:init",
		"one:visit:urn:root", "two:visit:urn:root",
		"one:visit:urn:a", "two:visit:urn:a",
		"one:visit:urn:a1", "two:visit:urn:a1",
		"one:visit:urn:b", "two:visit:urn:b",
		"one:finish", "two:finish",
	}, log)
	assert.Equal(t, []string{"init", "assemble"}, asm.calls)

	state := p.State().(core.PipelineState)
	assert.Equal(t, 1, state.Builds)
	assert.Equal(t, "/tmp/mock.tar", state.LastPackage)
	assert.Len(t, state.Visitors, 2)
}

func TestPipelineMissingTree(t *testing.T) {
	p := core.NewPipeline(func() core.Assembler { return NewMockAssembler() }, nil)
	_, err := p.Build(context.Background(), core.Request{})
	require.Error(t, err)
	assert.True(t, core.IsConfiguration(err))
	assert.ErrorIs(t, err, core.ErrMissingParameter)
}

func TestPipelineRejectsStagingOverContent(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "survey")

	tests := []struct {
		name     string
		location string
		pkg      string
	}{
		{"Staging Is Content Root", dir, "survey"},
		{"Staging Inside Content", content, "out"},
		{"Staging Contains Content", filepath.Dir(dir), filepath.Base(dir)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := core.NewTree()
			root := tree.AddRoot("urn:root", &core.FileInfo{Location: content, Name: "survey"})
			tree.AddChild(root, "urn:a", &core.FileInfo{Location: filepath.Join(content, "a.txt"), Name: "a.txt", IsFile: true})

			asm := NewMockAssembler()
			p := core.NewPipeline(func() core.Assembler { return asm }, nil)
			_, err := p.Build(context.Background(), core.Request{
				Tree:   tree,
				Params: core.Parameters{Location: tt.location, PackageName: tt.pkg},
			})
			require.Error(t, err)
			assert.True(t, core.IsConfiguration(err))
			assert.ErrorIs(t, err, core.ErrStagingOverlap)
			assert.Empty(t, asm.calls, "the assembler is never initialized")
		})
	}

	t.Run("Sibling Staging", func(t *testing.T) {
		tree := core.NewTree()
		tree.AddRoot("urn:root", &core.FileInfo{Location: content, Name: "survey"})
		p := core.NewPipeline(func() core.Assembler { return NewMockAssembler() }, nil)
		_, err := p.Build(context.Background(), core.Request{
			Tree:   tree,
			Params: core.Parameters{Location: dir, PackageName: "survey-bag"},
		})
		assert.NoError(t, err)
	})
}

func TestPipelineInitFailureStopsBuild(t *testing.T) {
	var log []string
	asm := NewMockAssembler()
	asm.initErr = core.ConfigError("init", core.ErrUnsupportedArchive)
	p := core.NewPipeline(func() core.Assembler { return asm }, []core.Visitor{recordingVisitor{name: "v", log: &log}})

	_, err := p.Build(context.Background(), core.Request{Tree: sampleTree()})
	assert.True(t, core.IsConfiguration(err))
	assert.Empty(t, log, "no visitor runs after a configuration failure")
}

func TestPipelineVisitorFailure(t *testing.T) {
	var log []string
	asm := NewMockAssembler()
	p := core.NewPipeline(func() core.Assembler { return asm }, []core.Visitor{recordingVisitor{name: "v", log: &log, failOn: "urn:a"}})

	_, err := p.Build(context.Background(), core.Request{Tree: sampleTree()})
	assert.True(t, core.IsConsistency(err))
	assert.NotContains(t, log, "v:finish")
	assert.NotContains(t, asm.calls, "assemble")

	state := p.State().(core.PipelineState)
	assert.Equal(t, 1, state.Failures)
}

func TestPipelineCancellation(t *testing.T) {
	var log []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := core.NewPipeline(func() core.Assembler { return NewMockAssembler() }, []core.Visitor{
		recordingVisitor{name: "v", log: &log, onVisit: func(context.Context) { cancel() }},
	})

	_, err := p.Build(ctx, core.Request{Tree: sampleTree()})
	require.Error(t, err)
	assert.True(t, core.IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsConfiguration(err) || core.IsIO(err) || core.IsConsistency(err))
	assert.Equal(t, []string{"v:init", "v:visit:urn:root"}, log, "cancellation is checked before each node")

	assert.Equal(t, 1, p.State().(core.PipelineState).Cancelled)
}

func TestPipelineBuildAsync(t *testing.T) {
	var log []string
	p := core.NewPipeline(func() core.Assembler { return NewMockAssembler() }, []core.Visitor{recordingVisitor{name: "v", log: &log}})

	res, ok := <-p.BuildAsync(context.Background(), core.Request{Tree: sampleTree()})
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.False(t, res.Cancelled)
	assert.NotNil(t, res.Package)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = <-p.BuildAsync(ctx, core.Request{Tree: sampleTree()})
	assert.True(t, res.Cancelled)
	assert.Nil(t, res.Package)
}

func TestPipelineEvents(t *testing.T) {
	events := make(chan core.Event, 64)
	p := core.NewPipeline(func() core.Assembler { return NewMockAssembler() }, nil, core.WithEvents(events))

	_, err := p.Build(context.Background(), core.Request{Tree: sampleTree()})
	require.NoError(t, err)
	close(events)

	var types []core.EventType
	for e := range events {
		types = append(types, e.Type)
	}
	require.NotEmpty(t, types)
	assert.Equal(t, core.EventStart, types[0])
	assert.Equal(t, core.EventDone, types[len(types)-1])
	assert.Contains(t, types, core.EventAssemble)
	assert.True(t, p.State().(core.PipelineState).Events)
}
