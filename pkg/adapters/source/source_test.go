package source_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bagger/pkg/adapters/source"
	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/rdf"
	"github.com/aretw0/bagger/pkg/vocab"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("urn:test:%d", n)
	}
}

func newSource(t *testing.T, ignore ...string) *source.Source {
	t.Helper()
	s, err := source.New(source.Config{Ignore: ignore, NewID: sequentialIDs()})
	require.NoError(t, err)
	return s
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "dir", "b.txt"), "beta")
	writeFile(t, filepath.Join(root, "dir", "nested", "c.txt"), "gamma")

	tree, graph, err := newSource(t).Load(context.Background(), root)
	require.NoError(t, err)

	// root, a.txt, dir, dir/b.txt, dir/nested, dir/nested/c.txt
	require.Equal(t, 6, tree.Len())
	var paths []string
	for _, n := range tree.Nodes() {
		paths = append(paths, tree.RelativePath(n.ID))
	}
	assert.Equal(t, []string{"", "a.txt", "dir", "dir/b.txt", "dir/nested", "dir/nested/c.txt"}, paths)

	rootNode := tree.Root()
	assert.Equal(t, source.TypeCollection, rootNode.Type)
	assert.Equal(t, "urn:test:1", rootNode.DomainObject)

	a := tree.Node(1)
	assert.Equal(t, source.TypeDataItem, a.Type)
	assert.True(t, a.IsRegularFile())

	subject := rdf.IRI(a.DomainObject)
	assert.True(t, graph.Contains(rdf.NewTriple(subject, rdf.IRI(vocab.DCSHasFile), rdf.IRI(core.FileURI(filepath.Join(root, "a.txt"))))))
	assert.True(t, graph.Contains(rdf.NewTriple(rdf.IRI(rootNode.DomainObject), rdf.IRI(vocab.DCTermsHasPart), subject)))

	local := rdf.Cut(graph, rdf.SelectLocal(graph, a.DomainObject))
	assert.Equal(t, 7, local.Len(), "title, type, hasFile, hasMetadata and three file statements")
	assert.Contains(t, local.Triples(), rdf.NewTriple(rdf.Blank("file1"), rdf.IRI(vocab.DCTermsExtent), rdf.TypedLiteral("5", vocab.XSDInteger)))
}

func TestLoadIgnore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "skip.log"), "s")
	writeFile(t, filepath.Join(root, "build", "out.bin"), "b")

	tree, _, err := newSource(t, "*.log", "build/**").Load(context.Background(), root)
	require.NoError(t, err)

	ignored := map[string]bool{}
	for _, n := range tree.Nodes() {
		ignored[tree.RelativePath(n.ID)] = tree.IsIgnored(n.ID)
	}
	assert.Equal(t, map[string]bool{
		"":              false,
		"build":         true,
		"build/out.bin": true,
		"keep.txt":      false,
		"skip.log":      true,
	}, ignored)
}

func TestLoadSingleFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "report.txt")
	writeFile(t, file, "hi")

	tree, graph, err := newSource(t).Load(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
	assert.True(t, tree.Root().IsRegularFile())
	assert.False(t, graph.Empty())
}

func TestLoadErrors(t *testing.T) {
	_, err := source.New(source.Config{Ignore: []string{"[unclosed"}})
	assert.True(t, core.IsConfiguration(err))

	_, _, err = newSource(t).Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, core.IsIO(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = newSource(t).Load(ctx, t.TempDir())
	assert.True(t, core.IsCancelled(err))
}

func TestDefaultIDsAreURNs(t *testing.T) {
	s, err := source.New(source.Config{})
	require.NoError(t, err)
	tree, _, err := s.Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Regexp(t, `^urn:uuid:[0-9a-f-]{36}$`, tree.Root().DomainObject)
}

func waitActive(t *testing.T, w *source.Watcher) {
	t.Helper()
	require.Eventually(t, w.Active, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ignored", "x.txt"), "x")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan core.Event, 16)
	w := newSource(t, "ignored/**", "*.tmp").NewWatcher(root, events, 100*time.Millisecond)
	require.NoError(t, w.Start(ctx))
	waitActive(t, w)

	writeFile(t, filepath.Join(root, "ignored", "y.txt"), "y")
	writeFile(t, filepath.Join(root, "scratch.tmp"), "t")
	writeFile(t, filepath.Join(root, "doc.txt"), "hello")

	select {
	case e := <-events:
		assert.Equal(t, "doc.txt", e.ID)
		assert.Contains(t, []core.EventType{core.EventCreate, core.EventModify}, e.Type)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	// A burst on one file is delivered once.
	for i := range 5 {
		writeFile(t, filepath.Join(root, "doc.txt"), fmt.Sprint(i))
	}
	select {
	case e := <-events:
		assert.Equal(t, "doc.txt", e.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
	select {
	case e := <-events:
		t.Fatalf("unexpected event %s", e)
	case <-time.After(200 * time.Millisecond):
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, w.Stop(stopCtx))
	require.Eventually(t, func() bool { return !w.Active() }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherWatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan core.Event, 16)
	w := newSource(t).NewWatcher(root, events, 20*time.Millisecond)
	require.NoError(t, w.Start(ctx))
	waitActive(t, w)

	require.NoError(t, os.Mkdir(filepath.Join(root, "new"), 0o755))
	expectEvent(t, ctx, events, "new")

	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(root, "new", "f.txt"), "f")
	expectEvent(t, ctx, events, "new/f.txt")
}

func expectEvent(t *testing.T, ctx context.Context, events <-chan core.Event, id string) {
	t.Helper()
	for {
		select {
		case e := <-events:
			if e.ID == id {
				return
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s", id)
		}
	}
}

func TestWatcherUnderSupervisor(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSource(t)
	events := make(chan core.Event, 16)
	created := make(chan *source.Watcher, 2)

	spec := supervisor.Spec{
		Name: "source-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			w := s.NewWatcher(root, events, 20*time.Millisecond)
			created <- w
			return w, nil
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}
	sup := supervisor.New("test-source", supervisor.StrategyOneForOne, spec)
	require.NoError(t, sup.Start(ctx))

	var w *source.Watcher
	select {
	case w = <-created:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watcher")
	}
	waitActive(t, w)

	writeFile(t, filepath.Join(root, "a.txt"), "a")
	select {
	case e := <-events:
		assert.Equal(t, "a.txt", e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
}
