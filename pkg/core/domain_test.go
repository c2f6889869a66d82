package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/bagger/pkg/core"
)

func TestFields(t *testing.T) {
	var f core.Fields
	f.Add("Contact-Name", "Ada")
	f.Add("Bagging-Date", "2026-01-01")
	f.Add("Contact-Name", "Grace")

	assert.Equal(t, []string{"Bagging-Date", "Contact-Name"}, f.Names())
	assert.Equal(t, []string{"Ada", "Grace"}, f.Get("Contact-Name"))

	first, ok := f.First("Contact-Name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", first)

	c := f.Clone()
	c.Set("Contact-Name", "Linus")
	assert.Equal(t, []string{"Ada", "Grace"}, f.Get("Contact-Name"), "clone is independent")

	f.Delete("Bagging-Date")
	assert.False(t, f.Has("Bagging-Date"))
	assert.Equal(t, 1, f.Len())

	var nilFields *core.Fields
	assert.Nil(t, nilFields.Get("x"))
	assert.Equal(t, 0, nilFields.Clone().Len())
}

func TestErrorClasses(t *testing.T) {
	cfg := core.ConfigError("init", fmt.Errorf("%w: zip+gzip", core.ErrIncompatibleCompression))
	assert.True(t, core.IsConfiguration(cfg))
	assert.False(t, core.IsIO(cfg))
	assert.ErrorIs(t, cfg, core.ErrIncompatibleCompression)
	assert.Contains(t, cfg.Error(), "configuration error: init")

	io := core.IOError("write", "/tmp/x", errors.New("disk full"))
	assert.True(t, core.IsIO(io))
	assert.Contains(t, io.Error(), "/tmp/x")

	wrapped := fmt.Errorf("outer: %w", core.ConsistencyError("finish", "", core.ErrUnserializedGraph))
	assert.True(t, core.IsConsistency(wrapped))
	var be *core.BuildError
	assert.True(t, errors.As(wrapped, &be))
	assert.Equal(t, core.ClassConsistency, be.Class)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := core.CheckCancelled(ctx)
	assert.True(t, core.IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, core.CheckCancelled(context.Background()))
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "DONE", core.NewEvent(core.EventDone, "").String())
	assert.Equal(t, "VISIT bag://p/x", core.NewEvent(core.EventVisit, "bag://p/x").String())
}

func TestBuildContextRename(t *testing.T) {
	bc := core.NewBuildContext(core.Request{Tree: core.NewTree()}, nil, nil)
	bc.Rename("urn:a", "bag://p/b")
	bc.Rename("bag://p/b", "bag://p/c")
	assert.Equal(t, "bag://p/c", bc.Resolve("urn:a"))
	assert.Equal(t, "urn:z", bc.Resolve("urn:z"))
	assert.Equal(t, "turtle", string(bc.Format))
}
