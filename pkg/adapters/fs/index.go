package fs

import (
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/bagger/pkg/core"
)

// reservation is one claimed package path.
type reservation struct {
	URI     string // bag://<package>/<rel>
	Rel     string // posix path relative to the bag root
	Abs     string // absolute filesystem path
	Type    core.ResourceType
	Dir     bool
	Written bool
	Size    int64
}

// index is the bijective URI -> location map of a build.
type index struct {
	mu      sync.RWMutex
	byURI   map[string]*reservation
	byAbs   map[string]string
	payload int
	tags    int
}

func newIndex() *index {
	return &index{
		byURI: make(map[string]*reservation),
		byAbs: make(map[string]string),
	}
}

// reserve registers r. The first mapping of a URI always wins.
func (x *index) reserve(r *reservation) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.byURI[r.URI]; ok {
		return false
	}
	if _, ok := x.byAbs[r.Abs]; ok {
		return false
	}
	x.byURI[r.URI] = r
	x.byAbs[r.Abs] = r.URI
	if !r.Dir {
		if r.Type.IsPayload() {
			x.payload++
		} else {
			x.tags++
		}
	}
	return true
}

func (x *index) lookup(uri string) (*reservation, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	r, ok := x.byURI[uri]
	return r, ok
}

func (x *index) markWritten(uri string, size int64) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if r, ok := x.byURI[uri]; ok {
		r.Written = true
		r.Size = size
	}
}

// files returns reserved files matching keep, sorted by relative path.
func (x *index) files(keep func(*reservation) bool) []*reservation {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []*reservation
	for _, r := range x.byURI {
		if !r.Dir && keep(r) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b *reservation) int {
		return strings.Compare(a.Rel, b.Rel)
	})
	return out
}

func (x *index) counts() (payload, tags, dirs int) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, r := range x.byURI {
		if r.Dir {
			dirs++
		}
	}
	return x.payload, x.tags, dirs
}

func (x *index) reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.byURI = make(map[string]*reservation)
	x.byAbs = make(map[string]string)
	x.payload, x.tags = 0, 0
}
