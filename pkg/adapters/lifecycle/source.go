// Package lifecycle exposes bagger event channels as lifecycle sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/bagger/pkg/core"
)

type eventSource struct {
	events <-chan core.Event
	filter func(core.Event) bool
	out    chan lifecycle.Event
}

// Option configures an event source.
type Option func(*eventSource)

// WithFilter forwards only the events keep accepts.
func WithFilter(keep func(core.Event) bool) Option {
	return func(s *eventSource) {
		s.filter = keep
	}
}

// NewSource creates a lifecycle.Source that forwards build progress or
// content change events. The output closes when events closes or the start
// context ends.
func NewSource(events <-chan core.Event, opts ...Option) lifecycle.Source {
	s := &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.filter != nil && !s.filter(e) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// Terminal reports whether e ends a build.
func Terminal(e core.Event) bool {
	return e.Type == core.EventDone || e.Type == core.EventFailed
}
