package core

import (
	"fmt"

	"github.com/aretw0/introspection"
)

// PipelineState exposes internal state for observability.
type PipelineState struct {
	Visitors    []string `json:"visitors"`
	Running     int      `json:"running"`
	Builds      int      `json:"builds"`
	Failures    int      `json:"failures"`
	Cancelled   int      `json:"cancelled"`
	LastPackage string   `json:"last_package,omitempty"`
	Events      bool     `json:"events"`
}

// State implements introspection.Introspectable.
func (p *Pipeline) State() any {
	p.mu.RLock()
	defer p.mu.RUnlock()

	visitors := make([]string, 0, len(p.visitors))
	for _, v := range p.visitors {
		name := fmt.Sprintf("%T", v)
		// Try to get component type if the visitor implements introspection.Component
		if comp, ok := v.(introspection.Component); ok {
			name = comp.ComponentType()
		}
		visitors = append(visitors, name)
	}

	return PipelineState{
		Visitors:    visitors,
		Running:     p.running,
		Builds:      p.builds,
		Failures:    p.failures,
		Cancelled:   p.cancelled,
		LastPackage: p.lastPackage,
		Events:      p.events != nil,
	}
}

// ComponentType implements introspection.Component.
func (p *Pipeline) ComponentType() string {
	return "pipeline"
}

var _ introspection.Introspectable = (*Pipeline)(nil)
var _ introspection.Component = (*Pipeline)(nil)
