package platform

import (
	"time"

	"github.com/aretw0/bagger/pkg/adapters/fs"
	"github.com/aretw0/bagger/pkg/adapters/source"
	"github.com/aretw0/bagger/pkg/core"
	"github.com/aretw0/bagger/pkg/visitors"
)

// NewPipeline wires the BagIt filesystem assembler and the default visitors
// unless the options replace them.
//
//	p := platform.NewPipeline(platform.WithLogger(logger))
func NewPipeline(opts ...Option) *core.Pipeline {
	o := apply(opts)
	return o.pipeline()
}

func (o *options) pipeline() *core.Pipeline {
	factory := o.assembler
	if factory == nil {
		factory = func() core.Assembler {
			return fs.NewAssembler(fs.Config{Logger: o.logger, Now: o.now})
		}
	}

	chain := o.visitors
	if chain == nil {
		rm := visitors.NewResourceMap()
		rm.Now = o.now
		chain = []core.Visitor{visitors.NewDomainObjects(), rm, visitors.NewSnapshot()}
	}

	var popts []core.PipelineOption
	if o.logger != nil {
		popts = append(popts, core.WithLogger(o.logger))
	}
	if o.events != nil {
		popts = append(popts, core.WithEvents(o.events))
	}
	return core.NewPipeline(factory, chain, popts...)
}

// NewSource creates a content source honoring WithIgnore.
func NewSource(opts ...Option) (*source.Source, error) {
	return apply(opts).source(nil)
}

func (o *options) source(extra []string) (*source.Source, error) {
	ignore, _ := o.config["ignore"].([]string)
	return source.New(source.Config{
		Logger: o.logger,
		Ignore: append(append([]string(nil), ignore...), extra...),
	})
}

func (o *options) debounce() time.Duration {
	d, _ := o.config["debounce"].(time.Duration)
	return d
}
