package upload

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawbatch"
	"github.com/gogpu/drawbatch/internal/cache"
)

// pipelineKey is the part of a GroupKey a pipeline depends on.
type pipelineKey struct {
	state   drawbatch.RenderState
	stencil drawbatch.StencilState
}

// PipelineCache creates render pipelines on demand, one per distinct
// (RenderState, StencilState) pair, and registers each with the
// Submitter's material registry. The returned handle goes into
// GroupKey.Material.
//
// Evicted pipelines are released from the registry and destroyed. Keys that
// still carry an evicted handle fail Submit with ErrUnknownMaterial, so the
// capacity must exceed the number of states in use; zero means unlimited.
type PipelineCache struct {
	device    hal.Device
	module    hal.ShaderModule
	layout    hal.PipelineLayout
	target    gputypes.TextureFormat
	index     gputypes.IndexFormat
	materials *drawbatch.HandleRegistry[hal.RenderPipeline]
	entries   *cache.Cache[pipelineKey, hal.RenderPipeline]
}

// NewPipelineCache creates a cache that builds pipelines from module and
// layout for the given color target, registering them with sub.
func NewPipelineCache(
	device hal.Device,
	module hal.ShaderModule,
	layout hal.PipelineLayout,
	target gputypes.TextureFormat,
	sub *Submitter,
	capacity int,
) *PipelineCache {
	pc := &PipelineCache{
		device:    device,
		module:    module,
		layout:    layout,
		target:    target,
		index:     sub.format,
		materials: sub.Pipelines(),
	}
	pc.entries = cache.New(capacity, pc.destroy)
	return pc
}

// Material returns the material handle for state and stencil, creating the
// pipeline on first use.
func (pc *PipelineCache) Material(state drawbatch.RenderState, stencil drawbatch.StencilState) (drawbatch.Handle, error) {
	key := pipelineKey{state: state, stencil: stencil}
	pipeline, err := pc.entries.GetOrCreate(key, func() (hal.RenderPipeline, error) {
		desc := PipelineDescriptor(drawbatch.GroupKey{State: state, Stencil: stencil},
			pc.module, pc.layout, pc.target, pc.index)
		p, err := pc.device.CreateRenderPipeline(desc)
		if err != nil {
			return nil, fmt.Errorf("upload: create pipeline %s: %w", desc.Label, err)
		}
		slogger().Debug("upload: pipeline created", slog.String("label", desc.Label))
		return p, nil
	})
	if err != nil {
		return drawbatch.NoHandle, err
	}
	return pc.materials.Intern(pipeline), nil
}

// Len returns the number of live pipelines.
func (pc *PipelineCache) Len() int { return pc.entries.Len() }

// Stats returns hit, miss and eviction counts.
func (pc *PipelineCache) Stats() cache.Stats { return pc.entries.Stats() }

// Destroy releases and destroys every cached pipeline.
func (pc *PipelineCache) Destroy() { pc.entries.Clear() }

func (pc *PipelineCache) destroy(_ pipelineKey, p hal.RenderPipeline) {
	pc.materials.Release(p)
	pc.device.DestroyRenderPipeline(p)
}
