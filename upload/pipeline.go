package upload

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawbatch"
)

// DepthStencilFormat is the attachment format assumed by pipelines whose key
// enables the stencil test.
const DepthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8

// PipelineDescriptor derives the render pipeline for key from its render
// and stencil state. Pipelines depend only on key.State and key.Stencil, so
// keys that differ elsewhere can share one pipeline.
//
// index is the index format used by the Submitter; strip topologies need it
// to recognize primitive restart.
func PipelineDescriptor(
	key drawbatch.GroupKey,
	module hal.ShaderModule,
	layout hal.PipelineLayout,
	target gputypes.TextureFormat,
	index gputypes.IndexFormat,
) *hal.RenderPipelineDescriptor {
	state := key.State

	primitive := gputypes.PrimitiveState{
		Topology:  state.Topology(),
		FrontFace: state.FrontFace(),
		CullMode:  state.CullMode(),
	}
	if isStrip(primitive.Topology) {
		f := index
		primitive.StripIndexFormat = &f
	}

	return &hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("drawbatch_%016x_%08x", uint64(state), uint32(key.Stencil)),
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: VertexEntryPoint,
			Buffers:    VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    target,
					Blend:     state.Blend(),
					WriteMask: state.WriteMask(),
				},
			},
		},
		DepthStencil: depthStencil(key.Stencil),
		Multisample:  gputypes.DefaultMultisampleState(),
		Primitive:    primitive,
	}
}

func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}

// depthStencil returns nil when s disables the stencil test. Otherwise both
// faces use the same test and the depth test always passes.
func depthStencil(s drawbatch.StencilState) *hal.DepthStencilState {
	if !s.Enabled() {
		return nil
	}
	face := hal.StencilFaceState{
		Compare:     s.Compare(),
		FailOp:      halStencilOp(s.FailOp()),
		DepthFailOp: halStencilOp(s.DepthFailOp()),
		PassOp:      halStencilOp(s.PassOp()),
	}
	mask := uint32(s.Mask())
	return &hal.DepthStencilState{
		Format:            DepthStencilFormat,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      face,
		StencilBack:       face,
		StencilReadMask:   mask,
		StencilWriteMask:  mask,
	}
}

// halStencilOp converts the gputypes operation, where zero is Undefined, to
// the HAL operation, where zero is Keep. Undefined maps to Keep.
func halStencilOp(op gputypes.StencilOperation) hal.StencilOperation {
	if op == gputypes.StencilOperationUndefined {
		return hal.StencilOperationKeep
	}
	return hal.StencilOperation(op - 1)
}
