package drawbatch

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// RenderState packs the fixed-function pipeline state of a drawable into a
// single 64-bit word so that GroupKey stays a flat, comparable value.
//
// Bit layout:
//
//	 0-3   primitive topology     (gputypes.PrimitiveTopology)
//	 4-5   cull mode              (gputypes.CullMode)
//	 6     front face             (gputypes.FrontFace)
//	 7     blending enabled
//	 8-11  color src factor       (gputypes.BlendFactor)
//	12-15  color dst factor
//	16-18  color operation        (gputypes.BlendOperation)
//	20-23  alpha src factor
//	24-27  alpha dst factor
//	28-30  alpha operation
//	32-35  color write mask       (gputypes.ColorWriteMask)
//	48-63  user bits
type RenderState uint64

const (
	rsTopologyShift  = 0
	rsCullShift      = 4
	rsFrontFaceShift = 6
	rsBlendBit       = 7
	rsColorSrcShift  = 8
	rsColorDstShift  = 12
	rsColorOpShift   = 16
	rsAlphaSrcShift  = 20
	rsAlphaDstShift  = 24
	rsAlphaOpShift   = 28
	rsWriteMaskShift = 32
	rsUserShift      = 48
)

// RenderConfig is the unpacked form of a RenderState.
type RenderConfig struct {
	Topology  gputypes.PrimitiveTopology
	CullMode  gputypes.CullMode
	FrontFace gputypes.FrontFace

	// Blend is nil when blending is disabled.
	Blend *gputypes.BlendState

	WriteMask gputypes.ColorWriteMask

	// User carries application-defined bits that must also split batches.
	User uint16
}

func packField(v uint64, bits uint, shift uint, name string) uint64 {
	if v >= 1<<bits {
		panic(fmt.Sprintf("drawbatch: %s value %d does not fit in %d bits", name, v, bits))
	}
	return v << shift
}

func unpackField(w uint64, bits uint, shift uint) uint64 {
	return (w >> shift) & (1<<bits - 1)
}

// NewRenderState packs cfg. Panics if an enum value does not fit its field.
func NewRenderState(cfg RenderConfig) RenderState {
	w := packField(uint64(cfg.Topology), 4, rsTopologyShift, "topology") |
		packField(uint64(cfg.CullMode), 2, rsCullShift, "cull mode") |
		packField(uint64(cfg.FrontFace), 1, rsFrontFaceShift, "front face") |
		packField(uint64(cfg.WriteMask), 4, rsWriteMaskShift, "write mask") |
		uint64(cfg.User)<<rsUserShift
	if b := cfg.Blend; b != nil {
		w |= 1 << rsBlendBit
		w |= packField(uint64(b.Color.SrcFactor), 4, rsColorSrcShift, "color src factor") |
			packField(uint64(b.Color.DstFactor), 4, rsColorDstShift, "color dst factor") |
			packField(uint64(b.Color.Operation), 3, rsColorOpShift, "color operation") |
			packField(uint64(b.Alpha.SrcFactor), 4, rsAlphaSrcShift, "alpha src factor") |
			packField(uint64(b.Alpha.DstFactor), 4, rsAlphaDstShift, "alpha dst factor") |
			packField(uint64(b.Alpha.Operation), 3, rsAlphaOpShift, "alpha operation")
	}
	return RenderState(w)
}

// DefaultRenderState is a triangle list with no culling, premultiplied alpha
// blending and all channels written.
func DefaultRenderState() RenderState {
	blend := gputypes.BlendStatePremultiplied()
	return NewRenderState(RenderConfig{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		CullMode:  gputypes.CullModeNone,
		FrontFace: gputypes.FrontFaceCCW,
		Blend:     &blend,
		WriteMask: gputypes.ColorWriteMaskAll,
	})
}

// Topology returns the primitive topology.
func (s RenderState) Topology() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopology(unpackField(uint64(s), 4, rsTopologyShift))
}

// CullMode returns the face culling mode.
func (s RenderState) CullMode() gputypes.CullMode {
	return gputypes.CullMode(unpackField(uint64(s), 2, rsCullShift))
}

// FrontFace returns the front face winding.
func (s RenderState) FrontFace() gputypes.FrontFace {
	return gputypes.FrontFace(unpackField(uint64(s), 1, rsFrontFaceShift))
}

// BlendEnabled reports whether blending is on.
func (s RenderState) BlendEnabled() bool {
	return s&(1<<rsBlendBit) != 0
}

// Blend returns the blend state, or nil when blending is disabled.
func (s RenderState) Blend() *gputypes.BlendState {
	if !s.BlendEnabled() {
		return nil
	}
	w := uint64(s)
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactor(unpackField(w, 4, rsColorSrcShift)),
			DstFactor: gputypes.BlendFactor(unpackField(w, 4, rsColorDstShift)),
			Operation: gputypes.BlendOperation(unpackField(w, 3, rsColorOpShift)),
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactor(unpackField(w, 4, rsAlphaSrcShift)),
			DstFactor: gputypes.BlendFactor(unpackField(w, 4, rsAlphaDstShift)),
			Operation: gputypes.BlendOperation(unpackField(w, 3, rsAlphaOpShift)),
		},
	}
}

// WriteMask returns the color write mask.
func (s RenderState) WriteMask() gputypes.ColorWriteMask {
	return gputypes.ColorWriteMask(unpackField(uint64(s), 4, rsWriteMaskShift))
}

// User returns the application-defined bits.
func (s RenderState) User() uint16 {
	return uint16(s >> rsUserShift)
}

// Config unpacks s.
func (s RenderState) Config() RenderConfig {
	return RenderConfig{
		Topology:  s.Topology(),
		CullMode:  s.CullMode(),
		FrontFace: s.FrontFace(),
		Blend:     s.Blend(),
		WriteMask: s.WriteMask(),
		User:      s.User(),
	}
}

// StencilState packs a stencil configuration into 32 bits.
//
// Bit layout:
//
//	 0-3   compare function  (gputypes.CompareFunction)
//	 4-7   fail op           (gputypes.StencilOperation)
//	 8-11  depth fail op
//	12-15  pass op
//	16-23  reference value
//	24-31  read/write mask
//
// The zero value disables the stencil test.
type StencilState uint32

// StencilConfig is the unpacked form of a StencilState.
type StencilConfig struct {
	Compare     gputypes.CompareFunction
	FailOp      gputypes.StencilOperation
	DepthFailOp gputypes.StencilOperation
	PassOp      gputypes.StencilOperation
	Reference   uint8
	Mask        uint8
}

// NewStencilState packs cfg. Panics if an enum value does not fit its field.
func NewStencilState(cfg StencilConfig) StencilState {
	w := packField(uint64(cfg.Compare), 4, 0, "stencil compare") |
		packField(uint64(cfg.FailOp), 4, 4, "stencil fail op") |
		packField(uint64(cfg.DepthFailOp), 4, 8, "stencil depth fail op") |
		packField(uint64(cfg.PassOp), 4, 12, "stencil pass op") |
		uint64(cfg.Reference)<<16 |
		uint64(cfg.Mask)<<24
	return StencilState(w)
}

// Enabled reports whether a stencil test is configured.
func (s StencilState) Enabled() bool {
	return s.Compare() != gputypes.CompareFunctionUndefined
}

// Compare returns the comparison function.
func (s StencilState) Compare() gputypes.CompareFunction {
	return gputypes.CompareFunction(s & 0xF)
}

// FailOp returns the operation applied when the stencil test fails.
func (s StencilState) FailOp() gputypes.StencilOperation {
	return gputypes.StencilOperation(s >> 4 & 0xF)
}

// DepthFailOp returns the operation applied when the depth test fails.
func (s StencilState) DepthFailOp() gputypes.StencilOperation {
	return gputypes.StencilOperation(s >> 8 & 0xF)
}

// PassOp returns the operation applied when both tests pass.
func (s StencilState) PassOp() gputypes.StencilOperation {
	return gputypes.StencilOperation(s >> 12 & 0xF)
}

// Reference returns the stencil reference value.
func (s StencilState) Reference() uint8 { return uint8(s >> 16) }

// Mask returns the stencil read/write mask.
func (s StencilState) Mask() uint8 { return uint8(s >> 24) }

// Config unpacks s.
func (s StencilState) Config() StencilConfig {
	return StencilConfig{
		Compare:     s.Compare(),
		FailOp:      s.FailOp(),
		DepthFailOp: s.DepthFailOp(),
		PassOp:      s.PassOp(),
		Reference:   s.Reference(),
		Mask:        s.Mask(),
	}
}
