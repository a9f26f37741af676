package drawbatch

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestRenderState_RoundTrip(t *testing.T) {
	premul := gputypes.BlendStatePremultiplied()
	additive := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationMax,
		},
	}

	tests := []struct {
		name string
		cfg  RenderConfig
	}{
		{"zero", RenderConfig{}},
		{"premultiplied", RenderConfig{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			Blend:     &premul,
			WriteMask: gputypes.ColorWriteMaskAll,
		}},
		{"additive strip culled", RenderConfig{
			Topology:  gputypes.PrimitiveTopologyTriangleStrip,
			CullMode:  gputypes.CullModeBack,
			FrontFace: gputypes.FrontFaceCW,
			Blend:     &additive,
			WriteMask: gputypes.ColorWriteMaskRed | gputypes.ColorWriteMaskGreen,
			User:      0xBEEF,
		}},
		{"lines no blend", RenderConfig{
			Topology:  gputypes.PrimitiveTopologyLineList,
			WriteMask: gputypes.ColorWriteMaskAll,
			User:      1,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRenderState(tt.cfg)
			got := s.Config()

			if got.Topology != tt.cfg.Topology {
				t.Errorf("Topology = %v, want %v", got.Topology, tt.cfg.Topology)
			}
			if got.CullMode != tt.cfg.CullMode {
				t.Errorf("CullMode = %v, want %v", got.CullMode, tt.cfg.CullMode)
			}
			if got.FrontFace != tt.cfg.FrontFace {
				t.Errorf("FrontFace = %v, want %v", got.FrontFace, tt.cfg.FrontFace)
			}
			if got.WriteMask != tt.cfg.WriteMask {
				t.Errorf("WriteMask = %v, want %v", got.WriteMask, tt.cfg.WriteMask)
			}
			if got.User != tt.cfg.User {
				t.Errorf("User = %#x, want %#x", got.User, tt.cfg.User)
			}
			switch {
			case tt.cfg.Blend == nil && got.Blend != nil:
				t.Error("Blend should be nil")
			case tt.cfg.Blend != nil && got.Blend == nil:
				t.Error("Blend should be set")
			case tt.cfg.Blend != nil && *got.Blend != *tt.cfg.Blend:
				t.Errorf("Blend = %+v, want %+v", *got.Blend, *tt.cfg.Blend)
			}
		})
	}
}

func TestRenderState_DistinctStatesSplitKeys(t *testing.T) {
	a := DefaultRenderState()
	b := NewRenderState(RenderConfig{Topology: gputypes.PrimitiveTopologyTriangleList, WriteMask: gputypes.ColorWriteMaskAll})
	if a == b {
		t.Fatal("blend and no-blend states must differ")
	}
	if !a.BlendEnabled() || b.BlendEnabled() {
		t.Error("BlendEnabled() mismatch")
	}
}

func TestRenderState_OverflowPanics(t *testing.T) {
	mustPanic(t, "topology", func() {
		NewRenderState(RenderConfig{Topology: gputypes.PrimitiveTopology(16)})
	})
}

func TestStencilState_RoundTrip(t *testing.T) {
	cfg := StencilConfig{
		Compare:     gputypes.CompareFunctionNotEqual,
		FailOp:      gputypes.StencilOperationKeep,
		DepthFailOp: gputypes.StencilOperationZero,
		PassOp:      gputypes.StencilOperationReplace,
		Reference:   0x42,
		Mask:        0xFF,
	}
	s := NewStencilState(cfg)
	if !s.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if got := s.Config(); got != cfg {
		t.Errorf("Config() = %+v, want %+v", got, cfg)
	}
	if StencilState(0).Enabled() {
		t.Error("zero StencilState must be disabled")
	}
}

func TestStencilState_OverflowPanics(t *testing.T) {
	mustPanic(t, "stencil pass op", func() {
		NewStencilState(StencilConfig{PassOp: gputypes.StencilOperation(16)})
	})
}
