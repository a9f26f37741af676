package upload

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawbatch"
)

// VertexStride is the byte size of one packed drawbatch.Vertex.
const VertexStride = 32

// Attribute offsets within a packed vertex.
const (
	positionOffset = 0
	uvOffset       = 8
	colorOffset    = 16
)

// VertexLayout returns the single interleaved vertex buffer layout used by
// ShaderSource: position at location 0, UV at 1, color at 2.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: positionOffset, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: uvOffset, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x4, Offset: colorOffset, ShaderLocation: 2},
			},
		},
	}
}

// appendVertices packs vertices little-endian onto dst.
func appendVertices(dst []byte, vertices []drawbatch.Vertex) []byte {
	le := binary.LittleEndian
	for i := range vertices {
		v := &vertices[i]
		dst = le.AppendUint32(dst, math.Float32bits(v.Position[0]))
		dst = le.AppendUint32(dst, math.Float32bits(v.Position[1]))
		dst = le.AppendUint32(dst, math.Float32bits(v.UV[0]))
		dst = le.AppendUint32(dst, math.Float32bits(v.UV[1]))
		for _, c := range v.Color {
			dst = le.AppendUint32(dst, math.Float32bits(c))
		}
	}
	return dst
}

// appendIndices packs indices in the given format onto dst and pads the
// result to a multiple of four bytes, as WriteBuffer requires.
func appendIndices(dst []byte, indices []uint32, format gputypes.IndexFormat) []byte {
	le := binary.LittleEndian
	switch format {
	case gputypes.IndexFormatUint16:
		for _, idx := range indices {
			dst = le.AppendUint16(dst, uint16(idx))
		}
	default:
		for _, idx := range indices {
			dst = le.AppendUint32(dst, idx)
		}
	}
	for len(dst)%4 != 0 {
		dst = append(dst, 0)
	}
	return dst
}

// alignUp rounds n up to a multiple of four.
func alignUp(n uint64) uint64 {
	return (n + 3) &^ 3
}
