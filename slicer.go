package drawbatch

import (
	"fmt"
	"iter"
	"math"

	"github.com/gogpu/gputypes"
)

// Limits bounds the geometry of one upload range.
type Limits struct {
	// MaxVertices is the largest vertex count of a range. With 16-bit
	// indices this is 65535.
	MaxVertices int

	// MaxIndices is the largest index count of a range.
	MaxIndices int
}

// LimitsFor derives limits from the index format used for uploads.
// maxIndices <= 0 means the index buffer is only bounded by the format.
// Panics on IndexFormatUndefined.
func LimitsFor(format gputypes.IndexFormat, maxIndices int) Limits {
	var maxVertices int
	switch format {
	case gputypes.IndexFormatUint16:
		maxVertices = math.MaxUint16
	case gputypes.IndexFormatUint32:
		maxVertices = min(math.MaxUint32, math.MaxInt)
	default:
		panic("drawbatch: no range limits for index format " + format.String())
	}
	if maxIndices <= 0 {
		maxIndices = math.MaxInt32
	}
	return Limits{MaxVertices: maxVertices, MaxIndices: maxIndices}
}

// Range is a contiguous run [Begin, End) of batch entries whose combined
// geometry fits one upload.
type Range struct {
	Begin, End  int
	VertexCount int
	IndexCount  int
}

// Len returns the number of entries in the range.
func (r Range) Len() int { return r.End - r.Begin }

// IsEmpty reports whether the range covers no entries.
func (r Range) IsEmpty() bool { return r.End == r.Begin }

// Slicer walks a batch's sorted entries in capacity-bounded ranges and
// copies their geometry into flat destination buffers.
type Slicer struct {
	entries []DrawEntry
	limits  Limits
}

// NewSlicer creates a slicer over entries. Panics if a limit is not positive.
func NewSlicer(entries []DrawEntry, limits Limits) *Slicer {
	if limits.MaxVertices <= 0 || limits.MaxIndices <= 0 {
		panic(fmt.Sprintf("drawbatch: invalid range limits %+v", limits))
	}
	return &Slicer{entries: entries, limits: limits}
}

// Slicer returns a slicer over the batch's current entries. The slicer is
// valid until the next merge.
func (b *Batch) Slicer(limits Limits) *Slicer {
	return NewSlicer(b.entries, limits)
}

// Limits returns the slicer limits.
func (s *Slicer) Limits() Limits { return s.limits }

// Len returns the number of entries being sliced.
func (s *Slicer) Len() int { return len(s.entries) }

// NextRange accumulates entries from start and stops before the first entry
// that would push either running total over its limit. start == Len()
// yields an empty range. A single entry larger than the limits panics.
func (s *Slicer) NextRange(start int) Range {
	if start < 0 || start > len(s.entries) {
		panic(fmt.Sprintf("drawbatch: range start %d outside [0, %d]", start, len(s.entries)))
	}
	r := Range{Begin: start, End: start}
	for r.End < len(s.entries) {
		e := &s.entries[r.End]
		nv, ni := e.VertexCount(), e.IndexCount()
		if nv > s.limits.MaxVertices || ni > s.limits.MaxIndices {
			panic(fmt.Sprintf("drawbatch: drawable %d (%d vertices, %d indices) exceeds range limits %+v",
				e.ID, nv, ni, s.limits))
		}
		if r.VertexCount+nv > s.limits.MaxVertices || r.IndexCount+ni > s.limits.MaxIndices {
			break
		}
		r.VertexCount += nv
		r.IndexCount += ni
		r.End++
	}
	return r
}

// CopyRange copies the geometry of r into dstVertices and dstIndices.
// Vertices are copied verbatim. Each entry's indices are rebased by the
// number of vertices already written for this range, so the result indexes
// the flat vertex buffer of a single draw call.
//
// The destination lengths must equal r.VertexCount and r.IndexCount exactly;
// any mismatch panics. An index that points outside its own entry panics
// as well.
func (s *Slicer) CopyRange(r Range, dstVertices []Vertex, dstIndices []uint32) {
	if r.Begin < 0 || r.End > len(s.entries) || r.Begin > r.End {
		panic(fmt.Sprintf("drawbatch: range [%d, %d) outside [0, %d]", r.Begin, r.End, len(s.entries)))
	}
	if len(dstVertices) != r.VertexCount {
		panic(fmt.Sprintf("drawbatch: vertex destination holds %d, range needs %d", len(dstVertices), r.VertexCount))
	}
	if len(dstIndices) != r.IndexCount {
		panic(fmt.Sprintf("drawbatch: index destination holds %d, range needs %d", len(dstIndices), r.IndexCount))
	}

	vOff, iOff := 0, 0
	for i := r.Begin; i < r.End; i++ {
		e := &s.entries[i]
		nv := e.VertexCount()
		if vOff+nv > len(dstVertices) || iOff+e.IndexCount() > len(dstIndices) {
			panic(fmt.Sprintf("drawbatch: range [%d, %d) does not match its counts", r.Begin, r.End))
		}
		copy(dstVertices[vOff:], e.Payload.Vertices)

		base := uint32(vOff)
		dst := dstIndices[iOff : iOff+e.IndexCount()]
		for j, idx := range e.Payload.Indices {
			if int(idx) >= nv {
				panic(fmt.Sprintf("drawbatch: drawable %d index %d out of its %d vertices", e.ID, idx, nv))
			}
			dst[j] = idx + base
		}
		vOff += nv
		iOff += len(dst)
	}
	if vOff != r.VertexCount || iOff != r.IndexCount {
		panic(fmt.Sprintf("drawbatch: range [%d, %d) does not match its counts", r.Begin, r.End))
	}
}

// Ranges iterates the ranges that cover every entry exactly once, starting
// at position 0 and advancing to each range's End.
func (s *Slicer) Ranges() iter.Seq[Range] {
	return func(yield func(Range) bool) {
		for start := 0; start < len(s.entries); {
			r := s.NextRange(start)
			if !yield(r) {
				return
			}
			start = r.End
		}
	}
}
