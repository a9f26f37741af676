// Package drawbatch compiles a continuously changing set of drawables into a
// small number of contiguous, upload-ready geometry batches.
//
// # Overview
//
// Every frame the scene producer describes only what changed: a drawable was
// inserted, its geometry was updated, or it was removed. The Compiler buffers
// those Modifications and, at the frame boundary, merges them into per-key
// Batches. Batches keep their entries sorted by drawable ID, so merging a
// frame's changes is a single linear pass instead of a rebuild.
//
// # Quick Start
//
//	c := drawbatch.NewCompiler()
//	defer c.Close()
//
//	key := drawbatch.GroupKey{
//	    Passes: drawbatch.IndexSetOf(0),
//	    ZIndex: 1,
//	    State:  drawbatch.DefaultRenderState(),
//	}
//	c.Enqueue(drawbatch.Insert(42, key, payload))
//	c.Flush()
//
//	for _, key := range c.Sorted() {
//	    b, _ := c.Batch(key)
//	    for r := range b.Slicer(drawbatch.LimitsFor(gputypes.IndexFormatUint16, 0)).Ranges() {
//	        // copy r into destination buffers, submit one draw call
//	    }
//	}
//
// # Architecture
//
// The library is organized into:
//   - GroupKey: the composite batching key (passes, viewports, z-index, root
//     distance, texture, material, render state, stencil state)
//   - Modification, ModificationPack: per-frame diff records
//   - Batch: sorted-by-ID DrawEntry storage and the merge algorithm
//   - Compiler: pending queue, partitioning by key, batch map
//   - Slicer: capacity-bounded ranges and index rebasing
//   - upload: GPU submission over caller-owned gogpu/wgpu HAL buffers
//
// # Phases
//
// All Enqueue calls for a frame complete before Flush, and Flush completes
// before any Batch is read. Batches are mutated only inside Flush.
//
// # Contract Violations
//
// Broken preconditions (duplicate insert, update or remove of an absent ID,
// a merge run spanning several keys, a destination buffer that does not match
// a range) panic immediately. Continuing would corrupt the sort order or
// write out of bounds.
package drawbatch

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
