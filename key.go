package drawbatch

import (
	"cmp"
	"fmt"
)

// GroupKey decides which Batch a drawable belongs to. Two drawables are
// batched together if and only if their keys are equal.
//
// GroupKey holds only scalar fields, so it is cheap to copy, comparable with
// == and usable directly as a map key. Keys order lexicographically in field
// declaration order (see Compare).
type GroupKey struct {
	// Passes is the set of render passes the drawable takes part in.
	Passes IndexSet

	// Viewports is the set of viewports the drawable is visible in.
	Viewports IndexSet

	// ZIndex is the signed layering index.
	ZIndex int32

	// RootDistance is the depth of the owning node in the scene tree. It
	// separates ancestors from descendants that share a ZIndex.
	RootDistance uint32

	// Texture identifies the bound texture.
	Texture Handle

	// Material identifies the bound material or shader program.
	Material Handle

	// State is the packed render state.
	State RenderState

	// Stencil is the packed stencil configuration.
	Stencil StencilState
}

// Compare orders keys lexicographically by Passes, Viewports, ZIndex,
// RootDistance, Texture, Material, State, Stencil. It returns -1, 0 or +1.
func Compare(a, b GroupKey) int {
	if c := cmp.Compare(a.Passes, b.Passes); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Viewports, b.Viewports); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ZIndex, b.ZIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RootDistance, b.RootDistance); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Texture, b.Texture); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Material, b.Material); c != 0 {
		return c
	}
	if c := cmp.Compare(a.State, b.State); c != 0 {
		return c
	}
	return cmp.Compare(a.Stencil, b.Stencil)
}

// Less reports whether k orders before o.
func (k GroupKey) Less(o GroupKey) bool { return Compare(k, o) < 0 }

// String returns a compact debug representation.
func (k GroupKey) String() string {
	return fmt.Sprintf("key{passes=%s viewports=%s z=%d depth=%d tex=%s mat=%s state=%#x stencil=%#x}",
		k.Passes, k.Viewports, k.ZIndex, k.RootDistance, k.Texture, k.Material, uint64(k.State), uint32(k.Stencil))
}
