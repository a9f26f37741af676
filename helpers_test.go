package drawbatch

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/image/math/f32"
)

// quad builds a payload with nv vertices and ni indices cycling over them.
func quad(nv, ni int) Payload {
	p := Payload{
		Vertices: make([]Vertex, nv),
		Indices:  make([]uint32, ni),
	}
	for i := range p.Vertices {
		p.Vertices[i] = Vertex{
			Position: f32.Vec2{float32(i), float32(i) * 2},
			Color:    f32.Vec4{1, 1, 1, 1},
		}
	}
	for i := range p.Indices {
		p.Indices[i] = uint32(i % max(nv, 1))
	}
	return p
}

// ids returns the IDs of entries in order.
func ids(entries []DrawEntry) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// checkSorted fails the test unless entries are strictly ascending by ID.
func checkSorted(t *testing.T, entries []DrawEntry) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].ID >= entries[i].ID {
			t.Fatalf("entries not strictly sorted at %d: %d >= %d", i, entries[i-1].ID, entries[i].ID)
		}
	}
}

// mustPanic runs fn and fails unless it panics with a message containing want.
func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", want)
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, want) {
			t.Fatalf("panic = %q, want it to contain %q", msg, want)
		}
	}()
	fn()
}
