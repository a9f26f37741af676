package drawbatch

import (
	"cmp"
	"fmt"

	"golang.org/x/image/math/f32"
)

// Vertex is one vertex of a drawable's geometry.
//
// Layout (32 bytes, matches upload.VertexLayout):
//
//	Position f32.Vec2  offset 0
//	UV       f32.Vec2  offset 8
//	Color    f32.Vec4  offset 16 (premultiplied RGBA)
type Vertex struct {
	Position f32.Vec2
	UV       f32.Vec2
	Color    f32.Vec4
}

// Payload is the geometry of one drawable. Indices refer to positions in
// Vertices, starting at zero for every drawable.
type Payload struct {
	Vertices []Vertex
	Indices  []uint32
}

// VertexCount returns len(p.Vertices).
func (p Payload) VertexCount() int { return len(p.Vertices) }

// IndexCount returns len(p.Indices).
func (p Payload) IndexCount() int { return len(p.Indices) }

// Kind is the type of change a Modification describes.
// Kinds order Insert < Update < Remove.
type Kind uint8

const (
	// KindInsert adds a drawable that is not yet in its batch.
	KindInsert Kind = iota

	// KindUpdate replaces the geometry of a drawable already in its batch.
	KindUpdate

	// KindRemove drops a drawable from its batch.
	KindRemove
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "Insert"
	case KindUpdate:
		return "Update"
	case KindRemove:
		return "Remove"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsUpsert reports whether k carries a payload.
func (k Kind) IsUpsert() bool { return k == KindInsert || k == KindUpdate }

// Modification describes one drawable's change for one frame.
//
// Key is the group the drawable belongs to after the change is applied (for
// a removal, the group it is removed from). Removals carry no payload;
// updates always carry the complete replacement geometry.
type Modification struct {
	Kind    Kind
	ID      uint64
	Key     GroupKey
	Payload Payload
}

// Insert creates an insert modification.
func Insert(id uint64, key GroupKey, p Payload) Modification {
	return Modification{Kind: KindInsert, ID: id, Key: key, Payload: p}
}

// Update creates an update modification. The payload fully replaces the
// drawable's previous geometry.
func Update(id uint64, key GroupKey, p Payload) Modification {
	return Modification{Kind: KindUpdate, ID: id, Key: key, Payload: p}
}

// Remove creates a removal from the batch identified by key.
func Remove(id uint64, key GroupKey) Modification {
	return Modification{Kind: KindRemove, ID: id, Key: key}
}

// CompareModifications orders by (Key, ID, Kind).
func CompareModifications(a, b Modification) int {
	if c := Compare(a.Key, b.Key); c != 0 {
		return c
	}
	return compareInRun(a, b)
}

// compareInRun orders by (ID, Kind), the order inside a single-key run.
func compareInRun(a, b Modification) int {
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// ModificationPack is the complete effect of one drawable's state change
// within a frame: at most one upsert (Insert or Update) and at most one
// removal. A drawable whose key changed is removed from the old batch and
// inserted into the new one.
//
// An Update never changes key, so it is never paired with a removal.
type ModificationPack struct {
	upsert    Modification
	remove    Modification
	hasUpsert bool
	hasRemove bool
}

// NewPack builds a pack from optional halves. Panics when upsert is not an
// Insert or Update, when remove is not a Remove, when an Update is paired
// with a removal, or when the halves name different drawables.
func NewPack(upsert, remove *Modification) ModificationPack {
	var p ModificationPack
	if upsert != nil {
		if !upsert.Kind.IsUpsert() {
			panic("drawbatch: pack upsert half has kind " + upsert.Kind.String())
		}
		p.upsert, p.hasUpsert = *upsert, true
	}
	if remove != nil {
		if remove.Kind != KindRemove {
			panic("drawbatch: pack remove half has kind " + remove.Kind.String())
		}
		p.remove, p.hasRemove = *remove, true
	}
	if p.hasUpsert && p.hasRemove {
		if p.upsert.Kind == KindUpdate {
			panic("drawbatch: update paired with remove in one pack")
		}
		if p.upsert.ID != p.remove.ID {
			panic(fmt.Sprintf("drawbatch: pack halves name different drawables (%d, %d)", p.upsert.ID, p.remove.ID))
		}
	}
	return p
}

// Moved builds the pack for a drawable that changed key: removal from the
// old group and insertion into the new one. When from equals to, the change
// collapses into a plain Update.
func Moved(id uint64, from, to GroupKey, p Payload) ModificationPack {
	if from == to {
		up := Update(id, to, p)
		return NewPack(&up, nil)
	}
	ins := Insert(id, to, p)
	rm := Remove(id, from)
	return NewPack(&ins, &rm)
}

// Upsert returns the insert/update half, if present.
func (p ModificationPack) Upsert() (Modification, bool) { return p.upsert, p.hasUpsert }

// Removal returns the remove half, if present.
func (p ModificationPack) Removal() (Modification, bool) { return p.remove, p.hasRemove }

// IsEmpty reports whether the pack carries no modification.
func (p ModificationPack) IsEmpty() bool { return !p.hasUpsert && !p.hasRemove }
