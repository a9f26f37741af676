package drawbatch

import (
	"cmp"
	"fmt"
	"slices"
)

// DrawEntry is the batch-resident form of a drawable: its stable ID and its
// geometry.
type DrawEntry struct {
	ID      uint64
	Payload Payload
}

// VertexCount returns the number of vertices in the entry.
func (e DrawEntry) VertexCount() int { return len(e.Payload.Vertices) }

// IndexCount returns the number of indices in the entry.
func (e DrawEntry) IndexCount() int { return len(e.Payload.Indices) }

func compareEntryID(e DrawEntry, id uint64) int { return cmp.Compare(e.ID, id) }

// Batch holds the drawables of one GroupKey, sorted strictly ascending by
// ID at all times. The key itself is not stored; it is the map key that
// locates the batch in its Compiler.
type Batch struct {
	entries  []DrawEntry
	vertices int
	indices  int
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len returns the number of entries.
func (b *Batch) Len() int { return len(b.entries) }

// IsEmpty reports whether the batch has no entries.
func (b *Batch) IsEmpty() bool { return len(b.entries) == 0 }

// Entries returns the sorted entries. The slice is owned by the batch and
// must not be modified; it is valid until the next merge.
func (b *Batch) Entries() []DrawEntry { return b.entries }

// Entry finds the entry with the given ID by binary search.
func (b *Batch) Entry(id uint64) (DrawEntry, bool) {
	i, ok := slices.BinarySearchFunc(b.entries, id, compareEntryID)
	if !ok {
		return DrawEntry{}, false
	}
	return b.entries[i], true
}

// VertexCount returns the total vertex count over all entries.
func (b *Batch) VertexCount() int { return b.vertices }

// IndexCount returns the total index count over all entries.
func (b *Batch) IndexCount() int { return b.indices }

// Merge applies a run of modifications to the batch in one forward pass.
//
// The run must be non-empty for any effect, share a single key, and be
// sorted strictly ascending by (ID, Kind); the Compiler guarantees all three
// by construction. For each modification the entry cursor moves by binary
// search to the first entry with ID >= m.ID, untouched entries skipped on
// the way are copied in bulk, and then:
//
//   - Insert emits a new entry; an existing entry with the same ID panics.
//   - Update replaces the entry with the same ID; a missing ID panics.
//   - Remove drops the entry with the same ID; a missing ID panics.
//
// The remaining tail is copied and the output replaces the batch's entries.
// buf provides the output storage; nil allocates a private buffer. An empty
// run leaves the batch untouched.
//
// Merge runs in O(len(entries) + len(run)) plus O(len(run) log len(entries))
// for the searches.
func (b *Batch) Merge(run []Modification, buf *MergeBuffer) {
	if len(run) == 0 {
		return
	}
	inserts := validateRun(run)
	if buf == nil {
		buf = NewMergeBuffer(0)
	}

	entries := b.entries
	out := buf.acquire(len(entries) + inserts)
	done := false
	defer func() {
		if !done {
			buf.abort(out)
		}
	}()

	vertices, indices := b.vertices, b.indices
	cursor, copied := 0, 0
	for i := range run {
		m := &run[i]

		off, found := slices.BinarySearchFunc(entries[cursor:], m.ID, compareEntryID)
		cursor += off
		if cursor > copied {
			out = append(out, entries[copied:cursor]...)
			copied = cursor
		}

		switch m.Kind {
		case KindInsert:
			if found {
				panic(fmt.Sprintf("drawbatch: insert of drawable %d already present in batch", m.ID))
			}
			out = append(out, DrawEntry{ID: m.ID, Payload: m.Payload})
			vertices += m.Payload.VertexCount()
			indices += m.Payload.IndexCount()

		case KindUpdate:
			if !found {
				panic(fmt.Sprintf("drawbatch: update of drawable %d absent from batch", m.ID))
			}
			old := entries[cursor]
			out = append(out, DrawEntry{ID: m.ID, Payload: m.Payload})
			vertices += m.Payload.VertexCount() - old.VertexCount()
			indices += m.Payload.IndexCount() - old.IndexCount()
			cursor++
			copied = cursor

		case KindRemove:
			if !found {
				panic(fmt.Sprintf("drawbatch: remove of drawable %d absent from batch", m.ID))
			}
			old := entries[cursor]
			vertices -= old.VertexCount()
			indices -= old.IndexCount()
			cursor++
			copied = cursor

		default:
			panic("drawbatch: unknown modification kind " + m.Kind.String())
		}
	}
	out = append(out, entries[copied:]...)

	b.entries = out
	b.vertices, b.indices = vertices, indices
	done = true
	buf.release(entries)
}

// validateRun checks the single-key and ordering preconditions and returns
// the number of inserts.
func validateRun(run []Modification) int {
	key := run[0].Key
	inserts := 0
	for i := range run {
		m := &run[i]
		if m.Key != key {
			panic(fmt.Sprintf("drawbatch: merge run spans two keys: %s and %s", key, m.Key))
		}
		if i > 0 && compareInRun(run[i-1], *m) >= 0 {
			panic(fmt.Sprintf("drawbatch: merge run not sorted at drawable %d (%s)", m.ID, m.Kind))
		}
		if m.Kind == KindRemove && (len(m.Payload.Vertices) != 0 || len(m.Payload.Indices) != 0) {
			panic(fmt.Sprintf("drawbatch: remove of drawable %d carries a payload", m.ID))
		}
		if m.Kind == KindInsert {
			inserts++
		}
	}
	return inserts
}
