package drawbatch

import (
	"math/rand/v2"
	"slices"
	"testing"
)

var testKey = GroupKey{Passes: IndexSetOf(0), ZIndex: 1}

// =============================================================================
// Merge scenarios
// =============================================================================

func TestBatchMerge_EndToEnd(t *testing.T) {
	b := NewBatch()
	buf := NewMergeBuffer(0)

	// Insert {5, 1, 3} with 2/3/1 vertices, sorted into one run.
	run := []Modification{
		Insert(5, testKey, quad(2, 3)),
		Insert(1, testKey, quad(3, 3)),
		Insert(3, testKey, quad(1, 3)),
	}
	slices.SortFunc(run, CompareModifications)
	b.Merge(run, buf)

	if got, want := ids(b.Entries()), []uint64{1, 3, 5}; !slices.Equal(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}

	// Remove 3, update 1 to 5 vertices.
	run = []Modification{
		Update(1, testKey, quad(5, 6)),
		Remove(3, testKey),
	}
	b.Merge(run, buf)

	entries := b.Entries()
	if got, want := ids(entries), []uint64{1, 5}; !slices.Equal(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if entries[0].VertexCount() != 5 {
		t.Errorf("entry 1 has %d vertices, want 5", entries[0].VertexCount())
	}
	if entries[1].VertexCount() != 2 {
		t.Errorf("entry 5 has %d vertices, want 2", entries[1].VertexCount())
	}
	if b.VertexCount() != 7 || b.IndexCount() != 9 {
		t.Errorf("totals = %d/%d, want 7/9", b.VertexCount(), b.IndexCount())
	}
}

func TestBatchMerge_EmptyRunIsNoop(t *testing.T) {
	b := NewBatch()
	b.Merge([]Modification{Insert(1, testKey, quad(3, 3)), Insert(2, testKey, quad(3, 3))}, nil)

	before := b.Entries()
	b.Merge(nil, nil)
	after := b.Entries()

	if len(before) != len(after) || &before[0] != &after[0] {
		t.Error("empty run replaced the entry vector")
	}
}

func TestBatchMerge_InterleavedWithExisting(t *testing.T) {
	b := NewBatch()
	var seed []Modification
	for id := uint64(10); id <= 100; id += 10 {
		seed = append(seed, Insert(id, testKey, quad(3, 3)))
	}
	b.Merge(seed, nil)

	run := []Modification{
		Insert(5, testKey, quad(1, 1)),
		Remove(20, testKey),
		Insert(25, testKey, quad(1, 1)),
		Update(50, testKey, quad(4, 6)),
		Remove(100, testKey),
		Insert(101, testKey, quad(1, 1)),
	}
	b.Merge(run, nil)

	want := []uint64{5, 10, 25, 30, 40, 50, 60, 70, 80, 90, 101}
	if got := ids(b.Entries()); !slices.Equal(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if e, ok := b.Entry(50); !ok || e.VertexCount() != 4 {
		t.Errorf("Entry(50) = %v, %v", e.VertexCount(), ok)
	}
	if _, ok := b.Entry(20); ok {
		t.Error("removed entry still found")
	}
}

// =============================================================================
// Properties
// =============================================================================

// TestBatchMerge_RandomizedProperties checks sortedness, conservation and
// running totals against a map model over many random frames.
func TestBatchMerge_RandomizedProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	b := NewBatch()
	buf := NewMergeBuffer(0)
	model := map[uint64]int{} // id -> vertex count

	for frame := range 200 {
		var run []Modification
		inserts, removes := 0, 0
		used := map[uint64]bool{}
		for range rng.IntN(20) {
			id := uint64(rng.IntN(64))
			if used[id] {
				continue
			}
			used[id] = true
			nv := 1 + rng.IntN(6)
			if _, present := model[id]; present {
				if rng.IntN(2) == 0 {
					run = append(run, Remove(id, testKey))
					removes++
				} else {
					run = append(run, Update(id, testKey, quad(nv, nv)))
				}
			} else {
				run = append(run, Insert(id, testKey, quad(nv, nv)))
				inserts++
			}
		}
		slices.SortFunc(run, CompareModifications)

		oldSize := b.Len()
		b.Merge(run, buf)

		for _, m := range run {
			switch m.Kind {
			case KindInsert, KindUpdate:
				model[m.ID] = m.Payload.VertexCount()
			case KindRemove:
				delete(model, m.ID)
			}
		}

		checkSorted(t, b.Entries())
		if got, want := b.Len(), oldSize+inserts-removes; got != want {
			t.Fatalf("frame %d: size = %d, want %d", frame, got, want)
		}
		total := 0
		for _, e := range b.Entries() {
			if model[e.ID] != e.VertexCount() {
				t.Fatalf("frame %d: entry %d has %d vertices, model %d", frame, e.ID, e.VertexCount(), model[e.ID])
			}
			total += e.VertexCount()
		}
		if total != b.VertexCount() {
			t.Fatalf("frame %d: VertexCount() = %d, want %d", frame, b.VertexCount(), total)
		}
	}
}

// =============================================================================
// Contract violations
// =============================================================================

func TestBatchMerge_ContractViolations(t *testing.T) {
	seed := func() *Batch {
		b := NewBatch()
		b.Merge([]Modification{Insert(1, testKey, quad(3, 3)), Insert(3, testKey, quad(3, 3))}, nil)
		return b
	}
	other := GroupKey{ZIndex: 9}

	tests := []struct {
		name string
		run  []Modification
		want string
	}{
		{"update absent", []Modification{Update(2, testKey, quad(3, 3))}, "update of drawable 2 absent"},
		{"update past end", []Modification{Update(4, testKey, quad(3, 3))}, "update of drawable 4 absent"},
		{"remove absent", []Modification{Remove(2, testKey)}, "remove of drawable 2 absent"},
		{"duplicate insert", []Modification{Insert(3, testKey, quad(3, 3))}, "insert of drawable 3 already present"},
		{"mixed keys", []Modification{Insert(5, testKey, quad(3, 3)), Insert(6, other, quad(3, 3))}, "spans two keys"},
		{"unsorted", []Modification{Insert(6, testKey, quad(3, 3)), Insert(5, testKey, quad(3, 3))}, "not sorted"},
		{"remove with payload", []Modification{{Kind: KindRemove, ID: 1, Key: testKey, Payload: quad(1, 1)}}, "carries a payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := seed()
			buf := NewMergeBuffer(0)
			mustPanic(t, tt.want, func() { b.Merge(tt.run, buf) })

			// The batch is untouched and the buffer usable again.
			if got := ids(b.Entries()); !slices.Equal(got, []uint64{1, 3}) {
				t.Errorf("batch changed after failed merge: %v", got)
			}
			b.Merge([]Modification{Insert(2, testKey, quad(3, 3))}, buf)
			if got := ids(b.Entries()); !slices.Equal(got, []uint64{1, 2, 3}) {
				t.Errorf("merge after recovery = %v", got)
			}
		})
	}
}

func TestMergeBuffer_NotReentrant(t *testing.T) {
	buf := NewMergeBuffer(4)
	buf.acquire(1)
	mustPanic(t, "two merges at once", func() { buf.acquire(1) })
}

func TestMergeBuffer_ReusesStorage(t *testing.T) {
	b := NewBatch()
	buf := NewMergeBuffer(0)
	b.Merge([]Modification{Insert(1, testKey, quad(3, 3)), Insert(2, testKey, quad(3, 3))}, buf)
	b.Merge([]Modification{Insert(3, testKey, quad(3, 3))}, buf)

	// The second merge handed the first vector back to the buffer.
	if buf.Cap() < 2 {
		t.Errorf("buffer capacity = %d, want >= 2", buf.Cap())
	}

	// Once both vectors are large enough they ping-pong between the batch
	// and the buffer.
	run := []Modification{Update(2, testKey, quad(3, 3))}
	b.Merge(run, buf)
	first := &b.Entries()[0]
	b.Merge(run, buf)
	b.Merge(run, buf)
	if &b.Entries()[0] != first {
		t.Error("steady-state merge did not reuse the released vector")
	}
	checkSorted(t, b.Entries())
}

func TestMergeBufferPool(t *testing.T) {
	pool := NewMergeBufferPool()
	pool.Warmup(2)

	buf := pool.Get()
	if buf.Cap() < defaultMergeCapacity {
		t.Errorf("pooled capacity = %d, want >= %d", buf.Cap(), defaultMergeCapacity)
	}
	buf.acquire(1)
	pool.Put(buf) // dropped: still in use
	pool.Put(nil)

	b := NewBatch()
	fresh := pool.Get()
	b.Merge([]Modification{Insert(1, testKey, quad(3, 3))}, fresh)
	pool.Put(fresh)
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func BenchmarkBatchMerge(b *testing.B) {
	batch := NewBatch()
	var seed []Modification
	for id := range uint64(10000) {
		seed = append(seed, Insert(id*2, testKey, quad(4, 6)))
	}
	batch.Merge(seed, nil)

	p := quad(4, 6)
	run := make([]Modification, 0, 100)
	for i := range uint64(100) {
		run = append(run, Update(i*200, testKey, p))
	}
	buf := NewMergeBuffer(len(seed))

	b.ReportAllocs()
	for b.Loop() {
		batch.Merge(run, buf)
	}
}
