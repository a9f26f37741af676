package drawbatch

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sort"

	"github.com/gogpu/drawbatch/internal/parallel"
)

// Compiler accumulates the modifications of a frame and, on Flush, merges
// them into one Batch per GroupKey.
//
// Compiler is not safe for concurrent use. The intended model is one
// producer: all Enqueue calls of a frame, then Flush, then reads.
type Compiler struct {
	batches map[GroupKey]*Batch
	pending []Modification
	buf     *MergeBuffer
	opts    compilerOptions

	pool  *parallel.WorkerPool
	mpool *MergeBufferPool
}

// Stats summarizes the compiled state.
type Stats struct {
	Batches  int
	Entries  int
	Vertices int
	Indices  int
}

// NewCompiler creates an empty compiler.
func NewCompiler(opts ...CompilerOption) *Compiler {
	o := defaultCompilerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	mpool := o.mergePool
	if mpool == nil {
		mpool = NewMergeBufferPool()
	}
	return &Compiler{
		batches: make(map[GroupKey]*Batch),
		pending: make([]Modification, 0, o.initialCapacity),
		buf:     NewMergeBuffer(defaultMergeCapacity),
		opts:    o,
		mpool:   mpool,
	}
}

// Enqueue appends m to the pending list. No validation happens here.
func (c *Compiler) Enqueue(m Modification) {
	c.pending = append(c.pending, m)
}

// EnqueuePack enqueues both halves of p.
func (c *Compiler) EnqueuePack(p ModificationPack) {
	if m, ok := p.Removal(); ok {
		c.pending = append(c.pending, m)
	}
	if m, ok := p.Upsert(); ok {
		c.pending = append(c.pending, m)
	}
}

// Pending returns the number of modifications waiting for Flush.
func (c *Compiler) Pending() int { return len(c.pending) }

// run is one maximal single-key slice of the sorted pending list.
type run struct {
	key   GroupKey
	mods  []Modification
	batch *Batch
}

// partition stable-sorts the pending list by (Key, ID, Kind) and cuts it
// into maximal runs sharing one key. Batches for new keys are created here,
// on the calling goroutine.
func (c *Compiler) partition() []run {
	slices.SortStableFunc(c.pending, CompareModifications)

	var runs []run
	for rest := c.pending; len(rest) > 0; {
		key := rest[0].Key
		n := sort.Search(len(rest), func(i int) bool {
			return Compare(rest[i].Key, key) > 0
		})
		b, ok := c.batches[key]
		if !ok {
			b = NewBatch()
			c.batches[key] = b
		}
		runs = append(runs, run{key: key, mods: rest[:n], batch: b})
		rest = rest[n:]
	}
	return runs
}

// Flush applies every pending modification and empties the pending list.
//
// The pending list is stable-sorted by (Key, ID, Kind), cut into maximal
// single-key runs, and each run is merged into its batch (created on first
// use). Contract violations inside a run panic.
//
// After a panic the runs merged before the failing one stay applied, the
// failing run's batch is unchanged and the pending list is empty, so a
// recovering caller can keep enqueueing. Reset discards the batches too.
func (c *Compiler) Flush() {
	if len(c.pending) == 0 {
		return
	}
	defer c.dropPending()
	pending := len(c.pending)
	runs := c.partition()
	for i := range runs {
		runs[i].batch.Merge(runs[i].mods, c.buf)
	}
	c.finish(runs, pending)
}

// FlushParallel is Flush with runs merged concurrently on a worker pool.
// Each worker merges with its own MergeBuffer taken from the merge pool;
// the batch map is only written on the calling goroutine.
//
// A panicking run is re-raised after every task finished, so all other runs
// stay applied. The pending list is emptied either way.
func (c *Compiler) FlushParallel() {
	if len(c.pending) == 0 {
		return
	}
	defer c.dropPending()
	pending := len(c.pending)
	runs := c.partition()

	if c.pool == nil {
		c.pool = parallel.NewWorkerPool(c.opts.workers)
	}
	if !c.pool.IsRunning() {
		Logger().Warn("drawbatch: worker pool closed, merging on caller")
	}

	bufs := make([]*MergeBuffer, c.pool.Workers())
	for i := range bufs {
		bufs[i] = c.mpool.Get()
	}
	defer func() {
		for _, b := range bufs {
			c.mpool.Put(b)
		}
	}()

	tasks := make([]parallel.Task, len(runs))
	for i := range runs {
		r := &runs[i]
		tasks[i] = func(worker int) {
			r.batch.Merge(r.mods, bufs[worker])
		}
	}
	c.pool.ExecuteAll(tasks)
	c.finish(runs, pending)
}

// finish prunes empty batches if configured and logs the flush.
func (c *Compiler) finish(runs []run, pending int) {
	pruned := 0
	if c.opts.pruneEmpty {
		for i := range runs {
			if runs[i].batch.IsEmpty() {
				delete(c.batches, runs[i].key)
				pruned++
			}
		}
	}

	Logger().Debug("drawbatch: flush",
		slog.Int("pending", pending),
		slog.Int("runs", len(runs)),
		slog.Int("pruned", pruned),
		slog.Int("batches", len(c.batches)))
}

func (c *Compiler) dropPending() {
	clear(c.pending)
	c.pending = c.pending[:0]
}

// Batch returns the batch for key.
func (c *Compiler) Batch(key GroupKey) (*Batch, bool) {
	b, ok := c.batches[key]
	return b, ok
}

// Len returns the number of batches.
func (c *Compiler) Len() int { return len(c.batches) }

// All iterates (key, batch) pairs in unspecified order. Render order across
// keys is carried by the keys themselves; use Sorted when it matters.
func (c *Compiler) All() iter.Seq2[GroupKey, *Batch] {
	return func(yield func(GroupKey, *Batch) bool) {
		for k, b := range c.batches {
			if !yield(k, b) {
				return
			}
		}
	}
}

// Sorted returns all keys ordered by Compare.
func (c *Compiler) Sorted() []GroupKey {
	return slices.SortedFunc(maps.Keys(c.batches), Compare)
}

// SortedInto appends the keys of all batches to dst in Compare order and
// returns the extended slice. Passing dst[:0] reuses its storage.
func (c *Compiler) SortedInto(dst []GroupKey) []GroupKey {
	n := len(dst)
	for k := range c.batches {
		dst = append(dst, k)
	}
	slices.SortFunc(dst[n:], Compare)
	return dst
}

// Stats sums entry, vertex and index counts over all batches.
func (c *Compiler) Stats() Stats {
	s := Stats{Batches: len(c.batches)}
	for _, b := range c.batches {
		s.Entries += b.Len()
		s.Vertices += b.VertexCount()
		s.Indices += b.IndexCount()
	}
	return s
}

// Reset drops all batches and pending modifications.
func (c *Compiler) Reset() {
	clear(c.batches)
	clear(c.pending)
	c.pending = c.pending[:0]
}

// Close stops the FlushParallel worker pool, if one was started.
func (c *Compiler) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
