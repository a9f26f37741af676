package drawbatch

import "sync"

// MergeBuffer is the scratch output of Batch.Merge. After a merge the
// batch's previous entry slice is handed back to the buffer and becomes the
// scratch space for the next merge, so steady-state merging does not
// allocate.
//
// A MergeBuffer is not reentrant: one merge at a time. Concurrent merges on
// different batches each need their own buffer (see MergeBufferPool).
type MergeBuffer struct {
	out   []DrawEntry
	inUse bool
}

// NewMergeBuffer creates a buffer with room for capacity entries.
func NewMergeBuffer(capacity int) *MergeBuffer {
	return &MergeBuffer{out: make([]DrawEntry, 0, capacity)}
}

// Cap returns the current scratch capacity.
func (b *MergeBuffer) Cap() int { return cap(b.out) }

// acquire returns an empty output slice with at least n capacity.
func (b *MergeBuffer) acquire(n int) []DrawEntry {
	if b.inUse {
		panic("drawbatch: merge buffer used by two merges at once")
	}
	b.inUse = true
	if cap(b.out) < n {
		b.out = make([]DrawEntry, 0, n)
	}
	return b.out[:0]
}

// release takes back the slice the batch no longer owns. Its elements are
// cleared so that replaced payloads can be collected.
func (b *MergeBuffer) release(old []DrawEntry) {
	clear(old)
	b.out = old[:0]
	b.inUse = false
}

// abort returns the buffer to a usable state after a failed merge.
func (b *MergeBuffer) abort(out []DrawEntry) {
	clear(out)
	b.out = out[:0]
	b.inUse = false
}

// MergeBufferPool hands out MergeBuffers to concurrent merges.
//
// Usage:
//
//	pool := NewMergeBufferPool()
//	buf := pool.Get()
//	defer pool.Put(buf)
//	batch.Merge(run, buf)
type MergeBufferPool struct {
	pool sync.Pool
}

// defaultMergeCapacity is the initial capacity of pooled buffers.
const defaultMergeCapacity = 256

// NewMergeBufferPool creates a new pool.
func NewMergeBufferPool() *MergeBufferPool {
	return &MergeBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewMergeBuffer(defaultMergeCapacity)
			},
		},
	}
}

// Get retrieves a buffer from the pool.
func (p *MergeBufferPool) Get() *MergeBuffer {
	return p.pool.Get().(*MergeBuffer)
}

// Put returns a buffer to the pool. Buffers still inside a merge are dropped.
func (p *MergeBufferPool) Put(b *MergeBuffer) {
	if b == nil || b.inUse {
		return
	}
	p.pool.Put(b)
}

// Warmup pre-allocates buffers to avoid allocation during the first frames.
func (p *MergeBufferPool) Warmup(count int) {
	bufs := make([]*MergeBuffer, count)
	for i := range count {
		bufs[i] = p.Get()
	}
	for i := range count {
		p.Put(bufs[i])
	}
}
