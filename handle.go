package drawbatch

import (
	"strconv"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Handle is an opaque identity for an externally owned resource such as a
// texture view or a render pipeline. Handles are only ever compared; the
// resource they stand for is never dereferenced by this package.
//
// The zero Handle means "no resource".
type Handle uint64

// NoHandle is the zero handle.
const NoHandle Handle = 0

// IsZero reports whether h refers to no resource.
func (h Handle) IsZero() bool { return h == NoHandle }

// String returns a short debug representation.
func (h Handle) String() string {
	if h == NoHandle {
		return "none"
	}
	return "#" + strconv.FormatUint(uint64(h), 10)
}

// HandleRegistry interns resources of type T into stable Handles.
//
// The same resource value always yields the same handle until it is
// released. Handles are assigned sequentially starting at 1 and are never
// reused, so a stale handle can never alias a newer resource.
//
// Thread safety: HandleRegistry is safe for concurrent use. Resources are
// usually created outside the frame thread.
type HandleRegistry[T comparable] struct {
	mu       sync.RWMutex
	handles  map[T]Handle
	values   map[Handle]T
	nextSeed Handle
}

// NewHandleRegistry creates an empty registry.
func NewHandleRegistry[T comparable]() *HandleRegistry[T] {
	return &HandleRegistry[T]{
		handles: make(map[T]Handle),
		values:  make(map[Handle]T),
	}
}

// Intern returns the handle for res, assigning a new one on first use.
func (r *HandleRegistry[T]) Intern(res T) Handle {
	r.mu.RLock()
	h, ok := r.handles[res]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[res]; ok {
		return h
	}
	r.nextSeed++
	h = r.nextSeed
	r.handles[res] = h
	r.values[h] = res
	return h
}

// Handle returns the handle previously assigned to res, if any.
func (r *HandleRegistry[T]) Handle(res T) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[res]
	return h, ok
}

// Lookup returns the resource behind h.
func (r *HandleRegistry[T]) Lookup(h Handle) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[h]
	return v, ok
}

// Release forgets res. Keys still holding its handle keep comparing
// correctly but Lookup no longer resolves it.
func (r *HandleRegistry[T]) Release(res T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[res]; ok {
		delete(r.handles, res)
		delete(r.values, h)
	}
}

// Len returns the number of live resources.
func (r *HandleRegistry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// NewTextureRegistry returns a registry for gpucontext texture views, the
// handle type shared across the gogpu ecosystem. Nil views are interned
// like any other value; callers normally skip them and use NoHandle.
func NewTextureRegistry() *HandleRegistry[gpucontext.TextureView] {
	return NewHandleRegistry[gpucontext.TextureView]()
}

// TextureHandle interns tv in reg, returning NoHandle for a nil view.
// GroupKey.Texture handles come from here; upload.Submitter resolves them
// through the same registry to the bind group attached with BindTexture.
func TextureHandle(reg *HandleRegistry[gpucontext.TextureView], tv gpucontext.TextureView) Handle {
	if tv.IsNil() {
		return NoHandle
	}
	return reg.Intern(tv)
}
