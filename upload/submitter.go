package upload

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/drawbatch"
)

// Sentinel errors returned by Submit.
var (
	// ErrTargetFull is returned when the target buffers cannot hold the next
	// range. Everything submitted before it has been written and drawn.
	ErrTargetFull = errors.New("upload: target buffer full")

	// ErrUnknownMaterial is returned for a key whose Material handle has no
	// registered pipeline.
	ErrUnknownMaterial = errors.New("upload: unknown material")

	// ErrUnknownTexture is returned for a key whose Texture handle names no
	// texture view bound with BindTexture.
	ErrUnknownTexture = errors.New("upload: unknown texture")

	// ErrNilTarget is returned when the target has no vertex or index buffer.
	ErrNilTarget = errors.New("upload: nil target buffer")
)

// Target is the caller-owned destination of a Submit call. Capacities are
// in bytes.
type Target struct {
	Vertices       hal.Buffer
	Indices        hal.Buffer
	VertexCapacity uint64
	IndexCapacity  uint64
}

// Stats reports what a Submit call did.
type Stats struct {
	Batches      int
	Draws        int
	Vertices     int
	Indices      int
	VertexBytes  uint64
	IndexBytes   uint64
	SkippedEmpty int
}

// SubmitterOption configures a Submitter during creation.
type SubmitterOption func(*submitterOptions)

type submitterOptions struct {
	pipelines   *drawbatch.HandleRegistry[hal.RenderPipeline]
	textures    *drawbatch.HandleRegistry[gpucontext.TextureView]
	defaultBind hal.BindGroup
	maxIndices  int
}

// WithPipelines sets the registry that resolves GroupKey.Material handles
// to pipelines.
func WithPipelines(r *drawbatch.HandleRegistry[hal.RenderPipeline]) SubmitterOption {
	return func(o *submitterOptions) {
		o.pipelines = r
	}
}

// WithTextures sets the texture view registry that GroupKey.Texture handles
// come from. Share it with code that builds keys through
// drawbatch.TextureHandle.
func WithTextures(r *drawbatch.HandleRegistry[gpucontext.TextureView]) SubmitterOption {
	return func(o *submitterOptions) {
		o.textures = r
	}
}

// WithDefaultBindGroup sets the bind group used for keys without a texture,
// typically a 1x1 white texture.
func WithDefaultBindGroup(bg hal.BindGroup) SubmitterOption {
	return func(o *submitterOptions) {
		o.defaultBind = bg
	}
}

// WithMaxIndices bounds the index count of a single draw call.
// Zero or negative leaves it bounded by the index format only.
func WithMaxIndices(n int) SubmitterOption {
	return func(o *submitterOptions) {
		o.maxIndices = n
	}
}

// Submitter uploads and draws compiled batches. It keeps the key order and
// staging slices between calls, so steady-state submission does not
// allocate.
//
// GroupKey.Texture handles live in one namespace, the texture view
// registry. BindTexture attaches the bind group a view is drawn with.
//
// Submitter is not safe for concurrent use.
type Submitter struct {
	queue  hal.Queue
	format gputypes.IndexFormat
	limits drawbatch.Limits
	opts   submitterOptions

	groups map[drawbatch.Handle]hal.BindGroup

	keys     []drawbatch.GroupKey
	vertices []drawbatch.Vertex
	indices  []uint32
	scratch  []byte
}

// NewSubmitter creates a submitter writing through queue with the given
// index format. Panics on IndexFormatUndefined.
func NewSubmitter(queue hal.Queue, format gputypes.IndexFormat, opts ...SubmitterOption) *Submitter {
	var o submitterOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.pipelines == nil {
		o.pipelines = drawbatch.NewHandleRegistry[hal.RenderPipeline]()
	}
	if o.textures == nil {
		o.textures = drawbatch.NewTextureRegistry()
	}
	return &Submitter{
		queue:  queue,
		format: format,
		limits: drawbatch.LimitsFor(format, o.maxIndices),
		opts:   o,
		groups: make(map[drawbatch.Handle]hal.BindGroup),
	}
}

// Pipelines returns the material registry.
func (s *Submitter) Pipelines() *drawbatch.HandleRegistry[hal.RenderPipeline] {
	return s.opts.pipelines
}

// Textures returns the texture view registry.
func (s *Submitter) Textures() *drawbatch.HandleRegistry[gpucontext.TextureView] {
	return s.opts.textures
}

// BindTexture interns view and sets the bind group batches with its handle
// are drawn with, replacing any earlier one. It returns the handle to put in
// GroupKey.Texture, or NoHandle for a nil view.
func (s *Submitter) BindTexture(view gpucontext.TextureView, group hal.BindGroup) drawbatch.Handle {
	h := drawbatch.TextureHandle(s.opts.textures, view)
	if !h.IsZero() {
		s.groups[h] = group
	}
	return h
}

// UnbindTexture forgets view and its bind group. Keys still holding its
// handle fail Submit with ErrUnknownTexture.
func (s *Submitter) UnbindTexture(view gpucontext.TextureView) {
	if h, ok := s.opts.textures.Handle(view); ok {
		delete(s.groups, h)
		s.opts.textures.Release(view)
	}
}

// Limits returns the per-draw range limits.
func (s *Submitter) Limits() drawbatch.Limits { return s.limits }

// SetLogger sets the logger for the upload package.
// Called by drawbatch users to propagate logging configuration.
func (s *Submitter) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Submit draws every batch of c whose key includes passIndex, in key order.
//
// The target buffers are bound once; each batch binds its pipeline, bind
// group and stencil reference, then each range of the batch is packed,
// written after the previous one and drawn with DrawIndexed. Ranges never
// span batches, so a draw call never mixes keys.
//
// On error, the returned Stats cover what was drawn before the failure.
func (s *Submitter) Submit(pass hal.RenderPassEncoder, c *drawbatch.Compiler, target Target, passIndex int) (Stats, error) {
	var st Stats
	if target.Vertices == nil || target.Indices == nil {
		return st, ErrNilTarget
	}
	pass.SetVertexBuffer(0, target.Vertices, 0)
	pass.SetIndexBuffer(target.Indices, s.format, 0)

	indexSize := uint64(s.format.Size())
	var vOff, iOff uint64

	s.keys = c.SortedInto(s.keys[:0])
	for _, key := range s.keys {
		if !key.Passes.Contains(passIndex) {
			continue
		}
		b, _ := c.Batch(key)
		if b.IsEmpty() {
			st.SkippedEmpty++
			continue
		}
		if err := s.bind(pass, key); err != nil {
			return st, err
		}
		st.Batches++

		sl := b.Slicer(s.limits)
		for r := range sl.Ranges() {
			s.vertices = resize(s.vertices, r.VertexCount)
			s.indices = resize(s.indices, r.IndexCount)
			sl.CopyRange(r, s.vertices, s.indices)

			s.scratch = appendVertices(s.scratch[:0], s.vertices)
			vBytes := uint64(len(s.scratch))
			if vOff+vBytes > target.VertexCapacity {
				return st, fmt.Errorf("%w: vertices need %d bytes at offset %d, capacity %d",
					ErrTargetFull, vBytes, vOff, target.VertexCapacity)
			}
			if err := s.queue.WriteBuffer(target.Vertices, vOff, s.scratch); err != nil {
				return st, fmt.Errorf("upload: write vertices for %s: %w", key, err)
			}

			s.scratch = appendIndices(s.scratch[:0], s.indices, s.format)
			iBytes := uint64(len(s.scratch))
			if iOff+iBytes > target.IndexCapacity {
				return st, fmt.Errorf("%w: indices need %d bytes at offset %d, capacity %d",
					ErrTargetFull, iBytes, iOff, target.IndexCapacity)
			}
			if err := s.queue.WriteBuffer(target.Indices, iOff, s.scratch); err != nil {
				return st, fmt.Errorf("upload: write indices for %s: %w", key, err)
			}

			pass.DrawIndexed(uint32(r.IndexCount), 1, uint32(iOff/indexSize), int32(vOff/VertexStride), 0)

			st.Draws++
			st.Vertices += r.VertexCount
			st.Indices += r.IndexCount
			st.VertexBytes += vBytes
			st.IndexBytes += iBytes
			vOff += vBytes
			iOff = alignUp(iOff + iBytes)
		}
	}

	slogger().Debug("upload: submit",
		slog.Int("pass", passIndex),
		slog.Int("batches", st.Batches),
		slog.Int("draws", st.Draws),
		slog.Uint64("vertex_bytes", st.VertexBytes),
		slog.Uint64("index_bytes", st.IndexBytes))
	return st, nil
}

// bind sets the per-batch pipeline state.
func (s *Submitter) bind(pass hal.RenderPassEncoder, key drawbatch.GroupKey) error {
	pipeline, ok := s.opts.pipelines.Lookup(key.Material)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrUnknownMaterial, key.Material, key)
	}
	pass.SetPipeline(pipeline)

	group := s.opts.defaultBind
	if !key.Texture.IsZero() {
		if _, ok = s.opts.textures.Lookup(key.Texture); ok {
			group, ok = s.groups[key.Texture]
		}
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrUnknownTexture, key.Texture, key)
		}
	}
	if group != nil {
		pass.SetBindGroup(0, group, nil)
	}

	if key.Stencil.Enabled() {
		pass.SetStencilReference(uint32(key.Stencil.Reference()))
	}
	return nil
}

// resize returns a slice of length n, reusing s when it is large enough.
func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}
