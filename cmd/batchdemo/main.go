// Command batchdemo drives the drawbatch compiler with a synthetic sprite
// scene and submits every frame through the noop wgpu backend.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/drawbatch"
	"github.com/gogpu/drawbatch/upload"
)

// sprite is one drawable of the synthetic scene.
type sprite struct {
	id    uint64
	key   drawbatch.GroupKey
	x, y  float32
	size  float32
	color f32.Vec4
}

// config holds the command-line settings.
type config struct {
	frames    int
	drawables int
	layers    int
	textures  int
	churn     float64
	parallel  bool
	workers   int
	index32   bool
	seed      uint64
	verbose   bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.frames, "frames", 120, "number of frames to simulate")
	flag.IntVar(&cfg.drawables, "drawables", 20000, "number of sprites")
	flag.IntVar(&cfg.layers, "layers", 8, "number of z layers")
	flag.IntVar(&cfg.textures, "textures", 4, "number of textures")
	flag.Float64Var(&cfg.churn, "churn", 0.05, "fraction of sprites changed per frame")
	flag.BoolVar(&cfg.parallel, "parallel", false, "flush on the worker pool")
	flag.IntVar(&cfg.workers, "workers", 0, "worker count for -parallel (0 = GOMAXPROCS)")
	flag.BoolVar(&cfg.index32, "index32", false, "use 32-bit indices")
	flag.Uint64Var(&cfg.seed, "seed", 1, "random seed")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

// run simulates the scene. Every resource it opens is released before it
// returns, including on error.
func run(cfg config) error {
	if cfg.drawables < 1 || cfg.textures < 1 || cfg.layers < 1 {
		return errors.New("-drawables, -textures and -layers must be positive")
	}

	if cfg.verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		drawbatch.SetLogger(logger)
	}

	device, queue, cleanup, err := openNoopDevice()
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer cleanup()

	format := gputypes.IndexFormatUint16
	if cfg.index32 {
		format = gputypes.IndexFormatUint32
	}

	sub := upload.NewSubmitter(queue, format)
	sub.SetLogger(drawbatch.Logger())
	pipelines, materials, err := createPipelines(device, sub)
	if err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	defer pipelines.Destroy()
	texHandles, err := createTextures(device, sub, cfg.textures)
	if err != nil {
		return fmt.Errorf("create textures: %w", err)
	}

	// Worst case: every sprite in one pass, 4 vertices and 6 indices each.
	target, err := createTarget(device, cfg.drawables, format)
	if err != nil {
		return fmt.Errorf("create target buffers: %w", err)
	}
	defer device.DestroyBuffer(target.Vertices)
	defer device.DestroyBuffer(target.Indices)

	compiler := drawbatch.NewCompiler(drawbatch.WithWorkers(cfg.workers), drawbatch.WithPruneEmpty(true))
	defer compiler.Close()

	rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed))
	scene := newScene(rng, cfg.drawables, cfg.layers, texHandles, materials)
	for _, s := range scene {
		compiler.Enqueue(drawbatch.Insert(s.id, s.key, s.payload()))
	}

	var (
		flushTime, submitTime time.Duration
		totalDraws            int
	)
	encoder := &noop.RenderPassEncoder{}
	seen := make(map[int]bool)
	for frame := range cfg.frames {
		if frame > 0 {
			// A drawable changes at most once per frame.
			clear(seen)
			changed := int(float64(len(scene)) * cfg.churn)
			for range changed {
				i := rng.IntN(len(scene))
				if seen[i] {
					continue
				}
				seen[i] = true
				s := &scene[i]
				from := s.key
				s.step(rng, cfg.layers, texHandles)
				compiler.EnqueuePack(drawbatch.Moved(s.id, from, s.key, s.payload()))
			}
		}

		start := time.Now()
		if cfg.parallel {
			compiler.FlushParallel()
		} else {
			compiler.Flush()
		}
		flushTime += time.Since(start)

		start = time.Now()
		st, err := sub.Submit(encoder, compiler, target, 0)
		if err != nil {
			return fmt.Errorf("frame %d: submit: %w", frame, err)
		}
		submitTime += time.Since(start)
		totalDraws += st.Draws
	}

	frames := time.Duration(max(cfg.frames, 1))
	stats := compiler.Stats()
	log.Printf("%d frames, %d sprites: %d batches, %d vertices, %d indices",
		cfg.frames, cfg.drawables, stats.Batches, stats.Vertices, stats.Indices)
	log.Printf("avg flush %v, avg submit %v, avg draws %d",
		flushTime/frames, submitTime/frames, totalDraws/max(cfg.frames, 1))
	return nil
}

func openNoopDevice() (hal.Device, hal.Queue, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, err
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup, nil
}

// createPipelines registers one material for blended and one for opaque
// sprites through a pipeline cache.
func createPipelines(device hal.Device, sub *upload.Submitter) (*upload.PipelineCache, []drawbatch.Handle, error) {
	module, err := device.CreateShaderModule(upload.ShaderModuleDescriptor())
	if err != nil {
		return nil, nil, err
	}
	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: "batchdemo_layout"})
	if err != nil {
		return nil, nil, err
	}

	pc := upload.NewPipelineCache(distinctDevice{device}, module, layout, gputypes.TextureFormatBGRA8Unorm, sub, 0)
	handles := make([]drawbatch.Handle, len(materialStates))
	for i, state := range materialStates {
		if handles[i], err = pc.Material(state, 0); err != nil {
			return nil, nil, err
		}
	}
	return pc, handles, nil
}

// materialStates are the render states of the demo materials: blended and
// opaque sprites.
var materialStates = []drawbatch.RenderState{
	drawbatch.DefaultRenderState(),
	drawbatch.NewRenderState(drawbatch.RenderConfig{
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		WriteMask: gputypes.ColorWriteMaskAll,
	}),
}

// distinctDevice wraps noop pipelines and bind groups, which are zero-sized
// and may share one address, so that each gets its own handle.
type distinctDevice struct {
	hal.Device
}

func (d distinctDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	p, err := d.Device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	return &material{RenderPipeline: p, label: desc.Label}, nil
}

// material is a pipeline with an identity.
type material struct {
	hal.RenderPipeline
	label string
}

// createTextures binds n sprite textures and returns their handles.
func createTextures(device hal.Device, sub *upload.Submitter, n int) ([]drawbatch.Handle, error) {
	handles := make([]drawbatch.Handle, n)
	for i := range handles {
		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{Label: "batchdemo_texture"})
		if err != nil {
			return nil, err
		}
		tex := &texture{BindGroup: bg, index: i}
		handles[i] = sub.BindTexture(tex.view(), tex)
	}
	return handles, nil
}

// texture is a sprite texture with an identity. The noop backend has no
// real views, so the texture's own address stands in for its view.
type texture struct {
	hal.BindGroup
	index int
}

func (t *texture) view() gpucontext.TextureView {
	return gpucontext.NewTextureView(unsafe.Pointer(t))
}

func createTarget(device hal.Device, drawables int, format gputypes.IndexFormat) (upload.Target, error) {
	vBytes := uint64(drawables) * 4 * upload.VertexStride
	iBytes := uint64(drawables) * 6 * uint64(format.Size())
	// Each range may pad its indices by up to 2 bytes.
	iBytes += uint64(drawables) * 4

	vb, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batchdemo_vertices",
		Size:  vBytes,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return upload.Target{}, err
	}
	ib, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batchdemo_indices",
		Size:  iBytes,
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		device.DestroyBuffer(vb)
		return upload.Target{}, err
	}
	return upload.Target{Vertices: vb, Indices: ib, VertexCapacity: vBytes, IndexCapacity: iBytes}, nil
}

func newScene(rng *rand.Rand, n, layers int, textures, materials []drawbatch.Handle) []sprite {
	scene := make([]sprite, n)
	for i := range scene {
		s := &scene[i]
		s.id = uint64(i + 1)
		s.x, s.y = rng.Float32()*2-1, rng.Float32()*2-1
		s.size = 0.005 + rng.Float32()*0.02
		s.color = f32.Vec4{rng.Float32(), rng.Float32(), rng.Float32(), 1}
		m := rng.IntN(len(materials))
		s.key = drawbatch.GroupKey{
			Passes:   drawbatch.IndexSetOf(0),
			ZIndex:   int32(rng.IntN(layers)),
			Texture:  textures[rng.IntN(len(textures))],
			Material: materials[m],
			State:    materialStates[m],
		}
	}
	return scene
}

// step moves the sprite and occasionally changes its layer or texture.
func (s *sprite) step(rng *rand.Rand, layers int, textures []drawbatch.Handle) {
	s.x += (rng.Float32() - 0.5) * 0.01
	s.y += (rng.Float32() - 0.5) * 0.01
	switch rng.IntN(10) {
	case 0:
		s.key.ZIndex = int32(rng.IntN(layers))
	case 1:
		s.key.Texture = textures[rng.IntN(len(textures))]
	}
}

// payload builds the sprite quad.
func (s *sprite) payload() drawbatch.Payload {
	x0, y0, x1, y1 := s.x, s.y, s.x+s.size, s.y+s.size
	c := f32.Vec4{s.color[0] * s.color[3], s.color[1] * s.color[3], s.color[2] * s.color[3], s.color[3]}
	return drawbatch.Payload{
		Vertices: []drawbatch.Vertex{
			{Position: f32.Vec2{x0, y0}, UV: f32.Vec2{0, 0}, Color: c},
			{Position: f32.Vec2{x1, y0}, UV: f32.Vec2{1, 0}, Color: c},
			{Position: f32.Vec2{x1, y1}, UV: f32.Vec2{1, 1}, Color: c},
			{Position: f32.Vec2{x0, y1}, UV: f32.Vec2{0, 1}, Color: c},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}
