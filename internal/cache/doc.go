// Package cache provides a generic LRU cache for GPU objects that are
// expensive to create and must be destroyed when dropped.
//
//	c := cache.New[pipelineKey, hal.RenderPipeline](64, func(k pipelineKey, p hal.RenderPipeline) {
//		device.DestroyRenderPipeline(p)
//	})
//	p, err := c.GetOrCreate(key, build)
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation
// (it contains a mutex).
package cache
