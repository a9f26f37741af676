// Package upload moves compiled drawbatch batches onto the GPU through the
// wgpu HAL.
//
// The package owns no GPU memory. The caller creates the vertex and index
// buffers, the pipelines and the bind groups; upload derives pipeline
// descriptors from group keys, packs each capacity-bounded range into
// little-endian bytes, writes it with Queue.WriteBuffer and issues one
// DrawIndexed per range.
//
// # Frame Loop
//
//	compiler.Flush()
//	pass := encoder.BeginRenderPass(desc)
//	stats, err := submitter.Submit(pass, compiler, target, 0)
//	pass.End()
//
// # Shader
//
// ShaderSource is the WGSL program every pipeline uses: position, UV and
// premultiplied color per vertex, one texture and sampler at group 0.
// CompileShader validates it through naga and returns SPIR-V words for
// backends that take SPIR-V.
package upload
