package upload

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// ShaderSource is the WGSL program shared by all batch pipelines.
//
//go:embed shaders/batch.wgsl
var ShaderSource string

// Shader entry points in ShaderSource.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// CompileShader compiles ShaderSource to SPIR-V words.
func CompileShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(ShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile batch shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile batch shader: SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirv, nil
}

// ShaderModuleDescriptor returns the WGSL descriptor for
// hal.Device.CreateShaderModule.
func ShaderModuleDescriptor() *hal.ShaderModuleDescriptor {
	return &hal.ShaderModuleDescriptor{
		Label:  "drawbatch_shader",
		Source: hal.ShaderSource{WGSL: ShaderSource},
	}
}

// SPIRVModuleDescriptor compiles ShaderSource and returns a SPIR-V
// descriptor, for backends that do not accept WGSL.
func SPIRVModuleDescriptor() (*hal.ShaderModuleDescriptor, error) {
	spirv, err := CompileShader()
	if err != nil {
		return nil, err
	}
	return &hal.ShaderModuleDescriptor{
		Label:  "drawbatch_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	}, nil
}
