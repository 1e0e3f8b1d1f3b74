package field

import _ "embed"

// GLSL transcription of the field for the render surface.
var (
	//go:embed shaders/warp.vs
	VertexShader string

	//go:embed shaders/warp.fs
	FragmentShader string
)

// Uniform names declared by FragmentShader.
const (
	UniformParams          = "params"
	UniformPlaneCenter     = "planeCenter"
	UniformPlaneHalfExtent = "planeHalfExtent"
)
