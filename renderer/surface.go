package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
)

// Surface draws the field as a single viewport-covering quad. It owns the
// shader program and the GPU parameter block; both are created once in
// NewSurface and reused for every frame.
type Surface struct {
	shader        rl.Shader
	paramsLoc     int32
	centerLoc     int32
	halfExtentLoc int32

	block params.Block
	plane field.Plane

	width, height int32
}

// NewSurface compiles the field shaders and resolves their uniforms.
// Must be called after the raylib window is created. A compile or link
// failure is returned as an error; there is no fallback rendering.
func NewSurface(width, height int32) (*Surface, error) {
	shader := rl.LoadShaderFromMemory(field.VertexShader, field.FragmentShader)
	if shader.ID == 0 {
		return nil, fmt.Errorf("loading field shader: no program created")
	}

	s := &Surface{
		shader: shader,
		width:  width,
		height: height,
	}

	// raylib falls back to its default program on compile errors, which
	// declares none of our uniforms.
	uniforms := []struct {
		name string
		loc  *int32
	}{
		{field.UniformParams, &s.paramsLoc},
		{field.UniformPlaneCenter, &s.centerLoc},
		{field.UniformPlaneHalfExtent, &s.halfExtentLoc},
	}
	for _, u := range uniforms {
		*u.loc = rl.GetShaderLocation(shader, u.name)
		if *u.loc < 0 {
			rl.UnloadShader(shader)
			return nil, fmt.Errorf("field shader: uniform %q not found (compile or link failed)", u.name)
		}
	}

	s.SetPlane(field.ReferencePlane)
	return s, nil
}

// Refresh overwrites the parameter block from a store snapshot and uploads it.
func (s *Surface) Refresh(p params.Set) {
	s.block = params.BlockFromSet(p)
	rl.SetShaderValueV(s.shader, s.paramsLoc, s.block.Slice(), rl.ShaderUniformFloat, params.NumFields)
}

// Block returns the parameter block most recently uploaded.
func (s *Surface) Block() params.Block {
	return s.block
}

// SetPlane sets the region of the z=0 plane mapped onto the viewport.
func (s *Surface) SetPlane(pl field.Plane) {
	if pl == s.plane {
		return
	}
	s.plane = pl
	rl.SetShaderValue(s.shader, s.centerLoc, pl.Center[:], rl.ShaderUniformVec2)
	rl.SetShaderValue(s.shader, s.halfExtentLoc, pl.HalfExtent[:], rl.ShaderUniformVec2)
}

// Plane returns the currently mapped plane region.
func (s *Surface) Plane() field.Plane {
	return s.plane
}

// Resize updates the quad to cover a viewport of the new size.
func (s *Surface) Resize(width, height int32) {
	s.width = width
	s.height = height
}

// Draw issues the quad draw with the field shader.
func (s *Surface) Draw() {
	rl.BeginShaderMode(s.shader)
	rl.DrawRectangle(0, 0, s.width, s.height, rl.White)
	rl.EndShaderMode()
}

// Unload releases GPU resources.
func (s *Surface) Unload() {
	rl.UnloadShader(s.shader)
}
