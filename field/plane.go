package field

import (
	"github.com/chewxy/math32"

	"github.com/pthm-cable/warpviz/params"
)

// Plane is the rectangle of the z=0 plane covered by the viewport.
// UV (0,0) is the bottom-left corner and (1,1) the top-right.
type Plane struct {
	Center     [2]float32
	HalfExtent [2]float32
}

// ReferencePlane maps UV to [-1,1]² metres.
var ReferencePlane = Plane{HalfExtent: [2]float32{1, 1}}

// Position maps a UV coordinate to its point on the plane, matching the
// fragment shader's planeCenter + (uv-0.5)*2*planeHalfExtent.
func (pl Plane) Position(u, v float32) Vec3 {
	return Vec3{
		X: pl.Center[0] + (u-0.5)*2*pl.HalfExtent[0],
		Y: pl.Center[1] + (v-0.5)*2*pl.HalfExtent[1],
	}
}

// UV is the inverse of Position for points on the plane.
func (pl Plane) UV(pos Vec3) (u, v float32) {
	if pl.HalfExtent[0] != 0 {
		u = (pos.X-pl.Center[0])/(2*pl.HalfExtent[0]) + 0.5
	}
	if pl.HalfExtent[1] != 0 {
		v = (pos.Y-pl.Center[1])/(2*pl.HalfExtent[1]) + 0.5
	}
	return u, v
}

// PixelUV returns the UV at the centre of pixel (px, py) in a w×h viewport
// whose row 0 is the top of the screen.
func PixelUV(px, py, w, h int) (u, v float32) {
	u = (float32(px) + 0.5) / float32(w)
	v = 1 - (float32(py)+0.5)/float32(h)
	return u, v
}

// Shade is the CPU mirror of the fragment stage: grey level equal to the
// field magnitude, clamped as an 8-bit framebuffer would, alpha 1.
func Shade(u, v float32, pl Plane, p params.Set) [4]float32 {
	m := Magnitude(pl.Position(u, v), p)
	m = math32.Max(0, math32.Min(1, m))
	return [4]float32{m, m, m, 1}
}
