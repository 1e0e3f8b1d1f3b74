// Package camera provides a perspective camera for viewing the field plane.
//
// All derivations run in float64. The scene spans picometre clip planes to
// metre-scale extents, so nothing is narrowed to float32 until a result
// (the sampled plane) crosses over to the GPU.
package camera

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/warpviz/config"
)

// Camera looks from Position toward Target.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec

	// Vertical field of view in degrees
	FovY float64

	// Clip distances in metres
	Near, Far float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Dolly constraints, distance from Target
	MinDistance, MaxDistance float64

	home struct {
		position, target, up r3.Vec
	}
}

// New creates a camera from configuration for the given viewport.
func New(cfg config.CameraConfig, viewportW, viewportH float64) *Camera {
	c := &Camera{
		Position:    vec(cfg.Position),
		Target:      vec(cfg.Target),
		Up:          vec(cfg.Up),
		FovY:        cfg.FovY,
		Near:        cfg.Near,
		Far:         cfg.Far,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: cfg.MinDistance,
		MaxDistance: cfg.MaxDistance,
	}
	if r3.Norm(c.Up) == 0 {
		c.Up = r3.Vec{Y: 1}
	}
	if c.MaxDistance <= 0 {
		c.MaxDistance = math.Inf(1)
	}
	c.home.position = c.Position
	c.home.target = c.Target
	c.home.up = c.Up
	return c
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// Aspect returns viewport width over height.
func (c *Camera) Aspect() float64 {
	if c.ViewportH == 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.Target, c.Position))
}

// basis returns the camera's orthonormal forward, right and up vectors.
func (c *Camera) basis() (f, s, u r3.Vec) {
	f = r3.Unit(r3.Sub(c.Target, c.Position))
	cross := r3.Cross(f, c.Up)
	if r3.Norm(cross) == 0 {
		// Looking along Up; pick any perpendicular reference.
		alt := r3.Vec{Z: 1}
		if math.Abs(f.Z) > 0.9 {
			alt = r3.Vec{Y: 1}
		}
		cross = r3.Cross(f, alt)
	}
	s = r3.Unit(cross)
	u = r3.Cross(s, f)
	return f, s, u
}

// View returns the right-handed look-at matrix (column-vector convention).
func (c *Camera) View() *mat.Dense {
	f, s, u := c.basis()
	e := c.Position
	return mat.NewDense(4, 4, []float64{
		s.X, s.Y, s.Z, -r3.Dot(s, e),
		u.X, u.Y, u.Z, -r3.Dot(u, e),
		-f.X, -f.Y, -f.Z, r3.Dot(f, e),
		0, 0, 0, 1,
	})
}

// Projection returns the OpenGL perspective matrix mapping the view
// frustum to clip space with depth in [-1, 1].
func (c *Camera) Projection() *mat.Dense {
	t := math.Tan(c.FovY * math.Pi / 360)
	n, f := c.Near, c.Far
	return mat.NewDense(4, 4, []float64{
		1 / (c.Aspect() * t), 0, 0, 0,
		0, 1 / t, 0, 0,
		0, 0, (f + n) / (n - f), 2 * f * n / (n - f),
		0, 0, -1, 0,
	})
}

// ViewProjection returns Projection × View.
func (c *Camera) ViewProjection() *mat.Dense {
	var vp mat.Dense
	vp.Mul(c.Projection(), c.View())
	return &vp
}

// Project transforms a world point to normalized device coordinates.
// ok is false when the point is behind the camera.
func (c *Camera) Project(p r3.Vec) (ndc r3.Vec, ok bool) {
	in := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1})
	var out mat.VecDense
	out.MulVec(c.ViewProjection(), in)
	w := out.AtVec(3)
	if w <= 0 {
		return r3.Vec{}, false
	}
	return r3.Vec{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}, true
}

// WorldToScreen projects a world point to pixel coordinates (y down).
func (c *Camera) WorldToScreen(p r3.Vec) (sx, sy float64, ok bool) {
	ndc, ok := c.Project(p)
	if !ok {
		return 0, 0, false
	}
	sx = (ndc.X + 1) / 2 * c.ViewportW
	sy = (1 - ndc.Y) / 2 * c.ViewportH
	return sx, sy, true
}

// ray returns the direction through a point in normalized device coordinates.
func (c *Camera) ray(nx, ny float64) r3.Vec {
	f, s, u := c.basis()
	t := math.Tan(c.FovY * math.Pi / 360)
	d := r3.Add(f, r3.Scale(nx*t*c.Aspect(), s))
	return r3.Add(d, r3.Scale(ny*t, u))
}

// intersectPlane returns where the ray through (nx, ny) meets z=0.
func (c *Camera) intersectPlane(nx, ny float64) (r3.Vec, bool) {
	d := c.ray(nx, ny)
	if d.Z == 0 {
		return r3.Vec{}, false
	}
	t := -c.Position.Z / d.Z
	if t <= 0 {
		return r3.Vec{}, false
	}
	return r3.Add(c.Position, r3.Scale(t, d)), true
}

// PlaneMapping returns the centre and half extents of the z=0 region seen
// through the viewport, for the affine UV mapping used by the render
// surface. Exact when the camera looks straight at the plane. ok is false
// if the viewport corners do not hit the plane in front of the camera.
func (c *Camera) PlaneMapping() (center, halfExtent [2]float64, ok bool) {
	bl, ok1 := c.intersectPlane(-1, -1)
	tr, ok2 := c.intersectPlane(1, 1)
	if !ok1 || !ok2 {
		return center, halfExtent, false
	}
	center = [2]float64{(bl.X + tr.X) / 2, (bl.Y + tr.Y) / 2}
	halfExtent = [2]float64{(tr.X - bl.X) / 2, (tr.Y - bl.Y) / 2}
	return center, halfExtent, true
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera and its target by the given delta in screen pixels.
// A pixel corresponds to its size on the plane through the target.
func (c *Camera) Pan(dx, dy float64) {
	if c.ViewportH == 0 {
		return
	}
	_, s, u := c.basis()
	perPixel := 2 * c.Distance() * math.Tan(c.FovY*math.Pi/360) / c.ViewportH
	delta := r3.Add(r3.Scale(dx*perPixel, s), r3.Scale(-dy*perPixel, u))
	c.Position = r3.Add(c.Position, delta)
	c.Target = r3.Add(c.Target, delta)
}

// ZoomBy dollies toward the target, dividing the distance by factor.
// The resulting distance is clamped to [MinDistance, MaxDistance].
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	f, _, _ := c.basis()
	d := clamp(c.Distance()/factor, c.MinDistance, c.MaxDistance)
	c.Position = r3.Sub(c.Target, r3.Scale(d, f))
}

// Reset returns the camera to its configured placement.
func (c *Camera) Reset() {
	c.Position = c.home.position
	c.Target = c.home.target
	c.Up = c.home.up
}

// Placement returns the camera position and target as plain arrays.
func (c *Camera) Placement() (position, target [3]float64) {
	return [3]float64{c.Position.X, c.Position.Y, c.Position.Z},
		[3]float64{c.Target.X, c.Target.Y, c.Target.Z}
}

// SetPlacement moves the camera to position looking at target. The
// configured home placement used by Reset is unchanged.
func (c *Camera) SetPlacement(position, target [3]float64) {
	c.Position = vec(position)
	c.Target = vec(target)
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
