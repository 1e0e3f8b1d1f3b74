// Package probe samples the shift field on the CPU for offline analysis:
// radial profiles, peak location and reference images.
package probe

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
)

// ErrZeroField is returned when the parameters make the field vanish
// everywhere, so there is no peak to find.
var ErrZeroField = errors.New("field is zero everywhere")

// Sample is one point of a radial profile.
type Sample struct {
	R         float64 `csv:"r_m"`
	RScales   float64 `csv:"r_scales"`
	Magnitude float64 `csv:"magnitude"`
}

// RadialProfile samples the field magnitude at n evenly spaced radii from
// 0 to rMax along dir. A zero dir samples along +x.
func RadialProfile(p params.Set, dir field.Vec3, rMax float32, n int) []Sample {
	if n < 2 {
		n = 2
	}
	norm := dir.Norm()
	if norm == 0 {
		dir, norm = field.Vec3{X: 1}, 1
	}
	dir = dir.Scale(1 / norm)
	scale := float64(p.Scale())

	samples := make([]Sample, n)
	for i := range samples {
		r := rMax * float32(i) / float32(n-1)
		s := Sample{
			R:         float64(r),
			Magnitude: float64(field.Magnitude(dir.Scale(r), p)),
		}
		if scale != 0 {
			s.RScales = float64(r) / math.Abs(scale)
		}
		samples[i] = s
	}
	return samples
}

// Peak is the located maximum of the radial profile.
type Peak struct {
	R           float64 // radius of maximum magnitude, metres
	Magnitude   float64
	Expected    float64 // |scale|/√2, the analytic peak radius
	Evaluations int
}

// RelativeError returns |R - Expected| / Expected.
func (pk Peak) RelativeError() float64 {
	if pk.Expected == 0 {
		return 0
	}
	return math.Abs(pk.R-pk.Expected) / pk.Expected
}

// FindPeak locates the radius of maximum field magnitude with a
// Nelder-Mead search over r/scale, evaluating the same float32 field the
// renderer draws.
func FindPeak(p params.Set) (Peak, error) {
	scale := math.Abs(float64(p.Scale()))
	if scale == 0 || p.Amplitude() == 0 {
		return Peak{}, ErrZeroField
	}

	profile := func(q float64) float64 {
		return float64(field.Profile(float32(q*scale), p))
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Radius is non-negative; mirror the search space.
			return -profile(math.Abs(x[0]))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: 5000,
	}
	method := &optimize.NelderMead{SimplexSize: 0.25}

	result, err := optimize.Minimize(problem, []float64{1}, settings, method)
	if err != nil {
		return Peak{}, fmt.Errorf("peak search: %w", err)
	}

	q := math.Abs(result.X[0])
	return Peak{
		R:           q * scale,
		Magnitude:   profile(q),
		Expected:    scale / math.Sqrt2,
		Evaluations: result.Stats.FuncEvaluations,
	}, nil
}

// RenderImage shades a w×h image of plane pl on the CPU, pixel for pixel
// as the fragment shader does. Row 0 is the top of the image.
func RenderImage(p params.Set, pl field.Plane, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < h; y++ {
		g.Go(func() error {
			for x := 0; x < w; x++ {
				u, v := field.PixelUV(x, y, w, h)
				c := field.Shade(u, v, pl, p)
				img.SetRGBA(x, y, color.RGBA{
					R: toByte(c[0]),
					G: toByte(c[1]),
					B: toByte(c[2]),
					A: toByte(c[3]),
				})
			}
			return nil
		})
	}
	_ = g.Wait()
	return img
}

// PlaneMagnitudes samples the field magnitude at every pixel of a w×h
// grid over plane pl, row-major from the top.
func PlaneMagnitudes(p params.Set, pl field.Plane, w, h int) []float64 {
	out := make([]float64, w*h)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < h; y++ {
		g.Go(func() error {
			row := out[y*w : (y+1)*w]
			for x := range row {
				u, v := field.PixelUV(x, y, w, h)
				row[x] = float64(field.Magnitude(pl.Position(u, v), p))
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// toByte quantizes a [0,1] channel the way an 8-bit framebuffer does.
func toByte(c float32) uint8 {
	return uint8(math.Round(float64(c) * 255))
}

// Diff summarizes the per-channel difference between two images.
type Diff struct {
	MaxDelta  uint8 // largest absolute channel difference
	Pixels    int   // pixels with any channel differing by more than the tolerance
	Tolerance uint8
}

// Compare reports how far b deviates from a. The images must be the same
// size.
func Compare(a, b *image.RGBA, tolerance uint8) (Diff, error) {
	if a.Bounds().Size() != b.Bounds().Size() {
		return Diff{}, fmt.Errorf("image sizes differ: %v vs %v", a.Bounds().Size(), b.Bounds().Size())
	}
	d := Diff{Tolerance: tolerance}
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ca := a.RGBAAt(ab.Min.X+x, ab.Min.Y+y)
			cb := b.RGBAAt(bb.Min.X+x, bb.Min.Y+y)
			worst := maxDelta(ca, cb)
			if worst > d.MaxDelta {
				d.MaxDelta = worst
			}
			if worst > tolerance {
				d.Pixels++
			}
		}
	}
	return d, nil
}

func maxDelta(a, b color.RGBA) uint8 {
	m := absDiff(a.R, b.R)
	m = max(m, absDiff(a.G, b.G))
	m = max(m, absDiff(a.B, b.B))
	return max(m, absDiff(a.A, b.A))
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
