package ui

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	FPS       int32
	Frame     uint64
	Version   uint64
	Params    params.Set
	PlaneMode string
	Plane     field.Plane

	// Cursor sample, valid only when CursorOK is set.
	CursorOK  bool
	CursorPos field.Vec3
	CursorMag float32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Lines returns the HUD text, one entry per line.
func (h *HUD) Lines(data HUDData) []string {
	p := data.Params
	lines := []string{
		fmt.Sprintf("FPS: %d | Frame: %d | Params v%d", data.FPS, data.Frame, data.Version),
		fmt.Sprintf("Plane: %s  centre (%.3g, %.3g) m  half-extent (%.3g, %.3g) m",
			data.PlaneMode, data.Plane.Center[0], data.Plane.Center[1], data.Plane.HalfExtent[0], data.Plane.HalfExtent[1]),
		fmt.Sprintf("Scale: %.3g m | Amplitude: %.4g | Peak r: %.3g m",
			p.Scale(), p.Amplitude(), p.Scale()/math32.Sqrt(2)),
	}
	for i, name := range params.FieldNames {
		lines = append(lines, fmt.Sprintf("  %-22s %.6g", name, p.Array()[i]))
	}
	if data.CursorOK {
		lines = append(lines, fmt.Sprintf("Cursor: (%.3g, %.3g) m  |s| = %.4g",
			data.CursorPos.X, data.CursorPos.Y, data.CursorMag))
	}
	return lines
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	h.renderer.DrawLines(10, 35, h.Lines(data), rl.LightGray)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase frame timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  p95: %s  max: %s",
		stats.AvgFrame.Round(time.Microsecond), stats.P95Frame.Round(time.Microsecond), stats.MaxFrame.Round(time.Microsecond)),
		x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-8s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// PlaneToScreen maps a point on the sampled plane to pixel coordinates in
// a w×h viewport (y down).
func PlaneToScreen(pl field.Plane, pos field.Vec3, w, h int32) (sx, sy float32) {
	u, v := pl.UV(pos)
	return u * float32(w), (1 - v) * float32(h)
}

// RingPoints returns n screen points on the circle of the given radius
// around the plane origin.
func RingPoints(pl field.Plane, radius float32, n int, w, h int32) []rl.Vector2 {
	pts := make([]rl.Vector2, 0, n+1)
	for i := 0; i <= n; i++ {
		a := 2 * math32.Pi * float32(i) / float32(n)
		x, y := PlaneToScreen(pl, field.Vec3{X: radius * math32.Cos(a), Y: radius * math32.Sin(a)}, w, h)
		pts = append(pts, rl.Vector2{X: x, Y: y})
	}
	return pts
}

// PeakRadius returns the radius of maximum field magnitude, |scale|/√2,
// or 0 when the scale is too small for the field to exist.
func PeakRadius(p params.Set) float32 {
	scale := math32.Abs(p.Scale())
	if scale < field.MinScale {
		return 0
	}
	return scale / math32.Sqrt(2)
}

// DrawPeakRing outlines the radius where the shift magnitude peaks.
func DrawPeakRing(pl field.Plane, p params.Set, w, h int32) {
	r := PeakRadius(p)
	if r <= 0 {
		return
	}
	pts := RingPoints(pl, r, 96, w, h)
	color := DefaultTheme().Accent
	for i := 1; i < len(pts); i++ {
		rl.DrawLineV(pts[i-1], pts[i], color)
	}
}
