package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
)

// InspectorData holds the field sample shown by the inspector panel.
type InspectorData struct {
	U, V      float32
	Pos       field.Vec3
	Shift     field.Vec3
	Magnitude float32
	Radius    float32
	Profile   float32
	// Radius in units of the bubble scale, 0 when the scale is zero.
	RadiusScales float32
}

// Inspect evaluates the field at screen pixel (px, py) of a w×h viewport
// showing plane pl.
func Inspect(px, py, w, h int, pl field.Plane, p params.Set) InspectorData {
	u, v := field.PixelUV(px, py, w, h)
	pos := pl.Position(u, v)
	shift := field.Evaluate(pos, p)
	r := pos.Norm()

	d := InspectorData{
		U:         u,
		V:         v,
		Pos:       pos,
		Shift:     shift,
		Magnitude: shift.Norm(),
		Radius:    r,
		Profile:   field.Profile(r, p),
	}
	if s := p.Scale(); s != 0 {
		d.RadiusScales = r / s
	}
	return d
}

// Inspector renders the cursor sample panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Width returns the panel width.
func (ins *Inspector) Width() int32 {
	return ins.width
}

// Draw renders the inspector panel for the given sample.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	x := ins.x + padding
	height := padding*2 + r.Theme.LineHeight*11 + 4

	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := r.DrawSectionHeader(x, ins.y+padding, "Field Sample")
	y = r.DrawLabelValue(x, y, "UV", fmt.Sprintf("(%.4f, %.4f)", data.U, data.V))
	y = r.DrawLabelValue(x, y, "Position x", fmt.Sprintf("%.4g m", data.Pos.X))
	y = r.DrawLabelValue(x, y, "Position y", fmt.Sprintf("%.4g m", data.Pos.Y))
	y = r.DrawLabelValue(x, y, "Radius", fmt.Sprintf("%.4g m", data.Radius))
	y = r.DrawLabelValue(x, y, "r / scale", fmt.Sprintf("%.3f", data.RadiusScales))
	y = r.DrawLabelValue(x, y, "Profile", fmt.Sprintf("%.4g", data.Profile))
	y += 4
	y = r.DrawSectionHeader(x, y, "Shift")
	y = r.DrawLabelValue(x, y, "s.x", fmt.Sprintf("%.4g", data.Shift.X))
	y = r.DrawLabelValue(x, y, "s.y", fmt.Sprintf("%.4g", data.Shift.Y))
	y = r.DrawBar(x, y, "|s|", data.Magnitude, ins.width-padding*2)

	return y
}
