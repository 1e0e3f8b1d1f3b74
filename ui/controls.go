package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/params"
)

// Updater receives complete parameter records. *params.Store implements it.
type Updater interface {
	Update(p params.Set)
}

// Panel renders one slider per parameter. Any slider change pushes the
// whole edited record through the updater.
type Panel struct {
	renderer *Renderer
	sliders  [params.NumFields]SliderSpec
	defaults params.Set
	updater  Updater
	x, y     int32
	width    int32
}

// NewPanel creates a slider panel. The reset button restores defaults.
func NewPanel(x, y, width int32, defaults params.Set, u Updater) *Panel {
	return &Panel{
		renderer: NewRenderer(),
		sliders:  DefaultSliders(),
		defaults: defaults,
		updater:  u,
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *Panel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Width returns the panel width.
func (p *Panel) Width() int32 {
	return p.width
}

// Height returns the panel height for the current theme.
func (p *Panel) Height() int32 {
	t := p.renderer.Theme
	return t.Padding*2 + t.LineHeight + int32(params.NumFields)*(t.LineHeight+sliderHeight+6) + buttonHeight + t.Padding
}

const (
	sliderHeight = 16
	buttonHeight = 24
	readoutWidth = 70
)

// Apply returns current with slider index moved to pos, and whether the
// value changed.
func (p *Panel) Apply(current params.Set, index int, pos float32) (params.Set, bool) {
	if index < 0 || index >= params.NumFields {
		return current, false
	}
	arr := current.Array()
	v := p.sliders[index].Value(pos)
	if v == arr[index] {
		return current, false
	}
	arr[index] = v
	return params.FromArray(arr), true
}

// Draw renders the sliders for current and pushes an update if the user
// moved one or pressed reset. It reports whether an update was pushed.
func (p *Panel) Draw(current params.Set) bool {
	r := p.renderer
	t := r.Theme
	r.DrawPanel(p.x, p.y, p.width, p.Height())

	x := p.x + t.Padding
	y := r.DrawSectionHeader(x, p.y+t.Padding, "Parameters")
	sliderW := float32(p.width - t.Padding*2 - readoutWidth)

	values := current.Array()
	next := current
	changed := false
	for i, s := range p.sliders {
		rl.DrawText(s.Label, x, y, t.FontSize, t.LabelColor)
		y += t.LineHeight

		lo, hi := s.Bounds()
		pos := s.Position(values[i])
		newPos := gui.SliderBar(
			rl.Rectangle{X: float32(x), Y: float32(y), Width: sliderW, Height: sliderHeight},
			"", "",
			pos, lo, hi,
		)
		rl.DrawText(fmt.Sprintf(s.Format, values[i]), x+int32(sliderW)+6, y+2, t.FontSize, t.ValueColor)
		if newPos != pos {
			if set, ok := p.Apply(next, i, newPos); ok {
				next = set
				changed = true
			}
		}
		y += sliderHeight + 6
	}

	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: 120, Height: buttonHeight}, "Reset") {
		next = p.defaults
		changed = true
	}

	if changed {
		p.updater.Update(next)
	}
	return changed
}
