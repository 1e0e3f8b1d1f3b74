// Package ui provides a descriptor-driven UI layer for the visualizer.
// Sliders and overlays are defined through metadata so the panel layout
// follows the parameter record instead of hard-coding each control.
package ui

import (
	"github.com/chewxy/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/params"
)

// SliderScale selects how slider position maps to a parameter value.
type SliderScale int

const (
	ScaleLinear SliderScale = iota
	ScaleLog                // position is log10 of the value; Min must be > 0
)

// SliderSpec describes one parameter slider.
type SliderSpec struct {
	Index  int    // position in params.FieldNames
	Label  string // display label
	Format string // printf format for the value readout
	Min    float32
	Max    float32
	Scale  SliderScale
}

// DefaultSliders returns one slider per parameter, in block order.
func DefaultSliders() [params.NumFields]SliderSpec {
	return [params.NumFields]SliderSpec{
		{Index: 0, Label: "Duty cycle", Format: "%.3f", Min: 0, Max: 1},
		{Index: 1, Label: "Geometric amplification", Format: "%.1f", Min: 0, Max: 100},
		{Index: 2, Label: "Cavity Q", Format: "%.3g", Min: 1e3, Max: 1e12, Scale: ScaleLog},
		{Index: 3, Label: "Sag depth (nm)", Format: "%.2f", Min: 0.1, Max: 100},
		{Index: 4, Label: "Time-scale ratio", Format: "%.1f", Min: 1, Max: 1e5, Scale: ScaleLog},
		{Index: 5, Label: "Average power (MW)", Format: "%.1f", Min: 0, Max: 500},
		{Index: 6, Label: "Exotic mass (kg)", Format: "%.0f", Min: 1, Max: 1e5, Scale: ScaleLog},
	}
}

// Position converts a parameter value to the slider's own coordinate.
// Values outside the range are clamped.
func (s SliderSpec) Position(value float32) float32 {
	value = clamp(value, s.Min, s.Max)
	if s.Scale == ScaleLog {
		return math32.Log10(value)
	}
	return value
}

// Value converts a slider coordinate back to a parameter value.
func (s SliderSpec) Value(pos float32) float32 {
	lo, hi := s.Bounds()
	pos = clamp(pos, lo, hi)
	if s.Scale == ScaleLog {
		return clamp(math32.Pow(10, pos), s.Min, s.Max)
	}
	return pos
}

// Bounds returns the slider's coordinate range.
func (s SliderSpec) Bounds() (lo, hi float32) {
	if s.Scale == ScaleLog {
		return math32.Log10(s.Min), math32.Log10(s.Max)
	}
	return s.Min, s.Max
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	Accent         rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		Accent:         rl.Color{R: 255, G: 160, B: 60, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     110,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
