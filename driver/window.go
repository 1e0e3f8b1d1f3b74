// Package driver runs the per-frame render sequence.
//
// The driver owns no GPU state of its own. It talks to the window and the
// render surface through small interfaces so the frame ordering can be
// exercised without a display.
package driver

import (
	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/telemetry"
)

// Input is the user input observed at the start of a frame.
type Input struct {
	Pressed        map[int32]bool // keys pressed this frame, among those requested
	PanX, PanY     float32        // arrow-key direction, each in {-1, 0, 1}
	Wheel          float32        // mouse wheel notches
	MouseX, MouseY float32
	DragX, DragY   float32 // mouse movement while the pan button is held
}

// KeyPressed reports whether key was pressed this frame.
func (in Input) KeyPressed(key int32) bool {
	return in.Pressed[key]
}

// Window is the platform window the driver renders into.
type Window interface {
	ShouldClose() bool
	Size() (width, height int32)
	// Input returns this frame's input, checking only the given keys.
	Input(keys []int32) Input
	BeginFrame()
	Clear()
	// EndFrame presents the frame and polls platform events.
	EndFrame()
	FPS() int32
}

// Surface is the full-screen field quad.
type Surface interface {
	Refresh(p params.Set)
	SetPlane(pl field.Plane)
	Resize(width, height int32)
	Draw()
}

// FrameInfo is what overlays see of the current frame. Params is the same
// snapshot the surface was refreshed with.
type FrameInfo struct {
	Frame     uint64
	Version   uint64
	Params    params.Set
	Plane     field.Plane
	PlaneMode string
	Width     int32
	Height    int32
	FPS       int32
	MouseX    float32
	MouseY    float32
	Stats     telemetry.PerfStats
}

// Overlay draws on top of the field quad.
type Overlay interface {
	// Keys lists the keys the overlay wants reported in Input.
	Keys() []int32
	HandleInput(in Input)
	Draw(info FrameInfo)
}
