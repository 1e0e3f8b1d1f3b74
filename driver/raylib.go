package driver

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// RaylibWindow adapts the raylib window to Window. The window must already
// be open (rl.InitWindow) on the calling OS thread.
type RaylibWindow struct {
	Background rl.Color
}

// NewRaylibWindow returns an adapter for the current raylib window.
func NewRaylibWindow() *RaylibWindow {
	return &RaylibWindow{Background: rl.Black}
}

func (w *RaylibWindow) ShouldClose() bool {
	return rl.WindowShouldClose()
}

func (w *RaylibWindow) Size() (int32, int32) {
	return int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
}

func (w *RaylibWindow) Input(keys []int32) Input {
	in := Input{
		Pressed: make(map[int32]bool, len(keys)),
		Wheel:   rl.GetMouseWheelMove(),
	}
	for _, k := range keys {
		if rl.IsKeyPressed(k) {
			in.Pressed[k] = true
		}
	}

	if rl.IsKeyDown(rl.KeyRight) {
		in.PanX++
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		in.PanX--
	}
	if rl.IsKeyDown(rl.KeyDown) {
		in.PanY++
	}
	if rl.IsKeyDown(rl.KeyUp) {
		in.PanY--
	}

	mouse := rl.GetMousePosition()
	in.MouseX, in.MouseY = mouse.X, mouse.Y
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		in.DragX, in.DragY = delta.X, delta.Y
	}
	return in
}

func (w *RaylibWindow) BeginFrame() {
	rl.BeginDrawing()
}

func (w *RaylibWindow) Clear() {
	rl.ClearBackground(w.Background)
}

func (w *RaylibWindow) EndFrame() {
	rl.EndDrawing()
}

func (w *RaylibWindow) FPS() int32 {
	return rl.GetFPS()
}
