package driver

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/ui"
)

// driverBindings are the keys the driver handles itself.
var driverBindings = []ui.KeyBinding{
	{Key: "Wheel", Action: "zoom"},
	{Key: "Arrows/RMB", Action: "pan"},
	{Key: "R", Action: "reset"},
	{Key: "M", Action: "plane mode"},
	{Key: "S", Action: "snapshot"},
}

// UILayer draws the HUD, panels and debug overlays listed in its registry.
type UILayer struct {
	title     string
	legend    string
	overlays  *ui.OverlayRegistry
	hud       *ui.HUD
	panel     *ui.Panel
	inspector *ui.Inspector
	perf      *ui.PerfPanel
}

// NewUILayer creates the overlay layer. Slider edits go to u.
func NewUILayer(cfg *config.Config, defaults params.Set, u ui.Updater) *UILayer {
	reg := ui.NewOverlayRegistry()
	reg.SetEnabled(ui.OverlayHUD, cfg.Render.ShowHUD)
	reg.SetEnabled(ui.OverlayPanel, cfg.Render.ShowPanel)

	return &UILayer{
		title:     cfg.Screen.Title,
		legend:    reg.Legend(driverBindings...),
		overlays:  reg,
		hud:       ui.NewHUD(),
		panel:     ui.NewPanel(0, 10, 300, defaults, u),
		inspector: ui.NewInspector(0, 10, 260),
		perf:      ui.NewPerfPanel(10, 0),
	}
}

// Overlays returns the registry controlling which layers are drawn.
func (l *UILayer) Overlays() *ui.OverlayRegistry {
	return l.overlays
}

func (l *UILayer) Keys() []int32 {
	return l.overlays.Keys()
}

func (l *UILayer) HandleInput(in Input) {
	for _, key := range l.overlays.Keys() {
		if !in.KeyPressed(key) {
			continue
		}
		if id, on, ok := l.overlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
}

func (l *UILayer) Draw(info FrameInfo) {
	if l.overlays.IsEnabled(ui.OverlayPeakRing) {
		ui.DrawPeakRing(info.Plane, info.Params, info.Width, info.Height)
	}

	if l.overlays.IsEnabled(ui.OverlayHUD) {
		l.hud.Draw(l.hudData(info))
		l.hud.DrawControls(info.Height, "[F1] keys")
	}

	if l.overlays.IsEnabled(ui.OverlayPerf) {
		l.perf.SetPosition(10, info.Height-150)
		l.perf.Draw(info.Stats)
	}

	if l.overlays.IsEnabled(ui.OverlayPanel) {
		l.panel.SetPosition(info.Width-l.panel.Width()-10, 10)
		l.panel.Draw(info.Params)
	}

	if l.overlays.IsEnabled(ui.OverlayInspector) {
		if px, py, ok := cursorPixel(info); ok {
			l.inspector.SetPosition(info.Width-l.inspector.Width()-10, 10)
			l.inspector.Draw(ui.Inspect(px, py, int(info.Width), int(info.Height), info.Plane, info.Params))
		}
	}

	if l.overlays.IsEnabled(ui.OverlayHelp) {
		rl.DrawText(l.legend, 10, info.Height-45, 12, rl.RayWhite)
	}
}

func (l *UILayer) hudData(info FrameInfo) ui.HUDData {
	data := ui.HUDData{
		Title:     l.title,
		FPS:       info.FPS,
		Frame:     info.Frame,
		Version:   info.Version,
		Params:    info.Params,
		PlaneMode: info.PlaneMode,
		Plane:     info.Plane,
	}
	if px, py, ok := cursorPixel(info); ok {
		u, v := field.PixelUV(px, py, int(info.Width), int(info.Height))
		data.CursorOK = true
		data.CursorPos = info.Plane.Position(u, v)
		data.CursorMag = field.Magnitude(data.CursorPos, info.Params)
	}
	return data
}

// cursorPixel returns the pixel under the mouse, if it is inside the viewport.
func cursorPixel(info FrameInfo) (int, int, bool) {
	px, py := int(info.MouseX), int(info.MouseY)
	if info.MouseX < 0 || info.MouseY < 0 || px >= int(info.Width) || py >= int(info.Height) {
		return 0, 0, false
	}
	return px, py, true
}
