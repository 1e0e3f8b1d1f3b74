package driver

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/camera"
	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/telemetry"
)

// State is the driver's position in the frame cycle.
type State int32

const (
	Idle State = iota
	Rendering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Driver keys.
const (
	KeyReset     = rl.KeyR
	KeyPlaneMode = rl.KeyM
	KeySnapshot  = rl.KeyS
)

// panPixels is how far one frame of arrow-key panning moves the view.
const panPixels = 8

// Options configures optional driver behaviour.
type Options struct {
	MaxFrames uint64 // stop after this many frames (0 = unlimited)
	LogStats  bool   // log perf stats every telemetry interval
	Output    *telemetry.OutputManager
	Overlays  []Overlay

	// SnapshotDir receives view snapshots saved with KeySnapshot.
	// Empty disables the key.
	SnapshotDir string
}

// Driver runs the frame sequence against a window and a render surface.
type Driver struct {
	win     Window
	surface Surface
	store   *params.Store
	cam     *camera.Camera
	cfg     *config.Config
	opts    Options

	state atomic.Int32
	stop  atomic.Bool

	width, height int32
	planeMode     string
	plane         field.Plane
	refPlane      field.Plane // plane sampled in reference mode
	keys          []int32
	mouseX        float32
	mouseY        float32

	frame           uint64
	lastVersion     uint64
	seenVersion     bool
	pendingSnapshot bool

	perf    *telemetry.PerfCollector
	marks   *telemetry.BookmarkDetector
	lastLog time.Time
	now     func() time.Time
}

// New creates a driver. The surface must already be initialised; the
// driver never creates or regenerates GPU resources.
func New(win Window, surface Surface, store *params.Store, cam *camera.Camera, cfg *config.Config, opts Options) *Driver {
	d := &Driver{
		win:       win,
		surface:   surface,
		store:     store,
		cam:       cam,
		cfg:       cfg,
		opts:      opts,
		planeMode: cfg.Render.PlaneMode,
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		marks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		now:       time.Now,
	}
	d.lastLog = d.now()
	d.width, d.height = win.Size()
	d.refPlane = d.referencePlane()
	d.plane = d.refPlane

	d.keys = []int32{KeyReset, KeyPlaneMode, KeySnapshot}
	for _, o := range opts.Overlays {
		d.keys = append(d.keys, o.Keys()...)
	}
	return d
}

// State returns the current frame-cycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Frames returns the number of completed frames.
func (d *Driver) Frames() uint64 {
	return d.frame
}

// Plane returns the plane region the surface is currently sampling.
func (d *Driver) Plane() field.Plane {
	return d.plane
}

// PlaneMode returns the active plane mode.
func (d *Driver) PlaneMode() string {
	return d.planeMode
}

// Perf returns the frame timing collector.
func (d *Driver) Perf() *telemetry.PerfCollector {
	return d.perf
}

// Restore applies a saved snapshot: its parameters go through the store
// like any other update, and the camera, plane mode and sampled plane are
// set directly. In reference mode the saved plane replaces the configured
// one until the next Restore. Call it from the render goroutine, before Run
// or between frames.
func (d *Driver) Restore(snap *telemetry.Snapshot) {
	d.store.Update(snap.Params)
	d.cam.SetPlacement(snap.CameraPosition, snap.CameraTarget)
	switch snap.PlaneMode {
	case config.PlaneModeCamera, config.PlaneModeReference:
		d.planeMode = snap.PlaneMode
	}
	saved := field.Plane{Center: snap.PlaneCenter, HalfExtent: snap.PlaneHalfExtent}
	if saved.HalfExtent[0] > 0 && saved.HalfExtent[1] > 0 {
		d.plane = saved
		if d.planeMode == config.PlaneModeReference {
			d.refPlane = saved
		}
	}
	slog.Info("snapshot restored", "frame", snap.Frame, "params_version", snap.ParamsVersion, "plane_mode", d.planeMode)
}

// Stop asks Run to return before the next frame. Safe to call from any
// goroutine; a frame in progress always completes.
func (d *Driver) Stop() {
	d.stop.Store(true)
}

// Run renders frames until the window closes, ctx is cancelled, Stop is
// called, or the frame limit is reached.
func (d *Driver) Run(ctx context.Context) error {
	for {
		switch {
		case d.stop.Load():
			slog.Info("render loop stopped")
			return nil
		case ctx.Err() != nil:
			slog.Info("render loop cancelled")
			return nil
		case d.win.ShouldClose():
			slog.Info("window closed")
			return nil
		}

		d.Frame()

		if d.opts.MaxFrames > 0 && d.frame >= d.opts.MaxFrames {
			slog.Info("max frames reached", "frames", d.frame)
			return nil
		}
	}
}

// Frame runs one complete frame: input, resize, clear, parameter sync,
// field draw, overlays, present.
func (d *Driver) Frame() {
	d.state.Store(int32(Rendering))
	defer d.state.Store(int32(Idle))

	d.perf.StartFrame()

	d.perf.StartPhase(telemetry.PhaseEvents)
	in := d.win.Input(d.keys)
	d.handleInput(in)

	d.perf.StartPhase(telemetry.PhaseResize)
	d.handleResize()

	d.perf.StartPhase(telemetry.PhaseClear)
	d.win.BeginFrame()
	d.win.Clear()

	// One snapshot per frame feeds the uniform block and every overlay.
	d.perf.StartPhase(telemetry.PhaseSync)
	set, version := d.store.Snapshot()
	d.surface.Refresh(set)
	d.updatePlane()
	d.surface.SetPlane(d.plane)
	d.recordParams(set, version)
	if d.pendingSnapshot {
		d.pendingSnapshot = false
		d.saveSnapshot(set, version)
	}

	d.perf.StartPhase(telemetry.PhaseDraw)
	d.surface.Draw()

	d.perf.StartPhase(telemetry.PhaseOverlay)
	if len(d.opts.Overlays) > 0 {
		info := FrameInfo{
			Frame:     d.frame,
			Version:   version,
			Params:    set,
			Plane:     d.plane,
			PlaneMode: d.planeMode,
			Width:     d.width,
			Height:    d.height,
			FPS:       d.win.FPS(),
			MouseX:    d.mouseX,
			MouseY:    d.mouseY,
			Stats:     d.perf.Stats(),
		}
		for _, o := range d.opts.Overlays {
			o.Draw(info)
		}
	}

	d.perf.StartPhase(telemetry.PhasePresent)
	d.win.EndFrame()

	d.perf.EndFrame()
	d.frame++
	d.maybeLogStats()
}

func (d *Driver) handleInput(in Input) {
	d.mouseX, d.mouseY = in.MouseX, in.MouseY

	if in.KeyPressed(KeyPlaneMode) {
		if d.planeMode == config.PlaneModeCamera {
			d.planeMode = config.PlaneModeReference
		} else {
			d.planeMode = config.PlaneModeCamera
		}
		slog.Info("plane mode changed", "mode", d.planeMode)
	}
	if in.KeyPressed(KeyReset) {
		d.cam.Reset()
	}
	if in.KeyPressed(KeySnapshot) && d.opts.SnapshotDir != "" {
		d.pendingSnapshot = true
	}

	if in.Wheel != 0 {
		d.cam.ZoomBy(math.Pow(d.cfg.Camera.ZoomStep, float64(in.Wheel)))
	}
	if in.PanX != 0 || in.PanY != 0 {
		d.cam.Pan(float64(in.PanX)*panPixels, float64(in.PanY)*panPixels)
	}
	// Dragging moves the content with the cursor, so the camera goes the other way.
	if in.DragX != 0 || in.DragY != 0 {
		d.cam.Pan(-float64(in.DragX), -float64(in.DragY))
	}

	for _, o := range d.opts.Overlays {
		o.HandleInput(in)
	}
}

func (d *Driver) handleResize() {
	w, h := d.win.Size()
	if w == d.width && h == d.height {
		return
	}
	d.width, d.height = w, h
	d.surface.Resize(w, h)
	d.cam.Resize(float64(w), float64(h))
	slog.Debug("viewport resized", "width", w, "height", h)
}

func (d *Driver) referencePlane() field.Plane {
	r := d.cfg.Render
	return field.Plane{
		Center:     [2]float32{float32(r.PlaneCenter[0]), float32(r.PlaneCenter[1])},
		HalfExtent: [2]float32{float32(r.PlaneHalfExtent[0]), float32(r.PlaneHalfExtent[1])},
	}
}

// updatePlane recomputes the sampled plane. In camera mode a view that
// does not hit the plane keeps the previous mapping.
func (d *Driver) updatePlane() {
	if d.planeMode != config.PlaneModeCamera {
		d.plane = d.refPlane
		return
	}
	center, half, ok := d.cam.PlaneMapping()
	if !ok {
		return
	}
	d.plane = field.Plane{
		Center:     [2]float32{float32(center[0]), float32(center[1])},
		HalfExtent: [2]float32{float32(half[0]), float32(half[1])},
	}
}

func (d *Driver) recordParams(set params.Set, version uint64) {
	if d.seenVersion && version == d.lastVersion {
		return
	}
	d.seenVersion = true
	d.lastVersion = version
	slog.Debug("parameters applied", "frame", d.frame, "version", version)
	if err := d.opts.Output.WriteParams(d.frame, version, set); err != nil {
		slog.Warn("failed to write params", "error", err)
	}
	d.bookmark(d.marks.CheckParams(d.frame, set))
}

func (d *Driver) bookmark(bookmarks []telemetry.Bookmark) {
	for _, b := range bookmarks {
		b.LogBookmark()
	}
	if err := d.opts.Output.WriteBookmarks(bookmarks); err != nil {
		slog.Warn("failed to write bookmarks", "error", err)
	}
}

// saveSnapshot writes the view exactly as this frame renders it.
func (d *Driver) saveSnapshot(set params.Set, version uint64) {
	pos, target := d.cam.Placement()
	snap := &telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		Frame:           d.frame,
		ParamsVersion:   version,
		Params:          set,
		PlaneMode:       d.planeMode,
		PlaneCenter:     d.plane.Center,
		PlaneHalfExtent: d.plane.HalfExtent,
		CameraPosition:  pos,
		CameraTarget:    target,
	}
	path, err := telemetry.SaveSnapshot(snap, d.opts.SnapshotDir)
	if err != nil {
		slog.Warn("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path)
}

func (d *Driver) maybeLogStats() {
	interval := d.cfg.Derived.LogInterval
	if interval <= 0 || d.now().Sub(d.lastLog) < interval {
		return
	}
	d.lastLog = d.now()

	stats := d.perf.Stats()
	if d.opts.LogStats {
		stats.LogStats()
	}
	if err := d.opts.Output.WritePerf(stats, d.frame); err != nil {
		slog.Warn("failed to write perf", "error", err)
	}
	d.bookmark(d.marks.CheckPerf(d.frame, stats))
}
