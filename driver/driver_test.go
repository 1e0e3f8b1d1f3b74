package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/warpviz/camera"
	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/telemetry"
)

// callLog records the order of window and surface calls.
type callLog struct {
	calls []string
}

func (l *callLog) add(name string) { l.calls = append(l.calls, name) }

type fakeWindow struct {
	log        *callLog
	w, h       int32
	closeAfter int // ShouldClose turns true after this many EndFrame calls (0 = never)
	frames     int
	input      func(frame int) Input
}

func (f *fakeWindow) ShouldClose() bool {
	return f.closeAfter > 0 && f.frames >= f.closeAfter
}

func (f *fakeWindow) Size() (int32, int32) { return f.w, f.h }

func (f *fakeWindow) Input(keys []int32) Input {
	f.log.add("input")
	if f.input != nil {
		return f.input(f.frames)
	}
	return Input{}
}

func (f *fakeWindow) BeginFrame() { f.log.add("begin") }
func (f *fakeWindow) Clear()      { f.log.add("clear") }
func (f *fakeWindow) EndFrame() {
	f.log.add("end")
	f.frames++
}
func (f *fakeWindow) FPS() int32 { return 60 }

type fakeSurface struct {
	log       *callLog
	refreshed []params.Set
	planes    []field.Plane
	resizes   [][2]int32
}

func (f *fakeSurface) Refresh(p params.Set) {
	f.log.add("refresh")
	f.refreshed = append(f.refreshed, p)
}

func (f *fakeSurface) SetPlane(pl field.Plane) {
	f.log.add("plane")
	f.planes = append(f.planes, pl)
}

func (f *fakeSurface) Resize(w, h int32) {
	f.log.add("resize")
	f.resizes = append(f.resizes, [2]int32{w, h})
}

func (f *fakeSurface) Draw() { f.log.add("draw") }

type fakeOverlay struct {
	log    *callLog
	infos  []FrameInfo
	onDraw func(info FrameInfo)
}

func (f *fakeOverlay) Keys() []int32        { return nil }
func (f *fakeOverlay) HandleInput(in Input) {}
func (f *fakeOverlay) Draw(info FrameInfo) {
	f.log.add("overlay")
	f.infos = append(f.infos, info)
	if f.onDraw != nil {
		f.onDraw(info)
	}
}

type rig struct {
	log     *callLog
	win     *fakeWindow
	surface *fakeSurface
	overlay *fakeOverlay
	store   *params.Store
	cam     *camera.Camera
	cfg     *config.Config
}

func newRig(t *testing.T) *rig {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	log := &callLog{}
	r := &rig{
		log:     log,
		win:     &fakeWindow{log: log, w: 800, h: 600},
		surface: &fakeSurface{log: log},
		overlay: &fakeOverlay{log: log},
		store:   params.NewStore(params.FromConfig(cfg.Params)),
		cfg:     cfg,
	}
	r.cam = camera.New(cfg.Camera, 800, 600)
	return r
}

func (r *rig) driver(opts Options) *Driver {
	opts.Overlays = append(opts.Overlays, r.overlay)
	return New(r.win, r.surface, r.store, r.cam, r.cfg, opts)
}

func TestFrameSequence(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	d.Frame()

	assert.Equal(t, []string{"input", "begin", "clear", "refresh", "plane", "draw", "overlay", "end"}, r.log.calls)
	assert.Equal(t, uint64(1), d.Frames())
	assert.Equal(t, Idle, d.State())
}

func TestStateDuringFrame(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	var during State
	r.overlay.onDraw = func(FrameInfo) { during = d.State() }
	d.Frame()

	assert.Equal(t, Rendering, during)
	assert.Equal(t, Idle, d.State())
}

func TestRefreshSeesLatestSnapshot(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	d.Frame()
	next := params.Set{DutyCycle: 0.5, GeometricAmplification: 2, SagDepthNM: 8}
	r.store.Update(next)
	d.Frame()

	require.Len(t, r.surface.refreshed, 2)
	assert.Equal(t, next, r.surface.refreshed[1])

	// Overlays see the exact snapshot the surface was refreshed with.
	require.Len(t, r.overlay.infos, 2)
	assert.Equal(t, next, r.overlay.infos[1].Params)
	assert.Equal(t, uint64(1), r.overlay.infos[1].Version)
}

func TestResizePropagates(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	d.Frame()
	assert.Empty(t, r.surface.resizes)

	r.win.w, r.win.h = 1024, 768
	d.Frame()
	d.Frame()

	assert.Equal(t, [][2]int32{{1024, 768}}, r.surface.resizes)
	assert.Equal(t, 1024.0, r.cam.ViewportW)
	assert.Equal(t, 768.0, r.cam.ViewportH)

	// Resize happens after input and before the frame is begun.
	calls := r.log.calls
	idx := indexOf(calls, "resize")
	require.Positive(t, idx)
	assert.Equal(t, "input", calls[idx-1])
	assert.Equal(t, "begin", calls[idx+1])
}

func indexOf(calls []string, name string) int {
	for i, c := range calls {
		if c == name {
			return i
		}
	}
	return -1
}

func TestRunStopsOnStopFlag(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	// Stop requested mid-frame: that frame completes, no further frame starts.
	r.overlay.onDraw = func(info FrameInfo) {
		if info.Frame == 2 {
			d.Stop()
		}
	}
	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, uint64(3), d.Frames())
	assert.Equal(t, "end", r.log.calls[len(r.log.calls)-1])
}

func TestRunStopsOnContext(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.Zero(t, d.Frames())
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	r := newRig(t)
	r.win.closeAfter = 4
	d := r.driver(Options{})

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, uint64(4), d.Frames())
}

func TestRunMaxFrames(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{MaxFrames: 7})

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, uint64(7), d.Frames())
	assert.Len(t, r.surface.refreshed, 7, "no frame skipping")
}

func TestPlaneModeToggle(t *testing.T) {
	r := newRig(t)
	r.win.input = func(frame int) Input {
		if frame == 1 || frame == 2 {
			return Input{Pressed: map[int32]bool{KeyPlaneMode: true}}
		}
		return Input{}
	}
	d := r.driver(Options{})

	d.Frame()
	assert.Equal(t, config.PlaneModeReference, d.PlaneMode())
	assert.Equal(t, field.ReferencePlane, r.surface.planes[0])

	d.Frame()
	assert.Equal(t, config.PlaneModeCamera, d.PlaneMode())
	center, half, ok := r.cam.PlaneMapping()
	require.True(t, ok)
	assert.InDelta(t, center[0], r.surface.planes[1].Center[0], 1e-15)
	assert.InEpsilon(t, half[1], r.surface.planes[1].HalfExtent[1], 1e-6)

	d.Frame()
	assert.Equal(t, config.PlaneModeReference, d.PlaneMode())
	assert.Equal(t, field.ReferencePlane, r.surface.planes[2])
}

func TestCameraInput(t *testing.T) {
	r := newRig(t)
	r.win.input = func(frame int) Input {
		switch frame {
		case 0:
			return Input{Wheel: 1}
		case 1:
			return Input{Pressed: map[int32]bool{KeyReset: true}}
		}
		return Input{}
	}
	d := r.driver(Options{})

	before := r.cam.Distance()
	d.Frame()
	assert.InEpsilon(t, before/r.cfg.Camera.ZoomStep, r.cam.Distance(), 1e-9)

	d.Frame()
	assert.InEpsilon(t, before, r.cam.Distance(), 1e-9)
}

func TestSnapshotNeverTorn(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{MaxFrames: 300})
	r.store.Update(params.Set{})

	// Writers publish records whose fields all share one value.
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed float32) {
			defer wg.Done()
			for k := float32(0); ctx.Err() == nil; k++ {
				v := seed*1e4 + k
				r.store.Update(params.FromArray([params.NumFields]float32{v, v, v, v, v, v, v}))
			}
		}(float32(w + 1))
	}

	require.NoError(t, d.Run(context.Background()))
	cancel()
	wg.Wait()

	for i, set := range r.surface.refreshed {
		arr := set.Array()
		for _, v := range arr {
			require.Equal(t, arr[0], v, "frame %d saw a mixed record", i)
		}
	}
}

func TestParamsRecordedOnVersionChange(t *testing.T) {
	dir := t.TempDir()
	om, err := telemetry.NewOutputManager(dir)
	require.NoError(t, err)

	r := newRig(t)
	d := r.driver(Options{Output: om})

	d.Frame()
	d.Frame()
	r.store.Update(params.Set{DutyCycle: 1})
	d.Frame()
	d.Frame()
	require.NoError(t, om.Close())

	f, err := os.Open(filepath.Join(dir, "params.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []telemetry.ParamRecord
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, uint64(0), rows[0].Frame)
	assert.Equal(t, uint64(2), rows[1].Frame)
	assert.Equal(t, uint64(1), rows[1].Version)
	assert.Equal(t, float32(1), rows[1].DutyCycle)
}

func TestSnapshotSaveAndRestore(t *testing.T) {
	r := newRig(t)
	dir := t.TempDir()
	r.win.input = func(frame int) Input {
		switch frame {
		case 0:
			return Input{Pressed: map[int32]bool{KeyPlaneMode: true}, Wheel: 2}
		case 1:
			return Input{Pressed: map[int32]bool{KeySnapshot: true}}
		}
		return Input{}
	}
	d := r.driver(Options{SnapshotDir: dir})

	d.Frame()
	saved := params.Set{DutyCycle: 0.5, SagDepthNM: 8, TimeScaleRatio: 10, AvgPowerMW: 1, ExoticMassKG: 2, CavityQ: 1e6, GeometricAmplification: 3}
	r.store.Update(saved)
	d.Frame()

	matches, err := filepath.Glob(filepath.Join(dir, "snapshot_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	snap, err := telemetry.LoadSnapshot(matches[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Frame)
	assert.Equal(t, saved, snap.Params)
	assert.Equal(t, config.PlaneModeCamera, snap.PlaneMode)
	assert.Equal(t, r.surface.planes[1].Center, snap.PlaneCenter)
	assert.Equal(t, r.surface.planes[1].HalfExtent, snap.PlaneHalfExtent)

	// A fresh driver restored from the file renders the same view.
	r2 := newRig(t)
	d2 := r2.driver(Options{})
	d2.Restore(snap)
	d2.Frame()

	got, _ := r2.store.Snapshot()
	assert.Equal(t, saved, got)
	assert.Equal(t, config.PlaneModeCamera, d2.PlaneMode())
	assert.Equal(t, snap.PlaneCenter, r2.surface.planes[0].Center)
	assert.Equal(t, snap.PlaneHalfExtent, r2.surface.planes[0].HalfExtent)
}

func TestSnapshotKeyIgnoredWithoutDir(t *testing.T) {
	r := newRig(t)
	r.win.input = func(frame int) Input {
		return Input{Pressed: map[int32]bool{KeySnapshot: true}}
	}
	d := r.driver(Options{})
	d.Frame()
	assert.False(t, d.pendingSnapshot)
}

func TestBookmarkOnVanishingField(t *testing.T) {
	dir := t.TempDir()
	om, err := telemetry.NewOutputManager(dir)
	require.NoError(t, err)

	r := newRig(t)
	d := r.driver(Options{Output: om})

	d.Frame()
	zeroed := r.store.Current()
	zeroed.SagDepthNM = 0
	r.store.Update(zeroed)
	d.Frame()
	require.NoError(t, om.Close())

	f, err := os.Open(filepath.Join(dir, "bookmarks.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []telemetry.Bookmark
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, telemetry.BookmarkFieldVanished, rows[0].Type)
	assert.Equal(t, uint64(1), rows[0].Frame)
}

func TestRestoreReferencePlane(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	saved := field.Plane{Center: [2]float32{1e-8, -2e-8}, HalfExtent: [2]float32{5e-8, 4e-8}}
	d.Restore(&telemetry.Snapshot{
		Version:         telemetry.SnapshotVersion,
		Params:          r.store.Current(),
		PlaneMode:       config.PlaneModeReference,
		PlaneCenter:     saved.Center,
		PlaneHalfExtent: saved.HalfExtent,
	})
	d.Frame()

	assert.Equal(t, config.PlaneModeReference, d.PlaneMode())
	require.Len(t, r.surface.planes, 1)
	assert.Equal(t, saved, r.surface.planes[0])
	assert.Equal(t, saved, d.Plane())
}

func TestRestoreKeepsConfiguredPlaneWhenSnapshotHasNone(t *testing.T) {
	r := newRig(t)
	d := r.driver(Options{})

	d.Restore(&telemetry.Snapshot{Version: telemetry.SnapshotVersion, PlaneMode: config.PlaneModeReference})
	d.Frame()
	assert.Equal(t, field.ReferencePlane, r.surface.planes[0])
}
