package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/warpviz/config"
)

func defaultCamera(t *testing.T) *Camera {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return New(cfg.Camera, 800, 600)
}

func relErr(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

func TestNew(t *testing.T) {
	cam := defaultCamera(t)

	if cam.Position.Z != 8e-9 {
		t.Errorf("expected camera at z=8e-9, got %g", cam.Position.Z)
	}
	if d := cam.Distance(); relErr(d, 8e-9) > 1e-12 {
		t.Errorf("expected distance 8e-9, got %g", d)
	}
	if cam.Near != 1e-12 || cam.Far != 1e-4 {
		t.Errorf("unexpected clip planes %g/%g", cam.Near, cam.Far)
	}
}

func TestProjectTargetToCentre(t *testing.T) {
	cam := defaultCamera(t)

	ndc, ok := cam.Project(r3.Vec{})
	if !ok {
		t.Fatal("target reported behind camera")
	}
	if math.Abs(ndc.X) > 1e-12 || math.Abs(ndc.Y) > 1e-12 {
		t.Errorf("expected target at NDC origin, got (%g, %g)", ndc.X, ndc.Y)
	}

	sx, sy, ok := cam.WorldToScreen(r3.Vec{})
	if !ok || math.Abs(sx-400) > 1e-6 || math.Abs(sy-300) > 1e-6 {
		t.Errorf("expected screen centre (400, 300), got (%f, %f)", sx, sy)
	}
}

func TestDepthRangeAtExtremeClipPlanes(t *testing.T) {
	cam := defaultCamera(t)

	// Points on the near and far planes along the view axis.
	near := r3.Vec{Z: cam.Position.Z - cam.Near}
	far := r3.Vec{Z: cam.Position.Z - cam.Far}

	ndc, ok := cam.Project(near)
	if !ok || math.Abs(ndc.Z+1) > 1e-6 {
		t.Errorf("near plane should map to depth -1, got %g (ok=%v)", ndc.Z, ok)
	}
	ndc, ok = cam.Project(far)
	if !ok || math.Abs(ndc.Z-1) > 1e-6 {
		t.Errorf("far plane should map to depth +1, got %g (ok=%v)", ndc.Z, ok)
	}

	// The target plane sits strictly inside the depth range.
	ndc, _ = cam.Project(r3.Vec{})
	if ndc.Z <= -1 || ndc.Z >= 1 {
		t.Errorf("target depth %g outside (-1, 1)", ndc.Z)
	}
}

func TestNanometreScalePrecision(t *testing.T) {
	cam := defaultCamera(t)

	// A point one nanometre off-axis on the target plane.
	ndc, ok := cam.Project(r3.Vec{X: 1e-9})
	if !ok {
		t.Fatal("point reported behind camera")
	}
	tanHalf := math.Tan(30 * math.Pi / 180)
	want := 1e-9 / (8e-9 * tanHalf * cam.Aspect())
	if e := relErr(ndc.X, want); e > 1e-9 {
		t.Errorf("nm-scale projection lost precision: got %g want %g (rel %g)", ndc.X, want, e)
	}

	// Picometre offsets still resolve.
	a, _ := cam.Project(r3.Vec{X: 1e-12})
	b, _ := cam.Project(r3.Vec{X: 2e-12})
	if e := relErr(b.X, 2*a.X); e > 1e-6 {
		t.Errorf("picometre offsets not linear: %g vs %g", b.X, 2*a.X)
	}
}

func TestBehindCamera(t *testing.T) {
	cam := defaultCamera(t)
	if _, ok := cam.Project(r3.Vec{Z: 1e-8}); ok {
		t.Error("point behind camera should not project")
	}
}

func TestPlaneMappingPerpendicular(t *testing.T) {
	cam := defaultCamera(t)

	center, half, ok := cam.PlaneMapping()
	if !ok {
		t.Fatal("plane mapping failed for camera facing the plane")
	}
	if math.Abs(center[0]) > 1e-20 || math.Abs(center[1]) > 1e-20 {
		t.Errorf("expected centred plane, got %v", center)
	}

	wantH := 8e-9 * math.Tan(30*math.Pi/180)
	if e := relErr(half[1], wantH); e > 1e-9 {
		t.Errorf("half height: got %g want %g", half[1], wantH)
	}
	if e := relErr(half[0], wantH*cam.Aspect()); e > 1e-9 {
		t.Errorf("half width: got %g want %g", half[0], wantH*cam.Aspect())
	}

	// Plane corners project back onto the viewport corners.
	sx, sy, _ := cam.WorldToScreen(r3.Vec{X: center[0] - half[0], Y: center[1] + half[1]})
	if math.Abs(sx) > 1e-6 || math.Abs(sy) > 1e-6 {
		t.Errorf("top-left corner projected to (%g, %g)", sx, sy)
	}
}

func TestPlaneMappingFacingAway(t *testing.T) {
	cam := defaultCamera(t)
	cam.Target = r3.Vec{Z: 1}
	if _, _, ok := cam.PlaneMapping(); ok {
		t.Error("camera facing away from the plane should not map it")
	}
}

func TestZoomClamp(t *testing.T) {
	cam := defaultCamera(t)

	cam.ZoomBy(2)
	if e := relErr(cam.Distance(), 4e-9); e > 1e-9 {
		t.Errorf("expected distance 4e-9 after 2x zoom, got %g", cam.Distance())
	}

	for i := 0; i < 100; i++ {
		cam.ZoomBy(10)
	}
	if e := relErr(cam.Distance(), cam.MinDistance); e > 1e-9 {
		t.Errorf("expected distance clamped to %g, got %g", cam.MinDistance, cam.Distance())
	}

	for i := 0; i < 100; i++ {
		cam.ZoomBy(0.1)
	}
	if e := relErr(cam.Distance(), cam.MaxDistance); e > 1e-9 {
		t.Errorf("expected distance clamped to %g, got %g", cam.MaxDistance, cam.Distance())
	}
}

func TestPanMovesTargetAlongPlane(t *testing.T) {
	cam := defaultCamera(t)
	before := cam.Distance()

	cam.Pan(300, 0)
	if cam.Target.X <= 0 {
		t.Errorf("expected target to move +x, got %g", cam.Target.X)
	}
	if cam.Target.Z != 0 {
		t.Errorf("pan left the plane: z=%g", cam.Target.Z)
	}
	if e := relErr(cam.Distance(), before); e > 1e-9 {
		t.Errorf("pan changed distance: %g -> %g", before, cam.Distance())
	}

	// 300 px is exactly the half height of the 600 px viewport.
	wantX := 8e-9 * math.Tan(30*math.Pi/180)
	if e := relErr(cam.Target.X, wantX); e > 1e-9 {
		t.Errorf("expected pan of %g, got %g", wantX, cam.Target.X)
	}

	cam.Pan(0, 300)
	if cam.Target.Y >= 0 {
		t.Errorf("dragging down should move -y, got %g", cam.Target.Y)
	}
}

func TestReset(t *testing.T) {
	cam := defaultCamera(t)
	cam.Pan(100, 50)
	cam.ZoomBy(3)
	cam.Reset()

	if cam.Position != (r3.Vec{Z: 8e-9}) || cam.Target != (r3.Vec{}) {
		t.Errorf("reset did not restore placement: %+v -> %+v", cam.Position, cam.Target)
	}
}

func TestLookingAlongUpDoesNotDegenerate(t *testing.T) {
	cam := defaultCamera(t)
	cam.Up = r3.Vec{Z: 1}

	ndc, ok := cam.Project(r3.Vec{})
	if !ok || math.IsNaN(ndc.X) || math.IsNaN(ndc.Y) {
		t.Errorf("degenerate basis produced %+v (ok=%v)", ndc, ok)
	}
}

func TestResize(t *testing.T) {
	cam := defaultCamera(t)
	cam.Resize(1200, 600)
	if cam.Aspect() != 2 {
		t.Errorf("expected aspect 2, got %g", cam.Aspect())
	}
}

func TestPlacementRoundTrip(t *testing.T) {
	cam := defaultCamera(t)
	home, homeTarget := cam.Placement()

	pos := [3]float64{1e-9, -2e-9, 5e-9}
	target := [3]float64{1e-9, -2e-9, 0}
	cam.SetPlacement(pos, target)

	gotPos, gotTarget := cam.Placement()
	if gotPos != pos || gotTarget != target {
		t.Errorf("placement = %v %v, want %v %v", gotPos, gotTarget, pos, target)
	}

	cam.Reset()
	gotPos, gotTarget = cam.Placement()
	if gotPos != home || gotTarget != homeTarget {
		t.Errorf("reset placement = %v %v, want %v %v", gotPos, gotTarget, home, homeTarget)
	}
}
