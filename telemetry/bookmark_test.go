package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/warpviz/params"
)

func bookmarkParams(sag float32) params.Set {
	return params.Set{
		DutyCycle:              0.14,
		GeometricAmplification: 26,
		CavityQ:                1e9,
		SagDepthNM:             sag,
		TimeScaleRatio:         4102.74,
		AvgPowerMW:             83.3,
		ExoticMassKG:           1405,
	}
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstRecordIsQuiet(t *testing.T) {
	bd := NewBookmarkDetector(5)
	if got := bd.CheckParams(0, bookmarkParams(0)); len(got) != 0 {
		t.Errorf("first record should not bookmark, got %v", got)
	}
}

func TestBookmarkDetector_FieldVanishedAndRestored(t *testing.T) {
	bd := NewBookmarkDetector(5)
	bd.CheckParams(0, bookmarkParams(16))

	vanished := bd.CheckParams(10, bookmarkParams(0))
	if !hasBookmark(vanished, BookmarkFieldVanished) {
		t.Errorf("expected field_vanished, got %v", vanished)
	}

	restored := bd.CheckParams(20, bookmarkParams(16))
	if !hasBookmark(restored, BookmarkFieldRestored) {
		t.Errorf("expected field_restored, got %v", restored)
	}
	if restored[0].Frame != 20 {
		t.Errorf("bookmark frame = %d, want 20", restored[0].Frame)
	}
}

func TestBookmarkDetector_ScaleJump(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 4; i++ {
		bd.CheckParams(uint64(i), bookmarkParams(16+float32(i)*0.1))
	}

	if got := bd.CheckParams(5, bookmarkParams(17)); hasBookmark(got, BookmarkScaleJump) {
		t.Error("small change should not bookmark")
	}

	if got := bd.CheckParams(6, bookmarkParams(64)); !hasBookmark(got, BookmarkScaleJump) {
		t.Errorf("expected scale_jump, got %v", got)
	}
}

func TestBookmarkDetector_FrameSpike(t *testing.T) {
	bd := NewBookmarkDetector(5)
	for i := 0; i < 3; i++ {
		got := bd.CheckPerf(uint64(i*60), PerfStats{AvgFrame: 2 * time.Millisecond, P95Frame: 3 * time.Millisecond})
		if len(got) != 0 {
			t.Errorf("steady frames should not bookmark, got %v", got)
		}
	}

	got := bd.CheckPerf(240, PerfStats{AvgFrame: 3 * time.Millisecond, P95Frame: 10 * time.Millisecond})
	if !hasBookmark(got, BookmarkFrameSpike) {
		t.Errorf("expected frame_spike, got %v", got)
	}
}
