package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/warpviz/params"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFieldVanished BookmarkType = "field_vanished"
	BookmarkFieldRestored BookmarkType = "field_restored"
	BookmarkScaleJump     BookmarkType = "scale_jump"
	BookmarkFrameSpike    BookmarkType = "frame_spike"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       uint64       `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable parameter changes and frame-time spikes.
type BookmarkDetector struct {
	// Rolling history of bubble scales (circular buffer)
	scales      []float64
	historySize int
	historyIdx  int
	historyFull bool

	// Rolling history of average frame times
	frames    []float64
	framesIdx int
	framesN   int

	seen      bool
	wasActive bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		scales:      make([]float64, historySize),
		frames:      make([]float64, historySize),
		historySize: historySize,
	}
}

// CheckParams analyzes a newly applied parameter record and returns any
// triggered bookmarks.
func (bd *BookmarkDetector) CheckParams(frame uint64, p params.Set) []Bookmark {
	var bookmarks []Bookmark

	scale := math.Abs(float64(p.Scale()))
	active := scale != 0 && p.Amplitude() != 0

	if bd.seen {
		// Field vanished or came back
		switch {
		case bd.wasActive && !active:
			bookmarks = append(bookmarks, Bookmark{
				Type:        BookmarkFieldVanished,
				Frame:       frame,
				Description: "shift field is zero everywhere",
			})
		case !bd.wasActive && active:
			bookmarks = append(bookmarks, Bookmark{
				Type:        BookmarkFieldRestored,
				Frame:       frame,
				Description: fmt.Sprintf("field restored at scale %.3g m", scale),
			})
		}

		// Scale jump: more than 2x away from the rolling average
		if active {
			if b := bd.checkScaleJump(frame, scale); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.seen = true
	bd.wasActive = active
	if active {
		bd.addScale(scale)
	}
	return bookmarks
}

// CheckPerf analyzes a telemetry window and returns a bookmark when its
// p95 frame time exceeds twice the rolling average frame time.
func (bd *BookmarkDetector) CheckPerf(frame uint64, stats PerfStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.framesN > 0 {
		var sum float64
		for _, v := range bd.frames[:bd.framesN] {
			sum += v
		}
		avg := sum / float64(bd.framesN)
		p95 := stats.P95Frame.Seconds()
		if avg > 0 && p95 > 2*avg {
			bookmarks = append(bookmarks, Bookmark{
				Type:        BookmarkFrameSpike,
				Frame:       frame,
				Description: fmt.Sprintf("p95 frame %.2fms vs avg %.2fms", p95*1000, avg*1000),
			})
		}
	}

	bd.frames[bd.framesIdx] = stats.AvgFrame.Seconds()
	bd.framesIdx = (bd.framesIdx + 1) % bd.historySize
	if bd.framesN < bd.historySize {
		bd.framesN++
	}
	return bookmarks
}

func (bd *BookmarkDetector) addScale(scale float64) {
	bd.scales[bd.historyIdx] = scale
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []float64 {
	if bd.historyFull {
		return bd.scales
	}
	return bd.scales[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkScaleJump(frame uint64, scale float64) *Bookmark {
	history := bd.getHistory()
	if len(history) == 0 {
		return nil
	}

	var sum float64
	for _, s := range history {
		sum += s
	}
	avg := sum / float64(len(history))

	if scale > 2*avg || scale < avg/2 {
		return &Bookmark{
			Type:        BookmarkScaleJump,
			Frame:       frame,
			Description: fmt.Sprintf("scale %.3g m vs avg %.3g m", scale, avg),
		}
	}
	return nil
}
