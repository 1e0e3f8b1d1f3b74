package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for the frame sequence.
const (
	PhaseEvents  = "events"
	PhaseResize  = "resize"
	PhaseClear   = "clear"
	PhaseSync    = "sync"
	PhaseDraw    = "draw"
	PhaseOverlay = "overlay"
	PhasePresent = "present"
)

// Phases lists the frame phases in execution order.
var Phases = []string{
	PhaseEvents, PhaseResize, PhaseClear, PhaseSync,
	PhaseDraw, PhaseOverlay, PhasePresent,
}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks frame timing over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall-clock interval between consecutive frame starts
	lastFrameStart time.Time
	interval       time.Duration

	now func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	now := p.now()
	if !p.lastFrameStart.IsZero() {
		p.interval = now.Sub(p.lastFrameStart)
	}
	p.lastFrameStart = now
	p.frameStart = now
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated frame statistics.
type PerfStats struct {
	// Work time per frame (excludes vsync wait outside the frame)
	AvgFrame    time.Duration
	StdDevFrame time.Duration
	P95Frame    time.Duration
	MaxFrame    time.Duration

	// Phase breakdown (average durations) and share of frame time
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Display rate from the interval between frame starts
	Interval time.Duration
	FPS      float64

	Frames int
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.interval > 0 {
		fps = float64(time.Second) / float64(p.interval)
	}

	out := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
		Interval: p.interval,
		FPS:      fps,
		Frames:   p.sampleCount,
	}
	if p.sampleCount == 0 {
		return out
	}

	durations := make([]float64, p.sampleCount)
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		durations[i] = float64(s.FrameDuration)
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	mean, std := stat.MeanStdDev(durations, nil)
	if p.sampleCount < 2 {
		std = 0
	}
	sort.Float64s(durations)
	out.AvgFrame = time.Duration(mean)
	out.StdDevFrame = time.Duration(std)
	out.P95Frame = time.Duration(stat.Quantile(0.95, stat.Empirical, durations, nil))
	out.MaxFrame = time.Duration(durations[len(durations)-1])

	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		out.PhaseAvg[phase] = avg
		if out.AvgFrame > 0 {
			out.PhasePct[phase] = float64(avg) / float64(out.AvgFrame) * 100
		}
	}
	return out
}

// LogStats logs frame statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"frames", s.Frames,
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"p95_frame_us", s.P95Frame.Microseconds(),
		"max_frame_us", s.MaxFrame.Microseconds(),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of frame statistics.
type PerfStatsCSV struct {
	Frame      uint64  `csv:"frame"`
	AvgFrameUS int64   `csv:"avg_frame_us"`
	StdFrameUS int64   `csv:"std_frame_us"`
	P95FrameUS int64   `csv:"p95_frame_us"`
	MaxFrameUS int64   `csv:"max_frame_us"`
	FPS        float64 `csv:"fps"`
	EventsPct  float64 `csv:"events_pct"`
	ResizePct  float64 `csv:"resize_pct"`
	ClearPct   float64 `csv:"clear_pct"`
	SyncPct    float64 `csv:"sync_pct"`
	DrawPct    float64 `csv:"draw_pct"`
	OverlayPct float64 `csv:"overlay_pct"`
	PresentPct float64 `csv:"present_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(frame uint64) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:      frame,
		AvgFrameUS: s.AvgFrame.Microseconds(),
		StdFrameUS: s.StdDevFrame.Microseconds(),
		P95FrameUS: s.P95Frame.Microseconds(),
		MaxFrameUS: s.MaxFrame.Microseconds(),
		FPS:        s.FPS,
		EventsPct:  s.PhasePct[PhaseEvents],
		ResizePct:  s.PhasePct[PhaseResize],
		ClearPct:   s.PhasePct[PhaseClear],
		SyncPct:    s.PhasePct[PhaseSync],
		DrawPct:    s.PhasePct[PhaseDraw],
		OverlayPct: s.PhasePct[PhaseOverlay],
		PresentPct: s.PhasePct[PhasePresent],
	}
}
