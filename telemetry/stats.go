package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FieldStats summarizes the shift magnitude over a sampled plane.
type FieldStats struct {
	Samples int `csv:"samples"`

	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	P10  float64 `csv:"p10"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`
	Max  float64 `csv:"max"`

	// Fraction of samples above half the maximum.
	Coverage float64 `csv:"coverage"`
}

// ComputeFieldStats calculates the distribution of magnitude values.
// Quantiles interpolate the empirical CDF; Std is the sample deviation.
func ComputeFieldStats(values []float64) FieldStats {
	n := len(values)
	if n == 0 {
		return FieldStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if n == 1 {
		std = 0
	}
	s := FieldStats{
		Samples: n,
		Mean:    mean,
		Std:     std,
		P10:     stat.Quantile(0.10, stat.LinInterp, sorted, nil),
		P50:     stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P90:     stat.Quantile(0.90, stat.LinInterp, sorted, nil),
		Max:     sorted[n-1],
	}
	if s.Max > 0 {
		s.Coverage = 1 - stat.CDF(s.Max/2, stat.Empirical, sorted, nil)
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("samples", s.Samples),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("max", s.Max),
		slog.Float64("coverage", s.Coverage),
	)
}

// LogStats logs the field stats using slog.
func (s FieldStats) LogStats() {
	slog.Info("field", "stats", s)
}
