// Field probe - samples the shift field on the CPU and writes a radial
// profile (CSV and HTML chart), a reference image and magnitude stats.
//
// Usage: go run ./cmd/fieldprobe -output-dir probe-out [-params params.yaml]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/control"
	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/probe"
	"github.com/pthm-cable/warpviz/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	paramsPath := flag.String("params", "", "YAML parameter file overriding the config defaults")
	outputDir := flag.String("output-dir", "probe-out", "Directory for profile.csv, profile.html, field.png and stats.csv")
	samples := flag.Int("samples", 0, "Profile samples (0 = use config)")
	rangeScales := flag.Float64("range", 0, "Profile range in multiples of the bubble scale (0 = use config)")
	size := flag.Int("size", 0, "Image size in pixels (0 = use config)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath, *paramsPath, *outputDir, *samples, *rangeScales, *size); err != nil {
		slog.Error("field probe failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, paramsPath, outputDir string, samples int, rangeScales float64, size int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if samples <= 0 {
		samples = cfg.Probe.Samples
	}
	if rangeScales <= 0 {
		rangeScales = cfg.Probe.RangeScales
	}
	if size <= 0 {
		size = cfg.Probe.ImageSize
	}

	p := params.FromConfig(cfg.Params)
	if paramsPath != "" {
		data, err := os.ReadFile(paramsPath)
		if err != nil {
			return fmt.Errorf("reading params: %w", err)
		}
		if p, err = control.DecodeFile(data); err != nil {
			return err
		}
	}
	p, replaced := p.Sanitize()
	if len(replaced) > 0 {
		slog.Warn("non-finite parameters zeroed", "count", len(replaced))
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	scale := float32(math.Abs(float64(p.Scale())))
	if scale == 0 {
		return probe.ErrZeroField
	}
	rMax := float32(rangeScales) * scale

	profile := probe.RadialProfile(p, field.Vec3{X: 1}, rMax, samples)
	peak, err := probe.FindPeak(p)
	if err != nil {
		return err
	}
	slog.Info("peak located",
		"r_m", peak.R,
		"expected_m", peak.Expected,
		"relative_error", peak.RelativeError(),
		"magnitude", peak.Magnitude,
		"evaluations", peak.Evaluations,
	)

	if err := writeFile(filepath.Join(outputDir, "profile.csv"), func(f *os.File) error {
		return probe.WriteProfileCSV(f, profile)
	}); err != nil {
		return err
	}

	subtitle := fmt.Sprintf("sag %.4g nm, amplitude %.4g", p.SagDepthNM, p.Amplitude())
	if err := writeFile(filepath.Join(outputDir, "profile.html"), func(f *os.File) error {
		return probe.WriteProfileHTML(f, profile, peak, subtitle)
	}); err != nil {
		return err
	}

	plane := field.Plane{HalfExtent: [2]float32{rMax, rMax}}
	img := probe.RenderImage(p, plane, size, size)
	imgPath := filepath.Join(outputDir, "field.png")
	if err := imgio.Save(imgPath, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("writing %s: %w", imgPath, err)
	}

	stats := telemetry.ComputeFieldStats(probe.PlaneMagnitudes(p, plane, size, size))
	stats.LogStats()
	if err := writeFile(filepath.Join(outputDir, "stats.csv"), func(f *os.File) error {
		return gocsv.Marshal([]telemetry.FieldStats{stats}, f)
	}); err != nil {
		return err
	}

	slog.Info("probe complete", "dir", outputDir, "samples", samples, "image_size", size)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
