// Shader debug tool - renders the field shader offscreen to a PNG and
// optionally checks it against the CPU evaluator.
//
// Usage: go run ./cmd/shaderdebug -out debug.png -extent 4 -compare
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/control"
	"github.com/pthm-cable/warpviz/field"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/probe"
	"github.com/pthm-cable/warpviz/renderer"
)

// errMismatch reports GPU pixels outside the CPU tolerance.
var errMismatch = errors.New("gpu and cpu images differ")

type options struct {
	configPath string
	paramsPath string
	outPath    string
	width      int
	height     int
	extent     float64
	compare    bool
	tolerance  int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&opts.paramsPath, "params", "", "YAML parameter file overriding the config defaults")
	flag.StringVar(&opts.outPath, "out", "debug.png", "Output PNG path")
	flag.IntVar(&opts.width, "width", 512, "Render width")
	flag.IntVar(&opts.height, "height", 512, "Render height")
	flag.Float64Var(&opts.extent, "extent", 0, "Plane half-extent in multiples of the bubble scale (0 = reference plane)")
	flag.BoolVar(&opts.compare, "compare", false, "Also render on the CPU and report the pixel difference")
	flag.IntVar(&opts.tolerance, "tolerance", 1, "Allowed per-channel difference for -compare")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	err := run(opts)
	switch {
	case errors.Is(err, errMismatch):
		os.Exit(2)
	case err != nil:
		slog.Error("shaderdebug failed", "error", err)
		os.Exit(1)
	}
}

func loadParams(configPath, paramsPath string) (params.Set, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return params.Set{}, fmt.Errorf("loading config: %w", err)
	}
	p := params.FromConfig(cfg.Params)
	if paramsPath != "" {
		data, err := os.ReadFile(paramsPath)
		if err != nil {
			return params.Set{}, fmt.Errorf("reading params: %w", err)
		}
		if p, err = control.DecodeFile(data); err != nil {
			return params.Set{}, fmt.Errorf("decoding params: %w", err)
		}
	}
	p, _ = p.Sanitize()
	return p, nil
}

func run(opts options) error {
	p, err := loadParams(opts.configPath, opts.paramsPath)
	if err != nil {
		return err
	}

	plane := field.ReferencePlane
	if opts.extent > 0 {
		h := float32(opts.extent) * float32(math.Abs(float64(p.Scale())))
		plane = field.Plane{HalfExtent: [2]float32{h, h}}
	}

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(opts.width), int32(opts.height), "Shader Debug")
	defer rl.CloseWindow()

	surface, err := renderer.NewSurface(int32(opts.width), int32(opts.height))
	if err != nil {
		return fmt.Errorf("creating surface: %w", err)
	}
	defer surface.Unload()

	surface.Refresh(p)
	surface.SetPlane(plane)
	gpu := surface.Readback(int32(opts.width), int32(opts.height))

	if err := imgio.Save(opts.outPath, gpu, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	slog.Info("shader rendered", "out", opts.outPath, "width", opts.width, "height", opts.height,
		"plane_half_extent", plane.HalfExtent[0])

	if !opts.compare {
		return nil
	}
	cpu := probe.RenderImage(p, plane, opts.width, opts.height)
	diff, err := probe.Compare(cpu, gpu, uint8(opts.tolerance))
	if err != nil {
		return fmt.Errorf("comparing images: %w", err)
	}
	slog.Info("gpu vs cpu", "max_delta", diff.MaxDelta, "pixels_over_tolerance", diff.Pixels, "tolerance", diff.Tolerance)
	if diff.Pixels > 0 {
		return errMismatch
	}
	return nil
}
