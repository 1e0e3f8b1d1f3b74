package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/warpviz/camera"
	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/control"
	"github.com/pthm-cable/warpviz/driver"
	"github.com/pthm-cable/warpviz/params"
	"github.com/pthm-cable/warpviz/renderer"
	"github.com/pthm-cable/warpviz/telemetry"
)

type options struct {
	wsAddr    string
	watchFile string
	outputDir string
	logStats  bool
	maxFrames uint64

	snapshotDir string
	restore     string
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	wsAddr := flag.String("ws", "", "Websocket control address, e.g. :8765 (empty = use config)")
	watchFile := flag.String("watch", "", "YAML parameter file to watch for changes (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output frame timing via slog")
	maxFrames := flag.Uint64("max-frames", 0, "Stop after N frames (0 = unlimited)")
	snapshotDir := flag.String("snapshot-dir", "snapshots", "Directory for view snapshots saved with S (empty = disabled)")
	restore := flag.String("restore", "", "Snapshot file to restore on startup")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := options{
		wsAddr:    *wsAddr,
		watchFile: *watchFile,
		outputDir: *outputDir,
		logStats:  *logStats,
		maxFrames: *maxFrames,

		snapshotDir: *snapshotDir,
		restore:     *restore,
	}
	if err := run(config.Cfg(), opts); err != nil {
		slog.Error("warpviz exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options) error {
	if opts.wsAddr == "" {
		opts.wsAddr = cfg.Control.WebsocketAddr
	}
	if opts.watchFile == "" {
		opts.watchFile = cfg.Control.WatchFile
	}

	om, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	var restored *telemetry.Snapshot
	if opts.restore != "" {
		if restored, err = telemetry.LoadSnapshot(opts.restore); err != nil {
			return err
		}
	}

	defaults := params.FromConfig(cfg.Params)
	store := params.NewStore(defaults)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Control surfaces run off the render thread and only touch the store.
	g, gctx := errgroup.WithContext(ctx)
	if opts.wsAddr != "" {
		srv := control.NewServer(opts.wsAddr, cfg.Control.WebsocketPath, store)
		g.Go(func() error { return srv.Run(gctx) })
	}
	if opts.watchFile != "" {
		w := control.NewWatcher(opts.watchFile, cfg.Derived.WatchDebounce, store)
		g.Go(func() error { return w.Run(gctx) })
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagVsyncHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	surface, err := renderer.NewSurface(int32(cfg.Screen.Width), int32(cfg.Screen.Height))
	if err != nil {
		stop()
		_ = g.Wait()
		return fmt.Errorf("initialising render surface: %w", err)
	}
	defer surface.Unload()

	cam := camera.New(cfg.Camera, float64(cfg.Screen.Width), float64(cfg.Screen.Height))
	d := driver.New(driver.NewRaylibWindow(), surface, store, cam, cfg, driver.Options{
		MaxFrames: opts.maxFrames,
		LogStats:  opts.logStats,
		Output:    om,
		Overlays:  []driver.Overlay{driver.NewUILayer(cfg, defaults, store)},

		SnapshotDir: opts.snapshotDir,
	})
	if restored != nil {
		d.Restore(restored)
	}

	slog.Info("starting visualizer",
		"width", cfg.Screen.Width,
		"height", cfg.Screen.Height,
		"plane_mode", cfg.Render.PlaneMode,
		"ws", opts.wsAddr,
		"watch", opts.watchFile,
	)

	runErr := d.Run(gctx)

	stop()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("control surface: %w", err)
	}
	return runErr
}
