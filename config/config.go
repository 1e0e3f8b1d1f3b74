// Package config provides configuration loading and access for the visualizer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Plane modes for the sampled z=0 plane.
const (
	PlaneModeReference = "reference" // fixed center/extent from render config
	PlaneModeCamera    = "camera"    // derived from the camera frustum
)

// Config holds all visualizer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Camera    CameraConfig    `yaml:"camera"`
	Params    ParamsConfig    `yaml:"params"`
	Render    RenderConfig    `yaml:"render"`
	Control   ControlConfig   `yaml:"control"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Probe     ProbeConfig     `yaml:"probe"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// CameraConfig holds the initial camera placement. Distances are in metres.
type CameraConfig struct {
	Position    [3]float64 `yaml:"position"`
	Target      [3]float64 `yaml:"target"`
	Up          [3]float64 `yaml:"up"`
	FovY        float64    `yaml:"fov_y"` // degrees
	Near        float64    `yaml:"near"`
	Far         float64    `yaml:"far"`
	MinDistance float64    `yaml:"min_distance"` // closest dolly distance to target
	MaxDistance float64    `yaml:"max_distance"`
	ZoomStep    float64    `yaml:"zoom_step"` // dolly factor per wheel notch
}

// ParamsConfig holds the parameter set published at startup.
type ParamsConfig struct {
	DutyCycle              float64 `yaml:"duty_cycle"`
	GeometricAmplification float64 `yaml:"geometric_amplification"`
	CavityQ                float64 `yaml:"cavity_q"`
	SagDepthNM             float64 `yaml:"sag_depth_nm"`
	TimeScaleRatio         float64 `yaml:"time_scale_ratio"`
	AvgPowerMW             float64 `yaml:"avg_power_mw"`
	ExoticMassKG           float64 `yaml:"exotic_mass_kg"`
}

// RenderConfig holds render surface settings.
type RenderConfig struct {
	PlaneMode       string     `yaml:"plane_mode"`        // reference | camera
	PlaneCenter     [2]float64 `yaml:"plane_center"`      // metres
	PlaneHalfExtent [2]float64 `yaml:"plane_half_extent"` // metres
	ShowHUD         bool       `yaml:"show_hud"`
	ShowPanel       bool       `yaml:"show_panel"`
}

// ControlConfig holds external control surface settings.
type ControlConfig struct {
	WebsocketAddr string  `yaml:"websocket_addr"` // empty = disabled
	WebsocketPath string  `yaml:"websocket_path"`
	WatchFile     string  `yaml:"watch_file"`     // empty = disabled
	WatchDebounce float64 `yaml:"watch_debounce"` // seconds
}

// TelemetryConfig holds frame timing parameters.
type TelemetryConfig struct {
	PerfWindow  int     `yaml:"perf_window"`  // frames in the rolling window
	LogInterval float64 `yaml:"log_interval"` // seconds between perf log lines

	BookmarkHistory int `yaml:"bookmark_history"` // records averaged for bookmark detection
}

// ProbeConfig holds CPU probe parameters.
type ProbeConfig struct {
	Samples     int     `yaml:"samples"`
	RangeScales float64 `yaml:"range_scales"` // profile range in multiples of the bubble scale
	ImageSize   int     `yaml:"image_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WatchDebounce time.Duration // Control.WatchDebounce as a duration
	LogInterval   time.Duration // Telemetry.LogInterval as a duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the renderer cannot start with.
func (c *Config) validate() error {
	switch c.Render.PlaneMode {
	case PlaneModeReference, PlaneModeCamera:
	default:
		return fmt.Errorf("render.plane_mode: unknown mode %q", c.Render.PlaneMode)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera: need 0 < near < far, got near=%g far=%g", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovY <= 0 || c.Camera.FovY >= 180 {
		return fmt.Errorf("camera.fov_y: must be in (0, 180), got %g", c.Camera.FovY)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen: invalid size %dx%d", c.Screen.Width, c.Screen.Height)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WatchDebounce = time.Duration(c.Control.WatchDebounce * float64(time.Second))
	c.Derived.LogInterval = time.Duration(c.Telemetry.LogInterval * float64(time.Second))
	if c.Control.WebsocketPath == "" {
		c.Control.WebsocketPath = "/params"
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
	if c.Camera.ZoomStep <= 1 {
		c.Camera.ZoomStep = 1.1
	}
}

// WriteYAML saves the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
