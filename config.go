package xr

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the tunable timing bounds and space/blend selection for
// the frame loop. Acceptable timeout bounds are device-specific, so they
// are configuration rather than constants; validate them against the
// target device's frame budget.
//
// The file format is YAML with durations as Go duration strings:
//
//	frame_wait_timeout: 1s
//	image_wait_timeout: 100ms
//	stats_interval: 5s
//	reference_space: local
//	blend_mode: opaque
//
// Unknown keys are rejected. The config file is the single source of
// truth; there is no environment variable or flag discovery here.
type Config struct {
	// FrameWaitTimeout bounds WaitFrame. A runtime that does not pace
	// within this bound is treated as failed for the iteration.
	FrameWaitTimeout time.Duration

	// ImageWaitTimeout bounds the per-eye swapchain image wait. On
	// expiry the eye submits an empty region and the frame continues.
	ImageWaitTimeout time.Duration

	// StatsInterval is the cadence of the periodic frame-stats log line.
	// Zero disables the line.
	StatsInterval time.Duration

	// ReferenceSpace selects the coordinate frame poses are resolved
	// against.
	ReferenceSpace ReferenceSpaceKind

	// BlendMode selects how composited layers mix with the surroundings.
	BlendMode EnvironmentBlendMode
}

// DefaultConfig returns the validated default configuration: bounds
// comfortably above one frame period at common refresh rates, local
// space, opaque blending.
func DefaultConfig() Config {
	return Config{
		FrameWaitTimeout: time.Second,
		ImageWaitTimeout: 100 * time.Millisecond,
		StatsInterval:    5 * time.Second,
		ReferenceSpace:   SpaceLocal,
		BlendMode:        BlendOpaque,
	}
}

// fileConfig is the YAML shape. Durations travel as strings so the file
// reads "100ms", not an integer of unstated unit.
type fileConfig struct {
	FrameWaitTimeout string `yaml:"frame_wait_timeout"`
	ImageWaitTimeout string `yaml:"image_wait_timeout"`
	StatsInterval    string `yaml:"stats_interval"`
	ReferenceSpace   string `yaml:"reference_space"`
	BlendMode        string `yaml:"blend_mode"`
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("xr: read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("xr: config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig overlays YAML data on the defaults and validates the
// result. Unknown fields are errors.
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	var errs []error

	overlay := func(dst *time.Duration, key, val string) {
		if val == "" {
			return
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	overlay(&cfg.FrameWaitTimeout, "frame_wait_timeout", fc.FrameWaitTimeout)
	overlay(&cfg.ImageWaitTimeout, "image_wait_timeout", fc.ImageWaitTimeout)
	overlay(&cfg.StatsInterval, "stats_interval", fc.StatsInterval)

	if fc.ReferenceSpace != "" {
		kind, err := parseSpaceKind(fc.ReferenceSpace)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.ReferenceSpace = kind
		}
	}
	if fc.BlendMode != "" {
		mode, err := parseBlendMode(fc.BlendMode)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.BlendMode = mode
		}
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if c.FrameWaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("frame_wait_timeout must be positive, got %v", c.FrameWaitTimeout))
	}
	if c.ImageWaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("image_wait_timeout must be positive, got %v", c.ImageWaitTimeout))
	}
	if c.StatsInterval < 0 {
		errs = append(errs, fmt.Errorf("stats_interval must not be negative, got %v", c.StatsInterval))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func parseSpaceKind(name string) (ReferenceSpaceKind, error) {
	for k, n := range spaceNames {
		if n == name {
			return ReferenceSpaceKind(k), nil
		}
	}
	return 0, fmt.Errorf("reference_space must be one of %v, got %q", spaceNames, name)
}

func parseBlendMode(name string) (EnvironmentBlendMode, error) {
	for m, n := range blendNames {
		if n == name {
			return EnvironmentBlendMode(m), nil
		}
	}
	return 0, fmt.Errorf("blend_mode must be one of %v, got %q", blendNames, name)
}
