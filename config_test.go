package xr

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
	if cfg.ImageWaitTimeout >= cfg.FrameWaitTimeout {
		t.Errorf("default image wait (%v) should be shorter than frame wait (%v)",
			cfg.ImageWaitTimeout, cfg.FrameWaitTimeout)
	}
}

func TestParseConfigOverlay(t *testing.T) {
	yml := `
frame_wait_timeout: 250ms
image_wait_timeout: 8ms
reference_space: stage
blend_mode: additive
`
	cfg, err := ParseConfig([]byte(yml))
	if err != nil {
		t.Fatalf("ParseConfig() = %v", err)
	}
	if got, want := cfg.FrameWaitTimeout, 250*time.Millisecond; got != want {
		t.Errorf("FrameWaitTimeout = %v, want %v", got, want)
	}
	if got, want := cfg.ImageWaitTimeout, 8*time.Millisecond; got != want {
		t.Errorf("ImageWaitTimeout = %v, want %v", got, want)
	}
	// Unset keys keep their defaults.
	if got, want := cfg.StatsInterval, DefaultConfig().StatsInterval; got != want {
		t.Errorf("StatsInterval = %v, want default %v", got, want)
	}
	if cfg.ReferenceSpace != SpaceStage {
		t.Errorf("ReferenceSpace = %v, want %v", cfg.ReferenceSpace, SpaceStage)
	}
	if cfg.BlendMode != BlendAdditive {
		t.Errorf("BlendMode = %v, want %v", cfg.BlendMode, BlendAdditive)
	}
}

func TestParseConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("frame_wait_timeout: \"\"\n"))
	if err != nil {
		t.Fatalf("ParseConfig() = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("empty overlay changed config: got %+v", cfg)
	}
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ParseConfig([]byte("frame_timeout: 1s\n"))
	if err == nil {
		t.Fatal("ParseConfig() accepted an unknown key, want error")
	}
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"bad duration", "frame_wait_timeout: soon\n"},
		{"negative timeout", "image_wait_timeout: -5ms\n"},
		{"bad space", "reference_space: orbit\n"},
		{"bad blend", "blend_mode: subtract\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.yml)); err == nil {
				t.Errorf("ParseConfig(%q) = nil error, want error", tt.yml)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/does-not-exist.yaml")
	if err == nil {
		t.Fatal("LoadConfig() on a missing file should error")
	}
	if !strings.Contains(err.Error(), "read config") {
		t.Errorf("error should name the failing step, got %v", err)
	}
}

func TestValidateBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameWaitTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted zero frame_wait_timeout")
	}

	cfg = DefaultConfig()
	cfg.StatsInterval = 0 // zero disables the stats line, still valid
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() rejected zero stats_interval: %v", err)
	}
}
