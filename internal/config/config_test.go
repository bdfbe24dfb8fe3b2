package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestDefault_MatchesEngineDefaults(t *testing.T) {
	cfg := Default()

	if got, want := cfg.Engine(), gesture.DefaultConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("Engine() = %+v\nwant %+v", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if cfg.DataDir == "" || cfg.PluginDir == "" {
		t.Error("data and plugin dirs not filled")
	}
}

func TestLoadFrom_Environment(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"MUDRA_STABILITY_FRAMES": "7",
		"MUDRA_COOLDOWN":         "1s",
		"MUDRA_ZONE_BOUNDS":      "0.2,0.4,0.6,0.8",
		"MUDRA_PREFERRED_HAND":   "Left",
		"MUDRA_DATA_DIR":         "/tmp/mudra",
		"MUDRA_CAMERA_MIRROR":    "false",
		"MUDRA_CAMERA_FPS":       "60",
	})
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.StabilityFrames != 7 || cfg.Cooldown != time.Second || cfg.PreferredHand != "Left" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.ZoneBounds) != 4 || cfg.ZoneBounds[0] != 0.2 {
		t.Errorf("ZoneBounds = %v", cfg.ZoneBounds)
	}
	if cfg.PluginDir != "/tmp/mudra/plugins" {
		t.Errorf("PluginDir = %q", cfg.PluginDir)
	}
	if cfg.CameraMirror || cfg.CameraFPS != 60 || cfg.CameraWidth != 640 {
		t.Errorf("camera = mirror %v, %d fps, width %d", cfg.CameraMirror, cfg.CameraFPS, cfg.CameraWidth)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("unset value changed: MinConfidence = %v", cfg.MinConfidence)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"scroll zones inverted", map[string]string{"MUDRA_SCROLL_TOP": "0.8", "MUDRA_SCROLL_BOTTOM": "0.2"}},
		{"bounds not increasing", map[string]string{"MUDRA_ZONE_BOUNDS": "0.6,0.4"}},
		{"confidence above one", map[string]string{"MUDRA_MIN_CONFIDENCE": "1.5"}},
		{"zero stability", map[string]string{"MUDRA_STABILITY_FRAMES": "0"}},
		{"unknown preset", map[string]string{"MUDRA_PRESET": "turbo"}},
		{"zero queue", map[string]string{"MUDRA_QUEUE_SIZE": "0"}},
		{"zero camera rate", map[string]string{"MUDRA_CAMERA_FPS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(tt.environ); !errors.Is(err, ErrInvalid) {
				t.Errorf("LoadFrom() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadFrom_BadSyntax(t *testing.T) {
	if _, err := LoadFrom(map[string]string{"MUDRA_COOLDOWN": "soon"}); err == nil {
		t.Error("LoadFrom() accepted a malformed duration")
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		preset        string
		wantStability int
		wantMinConf   float64
	}{
		{"balanced", 5, 0.7},
		{"performance", 4, 0.7},
		{"accuracy", 8, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			cfg := Default()
			if err := cfg.ApplyPreset(tt.preset); err != nil {
				t.Fatalf("ApplyPreset() error = %v", err)
			}
			if cfg.StabilityFrames != tt.wantStability || cfg.MinConfidence != tt.wantMinConf {
				t.Errorf("got stability %d min confidence %v", cfg.StabilityFrames, cfg.MinConfidence)
			}
		})
	}
}

func TestApplySettings(t *testing.T) {
	cfg := Default()
	err := cfg.ApplySettings(map[string]string{
		KeyPreset:          "accuracy",
		KeyStabilityFrames: "6",
		KeySensitivity:     "1.5",
		KeyPreferredHand:   "Left",
		KeyCooldownMS:      "500",
	})
	if err != nil {
		t.Fatalf("ApplySettings() error = %v", err)
	}

	// Explicit keys override the preset.
	if cfg.StabilityFrames != 6 {
		t.Errorf("StabilityFrames = %d, want 6", cfg.StabilityFrames)
	}
	if cfg.MinConfidence != 0.85 || cfg.Sensitivity != 1.5 || cfg.PreferredHand != "Left" {
		t.Errorf("settings not applied: %+v", cfg)
	}
	if cfg.Cooldown != 500*time.Millisecond {
		t.Errorf("Cooldown = %v", cfg.Cooldown)
	}

	settings := cfg.Settings()
	if settings[KeyStabilityFrames] != "6" || settings[KeyCooldownMS] != "500" || settings[KeyPreset] != "accuracy" {
		t.Errorf("Settings() = %v", settings)
	}
}

func TestApplySettings_RejectsAndKeepsState(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown key":       {"volume": "11"},
		"not a number":      {KeySensitivity: "high"},
		"negative":          {KeySensitivity: "-1"},
		"bad hand":          {KeyPreferredHand: "Both"},
		"confidence bounds": {KeyMinConfidence: "2"},
	}

	for name, settings := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			before := cfg.Settings()
			if err := cfg.ApplySettings(settings); !errors.Is(err, ErrInvalid) {
				t.Fatalf("ApplySettings() error = %v, want ErrInvalid", err)
			}
			if !reflect.DeepEqual(cfg.Settings(), before) {
				t.Error("failed ApplySettings modified the config")
			}
		})
	}
}

func TestValidateSetting(t *testing.T) {
	if err := ValidateSetting(KeyStabilityFrames, "3"); err != nil {
		t.Errorf("ValidateSetting() error = %v", err)
	}
	if err := ValidateSetting(KeyStabilityFrames, "0"); err == nil {
		t.Error("ValidateSetting() accepted 0 stability frames")
	}
}
