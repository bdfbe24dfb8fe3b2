// Package config loads the runtime configuration: engine tuning, pose source
// and service settings. Defaults and environment overrides come from struct
// tags; user-facing knobs can be overlaid from persisted settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrInvalid is returned for configuration values that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full runtime configuration.
type Config struct {
	StabilityFrames int           `env:"MUDRA_STABILITY_FRAMES" envDefault:"5"`
	Cooldown        time.Duration `env:"MUDRA_COOLDOWN"         envDefault:"800ms"`
	ScrollInterval  time.Duration `env:"MUDRA_SCROLL_INTERVAL"  envDefault:"300ms"`
	PinchThreshold  float64       `env:"MUDRA_PINCH_THRESHOLD"  envDefault:"0.06"`
	Sensitivity     float64       `env:"MUDRA_SENSITIVITY"      envDefault:"1.0"`
	DisconnectHold  time.Duration `env:"MUDRA_DISCONNECT_HOLD"  envDefault:"1500ms"`
	CancelHold      time.Duration `env:"MUDRA_CANCEL_HOLD"      envDefault:"1s"`
	ScrollTop       float64       `env:"MUDRA_SCROLL_TOP"       envDefault:"0.22"`
	ScrollBottom    float64       `env:"MUDRA_SCROLL_BOTTOM"    envDefault:"0.78"`
	ZoneBounds      []float64     `env:"MUDRA_ZONE_BOUNDS"      envDefault:"0.40,0.60,0.80" envSeparator:","`
	SwipeThreshold  float64       `env:"MUDRA_SWIPE_THRESHOLD"  envDefault:"0.2"`
	MinConfidence   float64       `env:"MUDRA_MIN_CONFIDENCE"   envDefault:"0.7"`
	VarianceScale   float64       `env:"MUDRA_VARIANCE_SCALE"   envDefault:"10"`
	PreferredHand   string        `env:"MUDRA_PREFERRED_HAND"   envDefault:"Right"`
	OffHandPenalty  float64       `env:"MUDRA_OFF_HAND_PENALTY" envDefault:"0.7"`
	IdleTimeout     time.Duration `env:"MUDRA_IDLE_TIMEOUT"     envDefault:"8s"`

	// Preset applies a named tuning on top of the values above.
	Preset string `env:"MUDRA_PRESET"`

	CameraID     int  `env:"MUDRA_CAMERA_ID"     envDefault:"0"`
	CameraWidth  int  `env:"MUDRA_CAMERA_WIDTH"  envDefault:"640"`
	CameraHeight int  `env:"MUDRA_CAMERA_HEIGHT" envDefault:"480"`
	CameraFPS    int  `env:"MUDRA_CAMERA_FPS"    envDefault:"30"`
	CameraMirror bool `env:"MUDRA_CAMERA_MIRROR" envDefault:"true"`

	DataDir   string `env:"MUDRA_DATA_DIR"`
	PluginDir string `env:"MUDRA_PLUGIN_DIR"`
	HTTPAddr  string `env:"MUDRA_HTTP_ADDR"  envDefault:"127.0.0.1:8765"`
	// QueueSize is the capacity of the engine to consumer event queue.
	QueueSize int `env:"MUDRA_QUEUE_SIZE" envDefault:"64"`
	// SourceRetries bounds pose source reconnect attempts.
	SourceRetries uint `env:"MUDRA_SOURCE_RETRIES" envDefault:"8"`
}

// Default returns the built-in configuration, ignoring the environment.
func Default() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	cfg.fillDirs()
	return cfg
}

// Load reads the configuration from the environment, applies the preset and
// validates the result.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom is Load with an explicit environment. A nil map means the process
// environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.fillDirs()

	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillDirs() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(homeDir(), ".mudra")
	}
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
}

// DBPath returns the SQLite database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "mudra.db")
}

// Engine returns the gesture engine configuration.
func (c Config) Engine() gesture.Config {
	return gesture.Config{
		StabilityFrames: c.StabilityFrames,
		Cooldown:        c.Cooldown,
		ScrollInterval:  c.ScrollInterval,
		PinchThreshold:  c.PinchThreshold,
		Sensitivity:     c.Sensitivity,
		DisconnectHold:  c.DisconnectHold,
		CancelHold:      c.CancelHold,
		ScrollTop:       c.ScrollTop,
		ScrollBottom:    c.ScrollBottom,
		ZoneBounds:      append([]float64(nil), c.ZoneBounds...),
		SwipeThreshold:  c.SwipeThreshold,
		MinConfidence:   c.MinConfidence,
		VarianceScale:   c.VarianceScale,
		PreferredHand:   c.PreferredHand,
		OffHandPenalty:  c.OffHandPenalty,
		IdleTimeout:     c.IdleTimeout,
	}
}

// Validate checks the engine values and the service values.
func (c Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size must be at least 1", ErrInvalid)
	}
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera id must not be negative", ErrInvalid)
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 || c.CameraFPS <= 0 {
		return fmt.Errorf("%w: camera size and rate must be positive", ErrInvalid)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http address is required", ErrInvalid)
	}
	return nil
}

// Presets are named tunings trading latency for robustness.
var presets = map[string]func(*Config){
	"balanced": func(c *Config) {},
	"performance": func(c *Config) {
		c.StabilityFrames = 4
	},
	"accuracy": func(c *Config) {
		c.StabilityFrames = 8
		c.MinConfidence = 0.85
	},
}

// Presets returns the preset names in order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset applies a named preset.
func (c *Config) ApplyPreset(name string) error {
	apply, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: unknown preset %q", ErrInvalid, name)
	}
	apply(c)
	c.Preset = name
	return nil
}

// Setting keys that may be persisted and edited at runtime.
const (
	KeyPreferredHand   = "preferred_hand"
	KeySensitivity     = "sensitivity"
	KeyStabilityFrames = "stability_frames"
	KeyMinConfidence   = "min_confidence"
	KeyCooldownMS      = "cooldown_ms"
	KeyPreset          = "preset"
)

// SettingKeys lists the keys accepted by ApplySettings.
func SettingKeys() []string {
	return []string{KeyPreferredHand, KeySensitivity, KeyStabilityFrames, KeyMinConfidence, KeyCooldownMS, KeyPreset}
}

// Settings returns the user-facing values as strings.
func (c Config) Settings() map[string]string {
	return map[string]string{
		KeyPreferredHand:   c.PreferredHand,
		KeySensitivity:     strconv.FormatFloat(c.Sensitivity, 'f', -1, 64),
		KeyStabilityFrames: strconv.Itoa(c.StabilityFrames),
		KeyMinConfidence:   strconv.FormatFloat(c.MinConfidence, 'f', -1, 64),
		KeyCooldownMS:      strconv.FormatInt(c.Cooldown.Milliseconds(), 10),
		KeyPreset:          c.Preset,
	}
}

// ApplySettings overlays persisted settings. A preset is applied first so
// individual keys override it. The result is validated; on error c is left
// unchanged.
func (c *Config) ApplySettings(settings map[string]string) error {
	next := *c
	next.ZoneBounds = append([]float64(nil), c.ZoneBounds...)

	if name := settings[KeyPreset]; name != "" {
		if err := next.ApplyPreset(name); err != nil {
			return err
		}
	}

	for key, value := range settings {
		if err := next.set(key, value); err != nil {
			return err
		}
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ValidateSetting checks a single key/value pair against the defaults.
func ValidateSetting(key, value string) error {
	c := Default()
	return c.ApplySettings(map[string]string{key: value})
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case KeyPreset:
		return nil
	case KeyPreferredHand:
		c.PreferredHand = value
	case KeySensitivity:
		c.Sensitivity, err = strconv.ParseFloat(value, 64)
	case KeyStabilityFrames:
		c.StabilityFrames, err = strconv.Atoi(value)
	case KeyMinConfidence:
		c.MinConfidence, err = strconv.ParseFloat(value, 64)
	case KeyCooldownMS:
		var ms int64
		ms, err = strconv.ParseInt(value, 10, 64)
		c.Cooldown = time.Duration(ms) * time.Millisecond
	default:
		return fmt.Errorf("%w: unknown setting %q", ErrInvalid, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
	}
	return nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
