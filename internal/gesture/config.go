package gesture

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Config holds every tunable of the engine. Values are read when the engine
// is created; reconfiguring means building a new Engine.
type Config struct {
	// StabilityFrames is the run length a digit candidate needs before it is emitted.
	StabilityFrames int
	// Cooldown is the refractory period after a committed action or letter.
	Cooldown time.Duration
	// ScrollInterval is the minimum spacing of scroll events.
	ScrollInterval time.Duration

	PinchThreshold float64
	// Sensitivity scales PinchThreshold.
	Sensitivity float64

	DisconnectHold time.Duration
	CancelHold     time.Duration

	// ScrollTop and ScrollBottom are fractions of frame height; a wrist above
	// ScrollTop scrolls up, below ScrollBottom scrolls down.
	ScrollTop    float64
	ScrollBottom float64

	// ZoneBounds are increasing fractions of frame width splitting the
	// spatial letter zones. N bounds make N+1 zones.
	ZoneBounds []float64

	// SwipeThreshold is the wrist travel, as a fraction of frame width, that
	// the swipe window must average over SwipeWindow frames.
	SwipeThreshold float64

	MinConfidence float64
	// VarianceScale maps fingertip spread variance to confidence loss.
	VarianceScale float64

	// PreferredHand is "Left", "Right" or empty for either. The other hand
	// has its confidence multiplied by OffHandPenalty.
	PreferredHand  string
	OffHandPenalty float64

	// IdleTimeout clears an uncommitted spatial hold when no events occur.
	IdleTimeout time.Duration
}

// DefaultConfig returns the tuning used in the vehicle.
func DefaultConfig() Config {
	return Config{
		StabilityFrames: 5,
		Cooldown:        800 * time.Millisecond,
		ScrollInterval:  300 * time.Millisecond,
		PinchThreshold:  0.06,
		Sensitivity:     1.0,
		DisconnectHold:  1500 * time.Millisecond,
		CancelHold:      1000 * time.Millisecond,
		ScrollTop:       0.22,
		ScrollBottom:    0.78,
		ZoneBounds:      []float64{0.40, 0.60, 0.80},
		SwipeThreshold:  0.2,
		MinConfidence:   0.7,
		VarianceScale:   10,
		PreferredHand:   "Right",
		OffHandPenalty:  0.7,
		IdleTimeout:     8 * time.Second,
	}
}

// Validate checks ranges and orderings.
func (c Config) Validate() error {
	switch {
	case c.StabilityFrames < 1:
		return fmt.Errorf("%w: stability frames must be at least 1", ErrInvalidConfig)
	case c.Cooldown < 0 || c.ScrollInterval < 0:
		return fmt.Errorf("%w: cooldown and scroll interval must not be negative", ErrInvalidConfig)
	case c.DisconnectHold <= 0 || c.CancelHold <= 0:
		return fmt.Errorf("%w: hold durations must be positive", ErrInvalidConfig)
	case c.PinchThreshold <= 0 || c.Sensitivity <= 0:
		return fmt.Errorf("%w: pinch threshold and sensitivity must be positive", ErrInvalidConfig)
	case c.ScrollTop <= 0 || c.ScrollBottom >= 1 || c.ScrollTop >= c.ScrollBottom:
		return fmt.Errorf("%w: scroll zones need 0 < top < bottom < 1", ErrInvalidConfig)
	case c.SwipeThreshold <= 0:
		return fmt.Errorf("%w: swipe threshold must be positive", ErrInvalidConfig)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("%w: min confidence must be within [0,1]", ErrInvalidConfig)
	case c.VarianceScale <= 0:
		return fmt.Errorf("%w: variance scale must be positive", ErrInvalidConfig)
	case c.OffHandPenalty < 0 || c.OffHandPenalty > 1:
		return fmt.Errorf("%w: off-hand penalty must be within [0,1]", ErrInvalidConfig)
	case c.PreferredHand != "" && c.PreferredHand != "Left" && c.PreferredHand != "Right":
		return fmt.Errorf("%w: preferred hand %q", ErrInvalidConfig, c.PreferredHand)
	case c.IdleTimeout <= 0:
		return fmt.Errorf("%w: idle timeout must be positive", ErrInvalidConfig)
	}

	if len(c.ZoneBounds) < 2 {
		return fmt.Errorf("%w: at least two zone bounds are required", ErrInvalidConfig)
	}
	prev := 0.0
	for _, b := range c.ZoneBounds {
		if b <= prev || b >= 1 {
			return fmt.Errorf("%w: zone bounds must increase strictly within (0,1)", ErrInvalidConfig)
		}
		prev = b
	}
	return nil
}
