package detector

import "gocv.io/x/gocv"

// Detector estimates hand keypoints from camera frames.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds options passed to the pose-estimation service.
type Config struct {
	// MaxHands is the maximum number of hands to track. The gesture engine
	// only consumes the first one.
	MaxHands int

	// ModelComplexity selects the landmark model (0 = lite, 1 = full).
	ModelComplexity int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config tuned for a single driver hand.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		ModelComplexity: 1,
		MinConfidence:   0.75,
		MinTrackingConf: 0.6,
	}
}
