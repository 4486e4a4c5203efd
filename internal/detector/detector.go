// Package detector provides the landmark provider that locates faces and hands in a frame.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/facepoint/internal/landmark"
)

// Detector defines the interface for landmark provider implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the faces and hands found.
	// An empty Result is returned if nothing is detected.
	Detect(frame *gocv.Mat) (Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Result holds the landmarks found in one frame.
type Result struct {
	Faces []landmark.FaceLandmarks `json:"faces"`
	Hands []landmark.HandLandmarks `json:"hands"`
}

// Face returns the first detected face, if any.
func (r Result) Face() (*landmark.FaceLandmarks, bool) {
	if len(r.Faces) == 0 {
		return nil, false
	}
	return &r.Faces[0], true
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides discovery of mediapipe_service.py.
	ScriptPath string

	// Python overrides the interpreter used to run the service.
	Python string

	// IdleTimeoutSec shuts the model process down after this many seconds without frames.
	IdleTimeoutSec int

	// RestartBackoff is the delay before restarting a service that failed.
	// It doubles with each consecutive failure up to MaxRestartBackoff.
	RestartBackoff time.Duration
}

// MaxRestartBackoff caps the delay between service restarts.
const MaxRestartBackoff = 30 * time.Second

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:        1,
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeoutSec:  30,
		RestartBackoff:  time.Second,
	}
}
