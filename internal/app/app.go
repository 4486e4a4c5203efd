// Package app provides the main loop that ties capture, detection, classification
// and announcement together.
package app

import (
	"sync"
	"time"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/capture"
	"github.com/ayusman/facepoint/internal/detector"
	"github.com/ayusman/facepoint/internal/overlay"
	"github.com/ayusman/facepoint/internal/proximity"
	"github.com/ayusman/facepoint/internal/region"
)

// QuitKey ends the loop when pressed in the preview window.
const QuitKey = 'q'

// Config holds the collaborators of an App.
type Config struct {
	Camera     capture.Camera
	Detector   detector.Detector
	Announcer  *announcer.Announcer
	Classifier *proximity.Classifier
	Display    overlay.Display

	// PublishFrames keeps a JPEG copy of the latest annotated frame for streaming.
	PublishFrames bool

	// Now returns the detection time. Defaults to time.Now.
	Now func() time.Time
}

// FrameState is the outcome of the most recent frame.
type FrameState struct {
	Frame     uint64      `json:"frame"`
	Region    region.Name `json:"region"`
	Distance  float64     `json:"distance"`
	Hand      int         `json:"hand"`
	FaceFound bool        `json:"face_found"`
	Hands     int         `json:"hands"`
	Speaking  bool        `json:"speaking"`
	At        time.Time   `json:"at"`
}

// App is the perception-and-feedback loop.
type App struct {
	camera     capture.Camera
	detector   detector.Detector
	announcer  *announcer.Announcer
	classifier *proximity.Classifier
	display    overlay.Display
	publish    bool
	now        func() time.Time

	mu       sync.RWMutex
	enabled  bool
	state    FrameState
	jpeg     []byte
	frameSeq uint64
}

// New creates an App. Missing Classifier, Display and Now fall back to the
// default lookup table and threshold, a headless display and time.Now.
func New(config Config) *App {
	a := &App{
		camera:     config.Camera,
		detector:   config.Detector,
		announcer:  config.Announcer,
		classifier: config.Classifier,
		display:    config.Display,
		publish:    config.PublishFrames,
		now:        config.Now,
		enabled:    true,
		state:      FrameState{Region: region.None},
	}

	if a.classifier == nil {
		a.classifier = proximity.NewClassifier(region.Default(), proximity.DefaultThreshold)
	}
	if a.display == nil {
		a.display = overlay.NewHeadless()
	}
	if a.now == nil {
		a.now = time.Now
	}

	return a
}

// SetEnabled pauses or resumes detection. Frames keep flowing while paused.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Status returns the state of the most recent frame.
func (a *App) Status() FrameState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// LatestFrame returns the last annotated frame as JPEG and its sequence
// number. The slice must not be modified.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.jpeg, a.frameSeq
}

// Announcer returns the announcer used by the loop.
func (a *App) Announcer() *announcer.Announcer {
	return a.announcer
}

// Classifier returns the proximity classifier used by the loop.
func (a *App) Classifier() *proximity.Classifier {
	return a.classifier
}

func (a *App) setState(s FrameState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

func (a *App) setFrame(jpeg []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.jpeg = jpeg
	a.frameSeq++
}
