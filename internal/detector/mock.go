package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/facepoint/internal/landmark"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	result Result
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []landmark.FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result.Faces = faces
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []landmark.HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result.Hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured result or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Result{}, m.err
	}
	return m.result, nil
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// facePoints places the labeled landmarks of FaceFixture. Regions are at
// least 0.07 apart so a fingertip on one never reaches another.
var facePoints = map[int]landmark.Point3D{
	// Nose
	1: {X: 0.50, Y: 0.50}, 2: {X: 0.50, Y: 0.52}, 5: {X: 0.50, Y: 0.48}, 6: {X: 0.50, Y: 0.44},
	// Left Eye
	33: {X: 0.40, Y: 0.40}, 133: {X: 0.44, Y: 0.40}, 159: {X: 0.42, Y: 0.39}, 145: {X: 0.42, Y: 0.41},
	// Right Eye
	263: {X: 0.60, Y: 0.40}, 362: {X: 0.56, Y: 0.40}, 386: {X: 0.58, Y: 0.39}, 374: {X: 0.58, Y: 0.41},
	// Mouth
	61: {X: 0.46, Y: 0.62}, 13: {X: 0.50, Y: 0.61}, 14: {X: 0.50, Y: 0.63},
	17: {X: 0.50, Y: 0.66}, 18: {X: 0.50, Y: 0.68}, 200: {X: 0.50, Y: 0.71},
	// Forehead
	10: {X: 0.50, Y: 0.25}, 151: {X: 0.50, Y: 0.28}, 9: {X: 0.50, Y: 0.32},
	// Left Cheek
	50: {X: 0.40, Y: 0.54}, 116: {X: 0.36, Y: 0.50}, 117: {X: 0.38, Y: 0.52}, 118: {X: 0.40, Y: 0.50},
	// Right Cheek
	280: {X: 0.60, Y: 0.54}, 345: {X: 0.64, Y: 0.50}, 346: {X: 0.62, Y: 0.52}, 347: {X: 0.60, Y: 0.50},
}

// FaceFixture returns a frontal 468-point face centered in the frame.
// Labeled landmarks sit at fixed anatomical positions; the rest trace the
// face oval.
func FaceFixture() landmark.FaceLandmarks {
	face := landmark.FaceLandmarks{
		Points: make([]landmark.Point3D, landmark.NumFaceLandmarks),
		Score:  0.99,
	}

	for i := range face.Points {
		if p, ok := facePoints[i]; ok {
			face.Points[i] = p
			continue
		}
		angle := 2 * math.Pi * float64(i) / float64(landmark.NumFaceLandmarks)
		face.Points[i] = landmark.Point3D{
			X: 0.5 + 0.17*math.Cos(angle),
			Y: 0.5 + 0.27*math.Sin(angle),
		}
	}

	return face
}

// FacePoint returns the FaceFixture position of a labeled landmark.
func FacePoint(index int) (landmark.Point3D, bool) {
	p, ok := facePoints[index]
	return p, ok
}

// PointingHand returns a right hand with the index finger extended and its
// tip at (x, y). The other fingers are curled below the tip.
func PointingHand(x, y float64) landmark.HandLandmarks {
	hand := landmark.HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	// Offsets relative to the index fingertip.
	offsets := [landmark.NumLandmarks]landmark.Point3D{
		landmark.Wrist:     {X: 0.02, Y: 0.30},
		landmark.ThumbCMC:  {X: 0.06, Y: 0.26},
		landmark.ThumbMCP:  {X: 0.09, Y: 0.22},
		landmark.ThumbIP:   {X: 0.10, Y: 0.18},
		landmark.ThumbTip:  {X: 0.09, Y: 0.15},
		landmark.IndexMCP:  {X: 0.03, Y: 0.18},
		landmark.IndexPIP:  {X: 0.02, Y: 0.11},
		landmark.IndexDIP:  {X: 0.01, Y: 0.05},
		landmark.IndexTip:  {X: 0, Y: 0},
		landmark.MiddleMCP: {X: -0.01, Y: 0.19},
		landmark.MiddlePIP: {X: -0.01, Y: 0.15},
		landmark.MiddleDIP: {X: 0.00, Y: 0.17},
		landmark.MiddleTip: {X: 0.01, Y: 0.19},
		landmark.RingMCP:   {X: -0.04, Y: 0.20},
		landmark.RingPIP:   {X: -0.04, Y: 0.17},
		landmark.RingDIP:   {X: -0.03, Y: 0.19},
		landmark.RingTip:   {X: -0.02, Y: 0.21},
		landmark.PinkyMCP:  {X: -0.07, Y: 0.22},
		landmark.PinkyPIP:  {X: -0.07, Y: 0.19},
		landmark.PinkyDIP:  {X: -0.06, Y: 0.21},
		landmark.PinkyTip:  {X: -0.05, Y: 0.23},
	}

	for i, o := range offsets {
		hand.Points[i] = landmark.Point3D{X: x + o.X, Y: y + o.Y, Z: o.Z}
	}

	return hand
}
