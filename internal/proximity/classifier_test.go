package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/facepoint/internal/landmark"
	"github.com/ayusman/facepoint/internal/region"
)

// farFace returns n landmarks parked well away from any test fingertip.
func farFace(n int) []landmark.Point3D {
	face := make([]landmark.Point3D, n)
	for i := range face {
		face[i] = landmark.Point3D{X: 0.01, Y: 0.99}
	}
	return face
}

func pointingHand(x, y float64) landmark.HandLandmarks {
	var h landmark.HandLandmarks
	h.Points[landmark.IndexTip] = landmark.Point3D{X: x, Y: y}
	return h
}

func TestNewClassifier_DefaultThreshold(t *testing.T) {
	c := NewClassifier(region.Default(), 0)
	assert.Equal(t, DefaultThreshold, c.Threshold())

	c = NewClassifier(region.Default(), 0.05)
	assert.Equal(t, 0.05, c.Threshold())
}

func TestClassify_ExactHit(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	face[1] = landmark.Point3D{X: 0.5, Y: 0.5}

	c := NewClassifier(region.Default(), DefaultThreshold)
	det, ok := c.Classify(landmark.Point3D{X: 0.5, Y: 0.5}, face)

	require.True(t, ok)
	assert.Equal(t, region.Nose, det.Region)
	assert.Equal(t, 1, det.Landmark)
	assert.Zero(t, det.Distance)
}

func TestClassify_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		offset float64
		wantOK bool
	}{
		{name: "well inside", offset: 0.01, wantOK: true},
		{name: "just inside", offset: 0.0299, wantOK: true},
		{name: "just outside", offset: 0.031, wantOK: false},
		{name: "far away", offset: 0.2, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face := farFace(landmark.NumFaceLandmarks)
			face[61] = landmark.Point3D{X: 0.5 + tt.offset, Y: 0.6}

			c := NewClassifier(region.Default(), DefaultThreshold)
			det, ok := c.Classify(landmark.Point3D{X: 0.5, Y: 0.6}, face)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, region.Mouth, det.Region)
			}
		})
	}
}

func TestClassify_DistanceEqualToThreshold(t *testing.T) {
	// 0.25 and its square are exact in binary, so the distance equals the threshold.
	face := farFace(landmark.NumFaceLandmarks)
	face[61] = landmark.Point3D{X: 0.5, Y: 0.5}

	c := NewClassifier(region.Default(), 0.25)
	_, ok := c.Classify(landmark.Point3D{X: 0.25, Y: 0.5}, face)
	assert.False(t, ok, "a landmark exactly at the threshold is not a candidate")

	_, ok = c.Classify(landmark.Point3D{X: 0.375, Y: 0.5}, face)
	assert.True(t, ok)
}

func TestClassify_IgnoresUnlabeledLandmarks(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	// Index 0 is not in the table; it sits exactly on the fingertip.
	face[0] = landmark.Point3D{X: 0.4, Y: 0.4}
	face[10] = landmark.Point3D{X: 0.42, Y: 0.4}

	c := NewClassifier(region.Default(), DefaultThreshold)
	det, ok := c.Classify(landmark.Point3D{X: 0.4, Y: 0.4}, face)

	require.True(t, ok)
	assert.Equal(t, region.Forehead, det.Region)
	assert.Equal(t, 10, det.Landmark)
}

func TestClassify_NearestWins(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	// Higher index is closer; scan order must not matter.
	face[33] = landmark.Point3D{X: 0.52, Y: 0.5}  // d = 0.02
	face[263] = landmark.Point3D{X: 0.51, Y: 0.5} // d = 0.01

	c := NewClassifier(region.Default(), DefaultThreshold)
	det, ok := c.Classify(landmark.Point3D{X: 0.5, Y: 0.5}, face)

	require.True(t, ok)
	assert.Equal(t, region.RightEye, det.Region)
}

func TestClassify_TieKeepsFirstIndex(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	// Dyadic offsets keep both distances exactly equal.
	face[50] = landmark.Point3D{X: 0.5 - 0.015625, Y: 0.5}  // Left Cheek
	face[280] = landmark.Point3D{X: 0.5 + 0.015625, Y: 0.5} // Right Cheek

	c := NewClassifier(region.Default(), DefaultThreshold)
	det, ok := c.Classify(landmark.Point3D{X: 0.5, Y: 0.5}, face)

	require.True(t, ok)
	assert.Equal(t, region.LeftCheek, det.Region)
	assert.Equal(t, 50, det.Landmark)
}

func TestClassify_EmptyFace(t *testing.T) {
	c := NewClassifier(region.Default(), DefaultThreshold)
	_, ok := c.Classify(landmark.Point3D{X: 0.5, Y: 0.5}, nil)
	assert.False(t, ok)
}

func TestClassifyHands_NearestAcrossHands(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	face[1] = landmark.Point3D{X: 0.3, Y: 0.3}
	face[61] = landmark.Point3D{X: 0.7, Y: 0.7}

	hands := []landmark.HandLandmarks{
		pointingHand(0.3, 0.32),  // Nose at d = 0.02
		pointingHand(0.7, 0.705), // Mouth at d = 0.005
	}

	c := NewClassifier(region.Default(), DefaultThreshold)
	det, ok := c.ClassifyHands(face, hands)

	require.True(t, ok)
	assert.Equal(t, region.Mouth, det.Region)
	assert.Equal(t, 1, det.Hand)

	// Swap order: the nearer hand still wins.
	hands[0], hands[1] = hands[1], hands[0]
	det, ok = c.ClassifyHands(face, hands)
	require.True(t, ok)
	assert.Equal(t, region.Mouth, det.Region)
	assert.Equal(t, 0, det.Hand)
}

func TestClassifyHands_TieKeepsFirstHand(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	face[1] = landmark.Point3D{X: 0.25, Y: 0.25}
	face[61] = landmark.Point3D{X: 0.75, Y: 0.75}

	hands := []landmark.HandLandmarks{
		pointingHand(0.765625, 0.75), // Mouth at d = 1/64
		pointingHand(0.265625, 0.25), // Nose at d = 1/64
	}

	c := NewClassifier(region.Default(), DefaultThreshold)
	det, ok := c.ClassifyHands(face, hands)

	require.True(t, ok)
	assert.Equal(t, region.Mouth, det.Region)
	assert.Equal(t, 0, det.Hand)
}

func TestClassifyHands_NoQualifyingHand(t *testing.T) {
	face := farFace(landmark.NumFaceLandmarks)
	face[1] = landmark.Point3D{X: 0.3, Y: 0.3}

	c := NewClassifier(region.Default(), DefaultThreshold)

	_, ok := c.ClassifyHands(face, []landmark.HandLandmarks{pointingHand(0.8, 0.8)})
	assert.False(t, ok)

	_, ok = c.ClassifyHands(face, nil)
	assert.False(t, ok)
}
