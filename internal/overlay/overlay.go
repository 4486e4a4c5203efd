// Package overlay draws detection feedback onto frames and shows them in a window.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/facepoint/internal/landmark"
	"github.com/ayusman/facepoint/internal/region"
)

// Text lines drawn by DrawStatus.
const (
	Instructions = "Point your index finger at face parts"
	QuitHint     = "Press 'q' to quit"
)

var (
	Green     = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	White     = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	Red       = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	LightGray = color.RGBA{R: 224, G: 224, B: 224, A: 0}
)

// FingertipRadius is the radius in pixels of the fingertip marker.
const FingertipRadius = 10

// DrawHand draws the hand skeleton and its landmark points.
func DrawHand(frame *gocv.Mat, hand *landmark.HandLandmarks) {
	if frame == nil || frame.Empty() || hand == nil {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	for _, c := range landmark.HandConnections {
		x1, y1 := landmark.ToPixel(hand.Points[c.From], w, h)
		x2, y2 := landmark.ToPixel(hand.Points[c.To], w, h)
		gocv.Line(frame, image.Pt(x1, y1), image.Pt(x2, y2), LightGray, 2)
	}

	for _, p := range hand.Points {
		x, y := landmark.ToPixel(p, w, h)
		gocv.Circle(frame, image.Pt(x, y), 2, Red, 2)
	}
}

// DrawFingertip marks the index fingertip with a filled green circle.
func DrawFingertip(frame *gocv.Mat, hand *landmark.HandLandmarks) {
	if frame == nil || frame.Empty() || hand == nil {
		return
	}
	x, y := landmark.ToPixel(hand.Fingertip(), frame.Cols(), frame.Rows())
	gocv.Circle(frame, image.Pt(x, y), FingertipRadius, Green, -1)
}

// StatusLine formats the detection line shown at the top of the frame.
func StatusLine(name region.Name, speaking bool) string {
	if name == "" {
		name = region.None
	}
	status := "Ready"
	if speaking {
		status = "Speaking..."
	}
	return fmt.Sprintf("Detected: %s (%s)", name, status)
}

// DrawStatus writes the detected region, the announcer state and the usage
// instructions.
func DrawStatus(frame *gocv.Mat, name region.Name, speaking bool) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.PutText(frame, StatusLine(name, speaking), image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, Green, 2)
	gocv.PutText(frame, Instructions, image.Pt(10, 70), gocv.FontHersheySimplex, 0.7, White, 2)
	gocv.PutText(frame, QuitHint, image.Pt(10, 100), gocv.FontHersheySimplex, 0.7, White, 2)
}
