// Package proximity decides which face region a fingertip is pointing at.
package proximity

import (
	"github.com/ayusman/facepoint/internal/landmark"
	"github.com/ayusman/facepoint/internal/region"
)

// DefaultThreshold is the maximum normalized distance between the fingertip and
// a labeled landmark for the landmark to count as pointed at.
const DefaultThreshold = 0.03

// Detection is the closest labeled landmark to a fingertip.
type Detection struct {
	Region   region.Name // Region of the closest landmark
	Distance float64     // Planar distance in normalized coordinates
	Landmark int         // Face landmark index
	Hand     int         // Index of the hand in the frame's hand list
}

// Classifier matches fingertips against a face using a region lookup table.
type Classifier struct {
	table     region.Table
	threshold float64
}

// NewClassifier creates a Classifier. A threshold <= 0 selects DefaultThreshold.
func NewClassifier(table region.Table, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{
		table:     table,
		threshold: threshold,
	}
}

// Threshold returns the distance threshold in use.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

// Classify returns the labeled landmark closest to tip whose distance is
// strictly below the threshold. Landmarks are scanned in index order and the
// minimum only moves on a strictly smaller distance, so on a tie the lower
// index wins.
func (c *Classifier) Classify(tip landmark.Point3D, face []landmark.Point3D) (Detection, bool) {
	best := Detection{Landmark: -1}
	found := false

	for idx, p := range face {
		name, ok := c.table.Lookup(idx)
		if !ok {
			continue
		}

		d := landmark.Distance2D(tip, p)
		if d >= c.threshold {
			continue
		}

		if !found || d < best.Distance {
			best = Detection{Region: name, Distance: d, Landmark: idx}
			found = true
		}
	}

	return best, found
}

// ClassifyHands classifies every hand's index fingertip against the face and
// returns the nearest detection across all hands. On equal distance the
// earlier hand wins.
func (c *Classifier) ClassifyHands(face []landmark.Point3D, hands []landmark.HandLandmarks) (Detection, bool) {
	var best Detection
	found := false

	for i := range hands {
		det, ok := c.Classify(hands[i].Fingertip(), face)
		if !ok {
			continue
		}
		det.Hand = i

		if !found || det.Distance < best.Distance {
			best = det
			found = true
		}
	}

	return best, found
}
