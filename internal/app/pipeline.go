package app

import (
	"context"
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/facepoint/internal/capture"
	"github.com/ayusman/facepoint/internal/detector"
	"github.com/ayusman/facepoint/internal/logging"
	"github.com/ayusman/facepoint/internal/overlay"
	"github.com/ayusman/facepoint/internal/region"
)

// Run opens the camera and processes frames until the quit key is pressed,
// ctx is cancelled or the camera stops delivering frames. Only a camera open
// failure is returned as an error. The camera and display are released on
// every exit path.
//
// Per frame:
//  1. Read and mirror the frame
//  2. Detect face and hand landmarks
//  3. With a face and at least one hand, classify every fingertip and keep
//     the nearest region
//  4. Announce the region
//  5. Draw the status, show the frame and poll for the quit key
func (a *App) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			logging.Warnw("close camera", "err", err)
		}
		if err := a.display.Close(); err != nil {
			logging.Warnw("close display", "err", err)
		}
	}()

	logging.Infow("detection loop started")

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			logging.Infow("detection loop stopped", "reason", ctx.Err())
			return nil
		default:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				logging.Infow("camera stream ended")
			} else {
				logging.Warnw("camera read failed", "err", err)
			}
			return nil
		}

		seq++
		a.processFrame(frame, seq)
		a.display.Show(frame)
		if a.publish {
			a.publishFrame(frame)
		}
		frame.Close()

		if a.display.PollKey() == QuitKey {
			logging.Infow("quit requested")
			return nil
		}
	}
}

// processFrame runs detection on one frame, announces what it finds and
// draws the overlay onto the frame.
func (a *App) processFrame(frame *gocv.Mat, seq uint64) {
	capture.Mirror(frame)

	state := FrameState{
		Frame:  seq,
		Region: region.None,
		Hand:   -1,
		At:     a.now(),
	}

	if a.IsEnabled() && a.detector != nil {
		a.detect(frame, &state)
	}

	state.Speaking = a.announcer != nil && a.announcer.Busy()
	overlay.DrawStatus(frame, state.Region, state.Speaking)
	a.setState(state)
}

func (a *App) detect(frame *gocv.Mat, state *FrameState) {
	result, err := a.detector.Detect(frame)
	if errors.Is(err, detector.ErrServiceBackoff) {
		logging.Debugw("detection paused", "frame", state.Frame, "err", err)
		return
	}
	if err != nil {
		logging.Warnw("detection failed", "frame", state.Frame, "err", err)
		return
	}

	face, ok := result.Face()
	state.FaceFound = ok
	state.Hands = len(result.Hands)
	if !ok || len(result.Hands) == 0 {
		return
	}

	for i := range result.Hands {
		overlay.DrawHand(frame, &result.Hands[i])
		overlay.DrawFingertip(frame, &result.Hands[i])
	}

	det, found := a.classifier.ClassifyHands(face.Points, result.Hands)
	if !found {
		return
	}

	state.Region = det.Region
	state.Distance = det.Distance
	state.Hand = det.Hand

	if a.announcer != nil {
		a.announcer.AnnounceDetection(det.Region, det.Distance, state.At)
	}
}

func (a *App) publishFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		logging.Debugw("encode frame for stream", "err", err)
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	a.setFrame(data)
}
