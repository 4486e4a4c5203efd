package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/app"
	"github.com/ayusman/facepoint/internal/capture"
	"github.com/ayusman/facepoint/internal/detector"
	"github.com/ayusman/facepoint/internal/landmark"
	"github.com/ayusman/facepoint/internal/overlay"
	"github.com/ayusman/facepoint/internal/server"
	"github.com/ayusman/facepoint/internal/speech"
	"github.com/ayusman/facepoint/internal/store"
)

func TestE2E_PointAnnounceAndQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer s.Close()

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	camera := capture.NewMockCamera([]*gocv.Mat{&frame, &frame, &frame}, false)

	cheek, ok := detector.FacePoint(280)
	require.True(t, ok)
	det := detector.NewMockDetector()
	det.SetFaces([]landmark.FaceLandmarks{detector.FaceFixture()})
	det.SetHands([]landmark.HandLandmarks{detector.PointingHand(cheek.X+0.005, cheek.Y)})

	engine := speech.NewMockEngine()
	ann := announcer.New(announcer.Config{Engine: engine})
	app.RecordHistory(ann, s.Announcements())

	application := app.New(app.Config{
		Camera:        camera,
		Detector:      det,
		Announcer:     ann,
		Display:       overlay.NewHeadless(),
		PublishFrames: true,
	})

	srv := server.New(server.Config{
		Store:     s,
		Status:    application,
		Frames:    application,
		Announcer: ann,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("RunLoop", func(t *testing.T) {
		require.NoError(t, application.Run(ctx))
		require.NoError(t, ann.Wait(ctx))
		assert.Equal(t, []string{"Right Cheek"}, engine.Spoken())
	})

	t.Run("Status", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var status struct {
			LastSpoken string `json:"last_spoken"`
			Frame      struct {
				Frame  uint64 `json:"frame"`
				Region string `json:"region"`
			} `json:"frame"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		assert.Equal(t, "Right Cheek", status.LastSpoken)
		assert.Equal(t, "Right Cheek", status.Frame.Region)
		assert.Equal(t, uint64(3), status.Frame.Frame)
	})

	t.Run("History", func(t *testing.T) {
		var list struct {
			Announcements []struct {
				Region   string  `json:"region"`
				Distance float64 `json:"distance"`
			} `json:"announcements"`
		}

		require.Eventually(t, func() bool {
			resp, err := client.Get(ts.URL + "/api/announcements")
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				return false
			}
			return len(list.Announcements) == 1
		}, 2*time.Second, 20*time.Millisecond)

		assert.Equal(t, "Right Cheek", list.Announcements[0].Region)
		assert.InDelta(t, 0.005, list.Announcements[0].Distance, 1e-9)
	})

	t.Run("Frame", func(t *testing.T) {
		data, seq := application.LatestFrame()
		assert.Equal(t, uint64(3), seq)
		assert.NotEmpty(t, data)
	})
}
