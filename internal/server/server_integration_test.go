package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/app"
	"github.com/ayusman/facepoint/internal/region"
	"github.com/ayusman/facepoint/internal/speech"
	"github.com/ayusman/facepoint/internal/store"
)

func TestAPI_AnnouncementWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	ann := announcer.New(announcer.Config{Engine: speech.NewMockEngine()})
	app.RecordHistory(ann, s.Announcements())

	srv := New(Config{Store: s, Announcer: ann})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()
	t0 := time.Now()

	// 1. Speak two regions
	require.True(t, ann.Announce(region.Nose, t0))
	require.Eventually(t, func() bool { return countRows(t, s) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, ann.Announce(region.Mouth, t0.Add(50*time.Millisecond)))
	require.Eventually(t, func() bool { return countRows(t, s) == 2 }, 2*time.Second, 10*time.Millisecond)

	// 2. List announcements
	resp, err := client.Get(ts.URL + "/api/announcements?limit=10")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Announcements []struct {
			ID     string `json:"id"`
			Region string `json:"region"`
		} `json:"announcements"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list.Announcements, 2)

	// 3. Stats
	resp, err = client.Get(ts.URL + "/api/announcements/stats")
	require.NoError(t, err)
	var stats struct {
		Total    int            `json:"total"`
		ByRegion map[string]int `json:"by_region"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, map[string]int{"Nose": 1, "Mouth": 1}, stats.ByRegion)

	// 4. Mute through the API
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/mute", strings.NewReader(`{"muted":true}`))
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, ann.Muted())
	assert.False(t, ann.Announce(region.Forehead, t0.Add(time.Second)))

	// 5. Status reflects the announcer
	resp, err = client.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	var status statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.True(t, status.Muted)
	assert.Equal(t, "Mouth", status.LastSpoken)
}

func countRows(t *testing.T, s *store.Store) int {
	t.Helper()
	list, err := s.Announcements().List(0)
	if err != nil {
		return -1
	}
	return len(list)
}

func TestAPI_EventsWebSocket(t *testing.T) {
	engine := speech.NewMockEngine()
	ann := announcer.New(announcer.Config{Engine: engine})

	srv := New(Config{Announcer: ann})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Events().Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.True(t, ann.AnnounceDetection(region.RightCheek, 0.015, time.Now()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "utterance", ev.Type)
	assert.Equal(t, "Right Cheek", ev.Region)
	assert.InDelta(t, 0.015, ev.Distance, 1e-12)
	assert.NotEmpty(t, ev.ID)
	assert.Empty(t, ev.Error)

	conn.Close()
	require.Eventually(t, func() bool { return srv.Events().Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

type fakeFrames struct {
	mu   sync.Mutex
	data []byte
	seq  uint64
}

func (f *fakeFrames) LatestFrame() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.seq
}

func (f *fakeFrames) set(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
	f.seq++
}

func TestAPI_Stream(t *testing.T) {
	frames := &fakeFrames{}
	frames.set([]byte{0xff, 0xd8, 0xaa, 0xff, 0xd9})

	srv := New(Config{Frames: frames})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	header := readLines(t, reader, 4)
	assert.Equal(t, []string{"--frame", "Content-Type: image/jpeg", "Content-Length: 5", ""}, header)

	body := make([]byte, 5)
	_, err = io.ReadFull(reader, body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xaa, 0xff, 0xd9}, body)

	// A new frame produces a second part.
	frames.set([]byte{0xff, 0xd8, 0xbb, 0xff, 0xd9})
	readLines(t, reader, 1)
	header = readLines(t, reader, 4)
	assert.Equal(t, "Content-Length: 5", header[2])
}

func readLines(t *testing.T, r *bufio.Reader, n int) []string {
	t.Helper()
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
	return lines
}

func TestServer_Serve_Shutdown(t *testing.T) {
	srv := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
