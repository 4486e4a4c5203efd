package app

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/region"
	"github.com/ayusman/facepoint/internal/speech"
	"github.com/ayusman/facepoint/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordHistory(t *testing.T) {
	s := newStore(t)
	engine := speech.NewMockEngine()
	ann := announcer.New(announcer.Config{Engine: engine})
	RecordHistory(ann, s.Announcements())

	require.True(t, ann.AnnounceDetection(region.Mouth, 0.02, t0))

	var list []*store.Announcement
	require.Eventually(t, func() bool {
		var err error
		list, err = s.Announcements().List(0)
		return err == nil && len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Mouth", list[0].Region)
	assert.InDelta(t, 0.02, list[0].Distance, 1e-12)
	assert.NotEmpty(t, list[0].ID)
	assert.Empty(t, list[0].Error)
}

func TestRecordHistory_EngineError(t *testing.T) {
	s := newStore(t)
	engine := speech.NewMockEngine()
	engine.SetError(errors.New("audio device busy"))
	ann := announcer.New(announcer.Config{Engine: engine})
	RecordHistory(ann, s.Announcements())

	require.True(t, ann.Announce(region.Nose, t0))

	require.Eventually(t, func() bool {
		list, err := s.Announcements().List(0)
		return err == nil && len(list) == 1 && list[0].Error == "audio device busy"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRecordHistory_ClosedStoreDoesNotBlock(t *testing.T) {
	s := newStore(t)
	repo := s.Announcements()
	require.NoError(t, s.Close())

	engine := speech.NewMockEngine()
	ann := announcer.New(announcer.Config{Engine: engine})
	RecordHistory(ann, repo)

	require.True(t, ann.Announce(region.Nose, t0))
	require.Eventually(t, func() bool { return !ann.Busy() }, 2*time.Second, 10*time.Millisecond)

	assert.True(t, ann.Announce(region.Mouth, t0.Add(10*time.Millisecond)))
}
