package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestAnnouncementRepository_CreateAndGet(t *testing.T) {
	repo := newTestStore(t).Announcements()

	a := &Announcement{
		Region:     "Left Eye",
		Distance:   0.012,
		SpokenAt:   base,
		DurationMs: 640,
	}
	require.NoError(t, repo.Create(a))

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err, "generated ID should be a UUID")

	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)

	if diff := cmp.Diff(a.SpokenAt.UnixMilli(), got.SpokenAt.UnixMilli()); diff != "" {
		t.Errorf("SpokenAt mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Left Eye", got.Region)
	assert.InDelta(t, 0.012, got.Distance, 1e-12)
	assert.Equal(t, int64(640), got.DurationMs)
	assert.Empty(t, got.Error)
}

func TestAnnouncementRepository_CreateDefaults(t *testing.T) {
	repo := newTestStore(t).Announcements()

	a := &Announcement{Region: "Nose", Error: "speech synthesis failed"}
	before := time.Now()
	require.NoError(t, repo.Create(a))

	assert.NotEmpty(t, a.ID)
	assert.False(t, a.SpokenAt.Before(before))

	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "speech synthesis failed", got.Error)
}

func TestAnnouncementRepository_DuplicateID(t *testing.T) {
	repo := newTestStore(t).Announcements()

	require.NoError(t, repo.Create(&Announcement{ID: "fixed", Region: "Nose"}))
	assert.Error(t, repo.Create(&Announcement{ID: "fixed", Region: "Mouth"}))
}

func TestAnnouncementRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestStore(t).Announcements()

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnnouncementRepository_List(t *testing.T) {
	repo := newTestStore(t).Announcements()

	regions := []string{"Nose", "Mouth", "Forehead", "Nose"}
	for i, r := range regions {
		require.NoError(t, repo.Create(&Announcement{
			Region:   r,
			SpokenAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "default limit", limit: 0, want: []string{"Nose", "Forehead", "Mouth", "Nose"}},
		{name: "limited", limit: 2, want: []string{"Nose", "Forehead"}},
		{name: "limit above count", limit: 10, want: []string{"Nose", "Forehead", "Mouth", "Nose"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(tt.limit)
			require.NoError(t, err)

			var got []string
			for _, a := range list {
				got = append(got, a.Region)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("List(%d) mismatch (-want +got):\n%s", tt.limit, diff)
			}
		})
	}
}

func TestAnnouncementRepository_ListEmpty(t *testing.T) {
	repo := newTestStore(t).Announcements()

	list, err := repo.List(5)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnnouncementRepository_CountByRegion(t *testing.T) {
	repo := newTestStore(t).Announcements()

	for _, r := range []string{"Nose", "Nose", "Mouth", "Right Cheek", "Nose"} {
		require.NoError(t, repo.Create(&Announcement{Region: r, SpokenAt: base}))
	}

	counts, err := repo.CountByRegion()
	require.NoError(t, err)

	want := map[string]int{"Nose": 3, "Mouth": 1, "Right Cheek": 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("CountByRegion() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnouncementRepository_Prune(t *testing.T) {
	repo := newTestStore(t).Announcements()

	require.NoError(t, repo.Create(&Announcement{Region: "Nose", SpokenAt: base}))
	require.NoError(t, repo.Create(&Announcement{Region: "Mouth", SpokenAt: base.Add(time.Hour)}))

	n, err := repo.Prune(base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mouth", list[0].Region)
}

func TestSettingsRepository(t *testing.T) {
	settings := newTestStore(t).Settings()

	_, err := settings.Get("voice")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, settings.Set("voice", "en"))
	require.NoError(t, settings.Set("voice", "en-us"))

	got, err := settings.Get("voice")
	require.NoError(t, err)
	assert.Equal(t, "en-us", got)
}

func TestSettingsRepository_Bool(t *testing.T) {
	settings := newTestStore(t).Settings()

	assert.True(t, settings.GetBool(SettingMuted, true))
	assert.False(t, settings.GetBool(SettingMuted, false))

	require.NoError(t, settings.SetBool(SettingMuted, true))
	assert.True(t, settings.GetBool(SettingMuted, false))

	require.NoError(t, settings.Set(SettingMuted, "maybe"))
	assert.False(t, settings.GetBool(SettingMuted, false))
}
