package app

import (
	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/logging"
	"github.com/ayusman/facepoint/internal/store"
)

// RecordHistory stores every finished utterance in repo. Write failures are
// logged and never reach the announcer.
func RecordHistory(ann *announcer.Announcer, repo *store.AnnouncementRepository) {
	ann.Subscribe(func(u announcer.Utterance) {
		entry := &store.Announcement{
			ID:         u.ID,
			Region:     string(u.Region),
			Distance:   u.Distance,
			SpokenAt:   u.Started,
			DurationMs: u.Duration.Milliseconds(),
		}
		if u.Err != nil {
			entry.Error = u.Err.Error()
		}

		if err := repo.Create(entry); err != nil {
			logging.Warnw("failed to record announcement", "region", entry.Region, "err", err)
		}
	})
}
