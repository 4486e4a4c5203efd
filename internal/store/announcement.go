package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit is the number of announcements List returns when no
// positive limit is given.
const DefaultListLimit = 50

// Announcement is one spoken region.
type Announcement struct {
	ID         string    `json:"id"`
	Region     string    `json:"region"`
	Distance   float64   `json:"distance"`
	SpokenAt   time.Time `json:"spoken_at"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// AnnouncementRepository stores the announcement history.
type AnnouncementRepository struct {
	db *sql.DB
}

// Announcements returns the announcement repository for this store.
func (s *Store) Announcements() *AnnouncementRepository {
	return &AnnouncementRepository{db: s.db}
}

// Create inserts an announcement. A missing ID is generated and a zero
// SpokenAt is set to now.
func (r *AnnouncementRepository) Create(a *Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.SpokenAt.IsZero() {
		a.SpokenAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO announcements (id, region, distance, spoken_at, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Region, a.Distance, a.SpokenAt.UnixMilli(), a.DurationMs, a.Error,
	)
	return err
}

// GetByID retrieves an announcement by its ID.
func (r *AnnouncementRepository) GetByID(id string) (*Announcement, error) {
	row := r.db.QueryRow(
		`SELECT id, region, distance, spoken_at, duration_ms, error
		 FROM announcements WHERE id = ?`,
		id,
	)

	a, err := scanAnnouncement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns the most recent announcements, newest first.
func (r *AnnouncementRepository) List(limit int) ([]*Announcement, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.Query(
		`SELECT id, region, distance, spoken_at, duration_ms, error
		 FROM announcements ORDER BY spoken_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByRegion returns how many times each region was announced.
func (r *AnnouncementRepository) CountByRegion() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT region, COUNT(*) FROM announcements GROUP BY region`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// Prune deletes announcements spoken before t and returns how many were removed.
func (r *AnnouncementRepository) Prune(before time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM announcements WHERE spoken_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(s scanner) (*Announcement, error) {
	a := &Announcement{}
	var spokenAt int64
	if err := s.Scan(&a.ID, &a.Region, &a.Distance, &spokenAt, &a.DurationMs, &a.Error); err != nil {
		return nil, err
	}
	a.SpokenAt = time.UnixMilli(spokenAt)
	return a, nil
}
