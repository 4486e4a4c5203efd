package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Announcements table - one row per finished utterance
		`CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			region TEXT NOT NULL,
			distance REAL NOT NULL DEFAULT 0,
			spoken_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_announcements_spoken_at ON announcements(spoken_at)`,
		`CREATE INDEX IF NOT EXISTS idx_announcements_region ON announcements(region)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
