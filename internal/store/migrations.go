package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - user-facing engine knobs as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Events table - journal of emitted gesture events
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK(kind IN ('digit', 'letter', 'action', 'preview')),
			value TEXT NOT NULL,
			confidence REAL NOT NULL,
			zone INTEGER NOT NULL DEFAULT -1,
			occurred_at DATETIME NOT NULL
		)`,

		// Bindings table - plugin actions run when an action gesture fires
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			gesture_action TEXT NOT NULL UNIQUE,
			plugin_name TEXT NOT NULL,
			plugin_action TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
