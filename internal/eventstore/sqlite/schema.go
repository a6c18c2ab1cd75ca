package sqlite

import "database/sql"

// EnsureSchema creates core tables if they do not exist. Safe to call
// repeatedly on startup.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS TimelineEvents (
            EventId TEXT NOT NULL,
            UserId TEXT NOT NULL,
            SourceType TEXT NOT NULL,
            SourceId TEXT NOT NULL,
            Timestamp TIMESTAMP NOT NULL,
            Content TEXT NOT NULL DEFAULT '',
            Metadata TEXT,
            Category TEXT,
            Tags TEXT,
            Sentiment TEXT,
            Seq INTEGER PRIMARY KEY AUTOINCREMENT,
            UNIQUE(UserId, EventId)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_time ON TimelineEvents(UserId, Timestamp);`,
		`CREATE TABLE IF NOT EXISTS Biographies (
            BiographyId TEXT NOT NULL,
            UserId TEXT NOT NULL,
            Title TEXT NOT NULL,
            Style TEXT NOT NULL,
            Introduction TEXT NOT NULL DEFAULT '',
            Conclusion TEXT NOT NULL DEFAULT '',
            Chapters TEXT NOT NULL,
            Metadata TEXT NOT NULL,
            GeneratedAt TIMESTAMP NOT NULL,
            PRIMARY KEY(UserId, BiographyId)
        );`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
