package localstate

import (
	"database/sql"
)

// EnsureSQLiteSchema creates the discovery tables if they do not exist.
// Timestamps are stored as unix microseconds so ordering is numeric.
func EnsureSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            name TEXT NOT NULL,
            city TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            cuisines TEXT NOT NULL DEFAULT '[]',
            price_tier INTEGER NOT NULL DEFAULT 0,
            home_lat REAL NOT NULL DEFAULT 0,
            home_lng REAL NOT NULL DEFAULT 0,
            profile_image BLOB,
            updated_at INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS restaurants (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            place_id TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            website TEXT NOT NULL DEFAULT '',
            price_tier INTEGER NOT NULL DEFAULT 0,
            rating REAL NOT NULL DEFAULT 0,
            rating_count INTEGER NOT NULL DEFAULT 0,
            cuisine TEXT NOT NULL DEFAULT 'restaurant',
            lat REAL NOT NULL DEFAULT 0,
            lng REAL NOT NULL DEFAULT 0,
            open_now BOOLEAN NOT NULL DEFAULT 0,
            favourite BOOLEAN NOT NULL DEFAULT 0,
            image BLOB,
            photo_ref TEXT NOT NULL DEFAULT '',
            created_at INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS reviews (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            review_id TEXT NOT NULL UNIQUE,
            place_id TEXT NOT NULL REFERENCES restaurants(place_id) ON DELETE CASCADE,
            author_local BOOLEAN NOT NULL DEFAULT 0,
            comment TEXT,
            rating REAL NOT NULL,
            published_at INTEGER NOT NULL,
            relative_time TEXT,
            external_ref TEXT UNIQUE
        );`,
		`CREATE INDEX IF NOT EXISTS reviews_place_idx ON reviews(place_id, published_at);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            message_id TEXT NOT NULL UNIQUE,
            text TEXT NOT NULL,
            from_user BOOLEAN NOT NULL,
            sent_at INTEGER NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
