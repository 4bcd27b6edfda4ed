// Package postgres provides the server store on PostgreSQL via the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mymichlin/discovery/internal/store"
	"github.com/mymichlin/discovery/internal/store/sqlstore"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens dsn, applies the schema and returns a store backed by it.
func New(ctx context.Context, dsn string) (store.Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an already migrated database.
func NewWithDB(db *sql.DB) store.Store { return sqlstore.New(db, sqlstore.Postgres) }

// EnsureSchema creates the discovery tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY CHECK (id = 1),
            name TEXT NOT NULL,
            city TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            cuisines TEXT NOT NULL DEFAULT '[]',
            price_tier INTEGER NOT NULL DEFAULT 0,
            home_lat DOUBLE PRECISION NOT NULL DEFAULT 0,
            home_lng DOUBLE PRECISION NOT NULL DEFAULT 0,
            profile_image BYTEA,
            updated_at BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS restaurants (
            seq BIGSERIAL PRIMARY KEY,
            place_id TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            address TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            website TEXT NOT NULL DEFAULT '',
            price_tier INTEGER NOT NULL DEFAULT 0,
            rating DOUBLE PRECISION NOT NULL DEFAULT 0,
            rating_count INTEGER NOT NULL DEFAULT 0,
            cuisine TEXT NOT NULL DEFAULT 'restaurant',
            lat DOUBLE PRECISION NOT NULL DEFAULT 0,
            lng DOUBLE PRECISION NOT NULL DEFAULT 0,
            open_now BOOLEAN NOT NULL DEFAULT FALSE,
            favourite BOOLEAN NOT NULL DEFAULT FALSE,
            image BYTEA,
            photo_ref TEXT NOT NULL DEFAULT '',
            created_at BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reviews (
            seq BIGSERIAL PRIMARY KEY,
            review_id TEXT NOT NULL UNIQUE,
            place_id TEXT NOT NULL REFERENCES restaurants(place_id) ON DELETE CASCADE,
            author_local BOOLEAN NOT NULL DEFAULT FALSE,
            comment TEXT,
            rating DOUBLE PRECISION NOT NULL,
            published_at BIGINT NOT NULL,
            relative_time TEXT,
            external_ref TEXT UNIQUE
        )`,
		`CREATE INDEX IF NOT EXISTS reviews_place_idx ON reviews(place_id, published_at)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
            seq BIGSERIAL PRIMARY KEY,
            message_id TEXT NOT NULL UNIQUE,
            text TEXT NOT NULL,
            from_user BOOLEAN NOT NULL,
            sent_at BIGINT NOT NULL
        )`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
