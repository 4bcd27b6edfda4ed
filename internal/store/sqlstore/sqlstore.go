// Package sqlstore implements store.Store on database/sql. The sqlite and
// postgres packages provide the connection and schema and pick a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/store"
)

// Dialect captures the few differences between the supported engines.
type Dialect struct {
	Name string
	// NumberedParams rewrites ? placeholders to $1, $2, ...
	NumberedParams bool
}

var (
	SQLite   = Dialect{Name: "sqlite"}
	Postgres = Dialect{Name: "postgres", NumberedParams: true}
)

func (d Dialect) rebind(q string) string {
	if !d.NumberedParams {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// New wraps db. Close closes db.
func New(db *sql.DB, d Dialect) store.Store {
	return &sqlStore{db: db, d: d}
}

type sqlStore struct {
	db *sql.DB
	d  Dialect
}

func (s *sqlStore) Users() store.Users             { return &users{s} }
func (s *sqlStore) Restaurants() store.Restaurants { return &restaurants{s} }
func (s *sqlStore) Reviews() store.Reviews         { return &reviews{s} }
func (s *sqlStore) Chats() store.Chats             { return &chats{s} }

func (s *sqlStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqlStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle.
func (s *sqlStore) DB() interface{} { return s.db }

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.Commit()
}

func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
