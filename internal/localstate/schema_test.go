package localstate

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestEnsureSQLiteSchema_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, EnsureSQLiteSchema(db))
	require.NoError(t, EnsureSQLiteSchema(db))

	for _, table := range []string{"users", "restaurants", "reviews", "chat_messages"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	_, err = db.Exec(`INSERT INTO users (id, name, updated_at) VALUES (2, 'x', 0)`)
	require.Error(t, err, "users is a singleton table")
}
