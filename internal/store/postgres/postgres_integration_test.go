package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mymichlin/discovery/internal/store"
	"github.com/mymichlin/discovery/internal/store/storetest"
)

// postgresDSN returns an explicit DSN, or starts a throwaway container when
// DISCOVERY_TEST_POSTGRES=1. Otherwise the test is skipped.
func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("DISCOVERY_TEST_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("DISCOVERY_TEST_POSTGRES") != "1" {
		t.Skip("DISCOVERY_TEST_POSTGRES not set; skipping postgres store integration test")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "discovery",
			"POSTGRES_PASSWORD": "discovery",
			"POSTGRES_DB":       "discovery",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://discovery:discovery@%s:%s/discovery?sslmode=disable", host, port.Port())
}

func makePGStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, postgresDSN(t))
	require.NoError(t, err)
	db := s.(interface{ DB() interface{} }).DB().(*sql.DB)
	_, err = db.ExecContext(ctx, `TRUNCATE reviews, restaurants, users, chat_messages RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore_Compliance(t *testing.T) {
	storetest.Run(t, makePGStore)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}
