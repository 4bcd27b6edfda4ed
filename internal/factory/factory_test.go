package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/genai"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "f.db")

	st, err := NewStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	assert.NoError(t, st.HealthPing(context.Background()))
}

func TestNewStore_Rejects(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "mysql"
	_, err := NewStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)

	cfg.DBDriver = "postgres"
	_, err = NewStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestNewModel_WithoutKey(t *testing.T) {
	m := NewModel(config.NewForTesting(), zerolog.Nop())
	_, err := m.GenerateReply(context.Background(), "hi")
	assert.ErrorIs(t, err, genai.ErrNotConfigured)

	cfg := config.NewForTesting()
	cfg.GeminiAPIKey = "k"
	_, ok := NewModel(cfg, zerolog.Nop()).(*genai.Gemini)
	assert.True(t, ok)
}
