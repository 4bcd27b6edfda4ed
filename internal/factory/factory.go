// Package factory builds the configured implementations of the core's
// external dependencies.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/genai"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/store"
	"github.com/mymichlin/discovery/internal/store/postgres"
	"github.com/mymichlin/discovery/internal/store/sqlite"
)

// NewStore opens the store selected by cfg.DBDriver and applies its schema.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("DISCOVERY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		st, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		log.Debug().Msg("postgres store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// NewPlacesClient creates the Google Places client.
func NewPlacesClient(cfg *config.Config, log zerolog.Logger) *places.Client {
	if cfg.PlacesAPIKey == "" {
		log.Warn().Msg("DISCOVERY_PLACES_API_KEY not set; provider calls will be rejected")
	}
	return places.NewClient(places.ClientConfig{
		BaseURL:     cfg.PlacesBaseURL,
		APIKey:      cfg.PlacesAPIKey,
		MaxAttempts: cfg.PlacesMaxAttempts,
		Timeout:     time.Duration(cfg.PlacesTimeoutSecs) * time.Second,
	}, log.With().Str("component", "places").Logger())
}

// NewModel creates the chat model, or genai.Unconfigured without an API key.
func NewModel(cfg *config.Config, log zerolog.Logger) genai.Model {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("DISCOVERY_GEMINI_API_KEY not set; chat replies are disabled")
		return genai.Unconfigured
	}
	return genai.NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, 0)
}
