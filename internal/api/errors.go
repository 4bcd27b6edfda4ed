package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mymichlin/discovery/internal/api/respond"
	"github.com/mymichlin/discovery/internal/genai"
	"github.com/mymichlin/discovery/internal/model"
	"github.com/mymichlin/discovery/internal/places"
	"github.com/mymichlin/discovery/internal/searchcache"
)

// writeErr maps domain errors onto HTTP statuses. Unexpected errors are logged once here.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pe *places.Error
		ge *genai.Error
	)
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, searchcache.ErrUnknownCategory):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrNotLocal):
		respond.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, genai.ErrNotConfigured):
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &pe):
		log.Warn().Err(err).Str("url", r.URL.Path).Msg("provider call failed")
		respond.WriteError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &ge):
		log.Warn().Err(err).Int("status", ge.StatusCode).Str("url", r.URL.Path).Msg("model call failed")
		respond.WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respond.WriteError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		log.Debug().Str("url", r.URL.Path).Msg("request cancelled")
		respond.WriteError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Error().Stack().Err(err).Str("method", r.Method).Str("url", r.URL.Path).Msg("request failed")
		respond.WriteInternalError(w, "internal error")
	}
}
