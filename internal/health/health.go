// Package health aggregates component health into one service flag.
package health

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Checker is implemented by component-level checkers such as the store.
type Checker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// Service is healthy when every component checker is.
type Service struct {
	healthy atomic.Bool
	deps    []Checker
	log     zerolog.Logger
}

func NewService(log zerolog.Logger, deps ...Checker) *Service {
	return &Service{deps: deps, log: log}
}

// IsHealthy returns the last evaluated service health.
func (s *Service) IsHealthy() bool { return s.healthy.Load() }

// Down lists the names of the components currently unhealthy, sorted.
func (s *Service) Down() []string {
	var out []string
	for _, c := range s.deps {
		if !c.IsHealthy() {
			out = append(out, c.Name())
		}
	}
	sort.Strings(out)
	return out
}

// StartAll starts every component checker in its own goroutine and then
// evaluates service health until ctx is done.
func (s *Service) StartAll(ctx context.Context, interval time.Duration) {
	for _, c := range s.deps {
		go c.Start(ctx, interval)
	}
	s.Start(ctx, interval)
}

// Start periodically evaluates component health and updates the service flag.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := false
	first := true
	eval := func() {
		down := s.Down()
		cur := len(down) == 0
		s.healthy.Store(cur)
		if cur != prev || first {
			if cur {
				s.log.Info().Msg("service health: UP")
			} else {
				s.log.Error().Strs("down", down).Msg("service health: DOWN")
			}
			prev, first = cur, false
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
