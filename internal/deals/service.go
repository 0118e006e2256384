// Package deals serves the daily-deals strip. Deals change rarely, so the
// service caches one snapshot with a soft TTL: a fresh snapshot is served
// directly, a stale one is served immediately while a background refresh
// replaces it, and only an empty cache blocks on the backend.
package deals

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
)

var dealsCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_deals_cache_lookups_total",
		Help: "Total number of deals cache lookups by outcome",
	},
	[]string{"outcome"},
)

// Backend is the subset of the API client the service needs.
type Backend interface {
	GetDailyDeals(ctx context.Context) ([]api.Deal, error)
}

// Options tune the service.
type Options struct {
	// TTL is the soft freshness window of a snapshot.
	TTL time.Duration
	// RefreshTimeout bounds a background refresh request.
	RefreshTimeout time.Duration
}

// DefaultOptions matches a daily promotion cadence.
func DefaultOptions() Options {
	return Options{
		TTL:            15 * time.Minute,
		RefreshTimeout: 10 * time.Second,
	}
}

// Service answers deals requests from the cache, refreshing through a
// circuit breaker so a struggling backend is not hammered by every page
// view that notices the snapshot went stale.
type Service struct {
	backend Backend
	cache   Cache
	breaker *gobreaker.CircuitBreaker[[]api.Deal]
	opts    Options
	logger  *slog.Logger
	group   singleflight.Group

	mu         sync.Mutex
	refreshing bool

	now func() time.Time
}

// NewService creates a deals service.
func NewService(backend Backend, cache Cache, opts Options, logger *slog.Logger) *Service {
	breaker := gobreaker.NewCircuitBreaker[[]api.Deal](gobreaker.Settings{
		Name:    "daily-deals",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("deals circuit breaker state change",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &Service{
		backend: backend,
		cache:   cache,
		breaker: breaker,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Deals returns the current deals snapshot. A stale snapshot is returned
// immediately and refreshed in the background; only a cold cache waits on
// the backend. When the backend is down and any snapshot exists, the
// snapshot wins over the error.
func (s *Service) Deals(ctx context.Context) ([]api.Deal, error) {
	cached, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "deals cache read failed", slog.String("error", err.Error()))
		ok = false
	}

	if ok && cached.Fresh(s.now()) {
		dealsCacheLookupsTotal.WithLabelValues("fresh").Inc()
		return cached.Value, nil
	}

	if ok {
		// Stale snapshot: serve it now, replace it off the request path.
		dealsCacheLookupsTotal.WithLabelValues("stale").Inc()
		s.refreshInBackground()
		return cached.Value, nil
	}

	dealsCacheLookupsTotal.WithLabelValues("miss").Inc()
	value, err, _ := s.group.Do("deals", func() (any, error) {
		return s.fetchAndStore(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]api.Deal), nil
}

// refreshInBackground starts at most one refresh goroutine at a time. The
// goroutine is detached from the triggering request's lifetime.
func (s *Service) refreshInBackground() {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.refreshing = false
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.RefreshTimeout)
		defer cancel()

		if _, err := s.fetchAndStore(ctx); err != nil {
			// The stale snapshot stays in place; the next stale hit retries.
			s.logger.Warn("background deals refresh failed", slog.String("error", err.Error()))
		}
	}()
}

func (s *Service) fetchAndStore(ctx context.Context) ([]api.Deal, error) {
	deals, err := s.breaker.Execute(func() ([]api.Deal, error) {
		return s.backend.GetDailyDeals(ctx)
	})
	if err != nil {
		return nil, err
	}

	cached := Cached{Value: deals, ExpiresAt: s.now().Add(s.opts.TTL)}
	if storeErr := s.cache.Set(ctx, cached); storeErr != nil {
		s.logger.WarnContext(ctx, "deals cache write failed", slog.String("error", storeErr.Error()))
	}
	return deals, nil
}
