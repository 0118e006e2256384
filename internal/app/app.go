// Package app wires the storefront daemon together: the backend API client,
// the session manager, the domain services, and the local HTTP surface the
// view layer consumes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/revant7/trezora-frontend-sub000/internal/account"
	"github.com/revant7/trezora-frontend-sub000/internal/api"
	"github.com/revant7/trezora-frontend-sub000/internal/cart"
	"github.com/revant7/trezora-frontend-sub000/internal/catalog"
	"github.com/revant7/trezora-frontend-sub000/internal/config"
	"github.com/revant7/trezora-frontend-sub000/internal/deals"
	handler "github.com/revant7/trezora-frontend-sub000/internal/handler/http"
	"github.com/revant7/trezora-frontend-sub000/internal/session"
	"github.com/revant7/trezora-frontend-sub000/internal/wishlist"
	"github.com/revant7/trezora-frontend-sub000/pkg/health"
	"github.com/revant7/trezora-frontend-sub000/pkg/httpclient"
	"github.com/revant7/trezora-frontend-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the storefront daemon.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
}

// tokenSource breaks the construction cycle between the API client and the
// session manager: the client needs a token provider before the manager
// that provides tokens exists.
type tokenSource struct {
	manager *session.Manager
}

func (t *tokenSource) Token() (string, bool) {
	if t.manager == nil {
		return "", false
	}
	return t.manager.Token()
}

// catalogService pairs the list fetcher with the autocomplete endpoint so
// the handler layer sees one catalog surface.
type catalogService struct {
	*catalog.Fetcher
	client *api.Client
}

func (c *catalogService) Autocomplete(ctx context.Context, query string) ([]api.Suggestion, error) {
	return c.client.Autocomplete(ctx, query)
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "dev",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Optional Redis: token store and deals cache. Without it the daemon
	// runs on the file token store and an in-process deals cache.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
	}

	// Backend API client. Requests are never retried: the protocol reports
	// failures to the view and lets the user decide.
	tokens := &tokenSource{}
	transport := httpclient.New(httpclient.NoRetryConfig(cfg.BackendTimeout))
	client := api.NewClient(cfg.BackendBaseURL, transport, tokens, logger)

	// Session manager over the chosen token store.
	var store session.TokenStore
	if rdb != nil {
		store = session.NewRedisStore(rdb)
	} else {
		path := cfg.TokenPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve home dir for token store: %w", err)
			}
			path = filepath.Join(home, ".trezora", "tokens.json")
		}
		store = session.NewFileStore(path)
	}
	sessionManager := session.NewManager(store, client, logger)
	tokens.manager = sessionManager

	// Domain services.
	fetcher := catalog.NewFetcher(client, logger)
	cartSync := cart.NewSynchronizer(client, sessionManager, logger)
	wishlistManager := wishlist.NewManager(client, sessionManager, logger)
	accountService := account.NewService(client, sessionManager, cartSync, logger)

	var dealsCache deals.Cache
	if rdb != nil {
		dealsCache = deals.NewRedisCache(rdb, cfg.DealsRetention)
	} else {
		dealsCache = deals.NewMemoryCache()
	}
	dealsOpts := deals.DefaultOptions()
	dealsOpts.TTL = cfg.DealsTTL
	dealsService := deals.NewService(client, dealsCache, dealsOpts, logger)

	// Per-account state is dropped on sign-out.
	sessionManager.OnSignOut(cartSync.Reset)
	sessionManager.OnSignOut(wishlistManager.Reset)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("backend", client.Ping)
	if rdb != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	router := handler.NewRouter(handler.RouterConfig{
		Session:            sessionManager,
		Catalog:            &catalogService{Fetcher: fetcher, client: client},
		Cart:               cartSync,
		Wishlist:           wishlistManager,
		Account:            accountService,
		Deals:              dealsService,
		Health:             healthHandler,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SignInRatePerSec:   cfg.SignInRatePerSec,
		SignInBurst:        cfg.SignInBurst,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		httpServer:     httpServer,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("shutdown complete")
	return nil
}
