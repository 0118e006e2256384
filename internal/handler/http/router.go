// Package http exposes the storefront protocol to the local view layer.
// Every route is a thin adapter: decode, delegate, encode. Protocol rules
// live in the domain packages.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/revant7/trezora-frontend-sub000/pkg/health"
	"github.com/revant7/trezora-frontend-sub000/pkg/middleware"
)

// RouterConfig carries the wiring the router needs.
type RouterConfig struct {
	Session  SessionService
	Catalog  CatalogService
	Cart     CartService
	Wishlist WishlistService
	Account  AccountService
	Deals    DealsService
	Health   *health.Handler
	Logger   *slog.Logger

	CORSAllowedOrigins []string
	SignInRatePerSec   int
	SignInBurst        int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	}

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	sessionHandler := NewSessionHandler(cfg.Session, cfg.Logger)
	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.Logger)
	cartHandler := NewCartHandler(cfg.Cart, cfg.Logger)
	wishlistHandler := NewWishlistHandler(cfg.Wishlist, cfg.Logger)
	accountHandler := NewAccountHandler(cfg.Account, cfg.Logger)
	dealsHandler := NewDealsHandler(cfg.Deals, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.State)
			r.With(middleware.RateLimit(cfg.SignInRatePerSec, cfg.SignInBurst, cfg.Logger)).
				Post("/sign-in", sessionHandler.SignIn)
			r.Post("/sign-out", sessionHandler.SignOut)
			r.Post("/register", sessionHandler.Register)
		})

		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/search", catalogHandler.Search)
		r.Get("/autocomplete", catalogHandler.Autocomplete)

		r.With(middleware.CacheControl(60)).Get("/deals", dealsHandler.Daily)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Get("/count", cartHandler.GetCount)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.List)
			r.Post("/{productID}/toggle", wishlistHandler.Toggle)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", accountHandler.GetProfile)
			r.Patch("/", accountHandler.UpdateProfile)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", accountHandler.ListOrders)
			r.Post("/", accountHandler.Checkout)
		})
	})

	return r
}

// ContentTypeJSON sets the response content type for all API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
