package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"linkguard/internal/api/handlers"
	apimiddleware "linkguard/internal/api/middleware"
	"linkguard/internal/config"
	"linkguard/internal/infrastructure/cache"
	"linkguard/internal/integrations/telegram"
	"linkguard/internal/integrations/whatsapp"
	"linkguard/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	telegram *telegram.Webhook
	whatsapp *whatsapp.Webhook
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. The webhook handlers are
// optional; nil disables the corresponding routes.
func NewRouter(
	cfg config.Config,
	h *handlers.Handlers,
	c *cache.RedisCache,
	tg *telegram.Webhook,
	wa *whatsapp.Webhook,
	log *logger.Logger,
) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		telegram: tg,
		whatsapp: wa,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled && r.cache != nil {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		api.Post("/scan", r.handlers.Scan.Scan)
		api.Get("/scan/{id}", r.handlers.Scan.Get)
		api.Get("/stats", r.handlers.Scan.Stats)
		api.Post("/report", r.handlers.Scan.Report)

		// Blocklist administration
		api.Route("/admin/known-scams", func(admin chi.Router) {
			admin.Get("/", r.handlers.KnownScam.List)
			admin.Post("/", r.handlers.KnownScam.Add)
			admin.Delete("/{domain}", r.handlers.KnownScam.Delete)
		})
	})

	// Chat platform webhooks. These authenticate with platform-specific
	// secrets, not the API key.
	router.Route("/webhooks", func(hooks chi.Router) {
		if r.telegram != nil {
			hooks.Post("/telegram", r.telegram.Handle)
		}
		if r.whatsapp != nil {
			hooks.Get("/whatsapp", r.whatsapp.Verify)
			hooks.Post("/whatsapp", r.whatsapp.Handle)
		}
	})

	return router
}
