package server

import (
	"fmt"
	"net/http"
	"time"

	"ferre-pos/internal/backend"
	"ferre-pos/internal/cart"
	"ferre-pos/internal/catalog"
	"ferre-pos/internal/checkout"
	"ferre-pos/internal/config"
	"ferre-pos/internal/fx"
	custommiddleware "ferre-pos/internal/middleware"
	"ferre-pos/internal/notification"
	"ferre-pos/internal/stream"
	"ferre-pos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies carries everything the router needs. The caller owns
// construction and lifetime; the server only wires handlers.
type Dependencies struct {
	Backend       backend.Client
	Quotes        fx.Client
	Catalog       *catalog.Store
	Cart          *cart.Cart
	Notifications *notification.Store
	Stream        *stream.Manager
	Checkout      *checkout.Workflow
	Redis         *redis.Client
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	rateLimit := custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:terminal",
	}, logger)

	// Initialize handlers
	catalogHandler := transport.NewCatalogHandler(deps.Catalog, deps.Backend, logger)
	cartHandler := transport.NewCartHandler(deps.Cart, deps.Catalog, deps.Quotes,
		cfg.Exchange.BaseCurrency, cfg.Exchange.QuoteCurrency, logger)
	checkoutHandler := transport.NewCheckoutHandler(deps.Checkout, deps.Cart, deps.Catalog, deps.Notifications, logger)
	notificationHandler := transport.NewNotificationHandler(deps.Notifications, logger)
	eventsHandler := transport.NewEventsHandler(deps.Stream, logger)

	// Register routes; mutating routes sit behind the per-terminal limiter
	router.Group(func(r chi.Router) {
		r.Use(rateLimit)
		catalogHandler.RegisterRoutes(r)
		cartHandler.RegisterRoutes(r)
		checkoutHandler.RegisterRoutes(r)
		notificationHandler.RegisterRoutes(r)
	})

	// SSE connections are long-lived; counting them against the limiter
	// would starve a terminal that reconnects a few times.
	eventsHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 0, // streaming endpoint; per-step timeouts guard the rest
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Stream != nil {
		s.deps.Stream.Close()
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
