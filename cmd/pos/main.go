package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ferre-pos/internal/backend"
	"ferre-pos/internal/cart"
	"ferre-pos/internal/catalog"
	"ferre-pos/internal/checkout"
	"ferre-pos/internal/config"
	"ferre-pos/internal/fx"
	"ferre-pos/internal/logger"
	"ferre-pos/internal/notification"
	"ferre-pos/internal/server"
	"ferre-pos/internal/stream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, stop context.CancelFunc, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, cancelSignal := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelSignal()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	cancelSignal() // Allow Ctrl+C to force shutdown

	// Stop the stock stream and notification feeder before draining HTTP.
	stop()

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// loadCatalog fills the view-state from the backend. Any failure logs and
// leaves that slice empty; the terminal starts degraded instead of not at
// all, and the search screen can retry.
func loadCatalog(ctx context.Context, client backend.Client, store *catalog.Store, log *zap.Logger) {
	if branches, err := client.ListBranches(ctx); err != nil {
		log.Error("Failed to load branches", zap.Error(err))
	} else {
		store.SetBranches(branches)
		log.Info("Branches loaded", zap.Int("count", len(branches)))
	}

	if products, err := client.ListProducts(ctx); err != nil {
		log.Error("Failed to load products", zap.Error(err))
	} else {
		store.SetProducts(products)
		log.Info("Products loaded", zap.Int("count", len(products)))
	}

	if rows, err := client.ListStock(ctx, backend.StockFilter{}); err != nil {
		log.Error("Failed to load stock", zap.Error(err))
	} else {
		store.SetStock(rows)
		log.Info("Stock loaded", zap.Int("count", len(rows)))
	}
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting POS terminal service",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Redis backs the per-terminal rate limiter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// The limiter fails open, so a missing redis degrades rather than
		// blocks startup.
		log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
	}

	// Upstream clients
	backendClient := backend.NewClient(cfg.Backend.BaseURL, &http.Client{Timeout: cfg.Backend.Timeout})
	quotes := fx.NewClient(cfg.Exchange.BaseURL, &http.Client{Timeout: cfg.Exchange.Timeout})

	// In-memory state for this terminal
	catalogStore := catalog.NewStore()
	cartState := cart.New()
	notifications := notification.NewStore()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	loadCatalog(bootCtx, backendClient, catalogStore, log)
	cancelBoot()

	// One upstream stream connection shared by every listener. The
	// consuming client must not set a timeout or it would sever the
	// long-lived connection.
	streamCtx, stopStream := context.WithCancel(context.Background())
	manager := stream.NewManager(cfg.Stream.URL, cfg.Stream.ReconnectDelay, &http.Client{}, log)
	manager.Start(streamCtx)

	feederEvents, unsubscribeFeeder := manager.Subscribe(16)
	go func() {
		defer unsubscribeFeeder()
		notification.RunFeeder(streamCtx, feederEvents, notifications, log)
	}()

	workflow := checkout.New(
		backendClient,
		checkout.NewFormSubmitter(&http.Client{Timeout: cfg.Backend.Timeout}),
		cfg.Backend.Timeout,
		log,
	)

	// Create server
	srv := server.NewServer(cfg, log, server.Dependencies{
		Backend:       backendClient,
		Quotes:        quotes,
		Catalog:       catalogStore,
		Cart:          cartState,
		Notifications: notifications,
		Stream:        manager,
		Checkout:      workflow,
		Redis:         redisClient,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, stopStream, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
