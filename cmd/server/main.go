// productlens - product idea analysis server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/productlens/internal/api"
	"github.com/ashureev/productlens/internal/config"
	"github.com/ashureev/productlens/internal/events"
	"github.com/ashureev/productlens/internal/grpchealth"
	"github.com/ashureev/productlens/internal/identity"
	"github.com/ashureev/productlens/internal/janitor"
	"github.com/ashureev/productlens/internal/llm"
	"github.com/ashureev/productlens/internal/middleware"
	"github.com/ashureev/productlens/internal/orchestrator"
	"github.com/ashureev/productlens/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreDriver)

	// Initialize dependencies.
	repo, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready")

	exchangeLog, err := llm.NewExchangeLogger(cfg.ExchangeLog, logger)
	if err != nil {
		slog.Error("Failed to initialize exchange logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := exchangeLog.Close(); closeErr != nil {
			slog.Error("Failed to close exchange logger", "error", closeErr)
		}
	}()

	// Initialize services.
	broker := events.NewBroker()
	resolver := llm.NewResolver()
	if resolver.Enabled() {
		slog.Info("AI analysis enabled", "provider", resolver.Provider())
	} else {
		slog.Info("AI analysis disabled, demo results will be served", "provider", resolver.Provider())
	}

	orch := orchestrator.New(repo, resolver, broker)
	orch.SetExchangeLog(exchangeLog)
	svc := orchestrator.NewService(repo, orch, broker)

	limiter := middleware.NewRateLimiter(cfg.AnalyzeRateLimit, cfg.AnalyzeRateWindow)
	defer limiter.Stop()

	// Initialize handlers.
	sessionHandler := api.NewSessionHandler(svc, limiter, cfg.AnalyzeTimeout)
	configHandler := api.NewConfigHandler(resolver)
	healthHandler := api.NewHealthHandler(repo)
	wsHandler := events.NewWebSocketHandler(svc, broker, cfg.AllowedOrigins, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)
	configHandler.RegisterRoutes(r)
	sessionHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/sessions/{id}", wsHandler.ServeHTTP)

	// Analyze is synchronous and may take minutes, so WriteTimeout must
	// outlast ANALYZE_TIMEOUT.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AnalyzeTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start janitor.
	janitor.New(repo, janitor.Config{
		Interval:   cfg.JanitorInterval,
		StaleAfter: cfg.StaleProcessingAfter,
		Retention:  cfg.SessionRetention,
	}, broker, broker.CloseSession).Start(ctx)

	if cfg.GRPCHealthPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			slog.Error("Failed to listen for gRPC health", "error", err, "port", cfg.GRPCHealthPort)
			os.Exit(1)
		}
		hs := grpchealth.New(repo, 15*time.Second, logger)
		go func() {
			if err := hs.Serve(ctx, lis); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func openStore(cfg *config.Config) (store.Repository, error) {
	if cfg.StoreDriver == config.StoreSQLite {
		return store.NewSQLite(cfg.DBPath)
	}
	return store.NewMemory(), nil
}
