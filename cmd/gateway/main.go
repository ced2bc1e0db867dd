package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookbay/storefront/internal/core/service"
	"github.com/bookbay/storefront/internal/infra/backend"
	"github.com/bookbay/storefront/internal/infra/httpx"
	"github.com/bookbay/storefront/internal/infra/session"
	"github.com/bookbay/storefront/internal/pkg/cache"
	"github.com/bookbay/storefront/internal/pkg/telemetry"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	telemetry.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "storefront-gateway"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	client := backend.New(backend.Config{
		BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:3000/api"),
	})

	redisAddr := getEnv("REDIS_ADDR", "redis-cache:6379")
	guestCarts := session.NewGuestCarts(cache.NewRedisCache(redisAddr, "storefront"), session.DefaultTTL)

	manager := service.NewManager(client, client, guestCarts)
	go sweepSessions(ctx, manager)

	handler := httpx.NewHandler(func(sessionID string) httpx.Flow {
		return manager.ForSession(sessionID)
	})

	addr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:    addr,
		Handler: httpx.NewRouter(handler),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}()

	slog.Info("storefront gateway running", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

// sweepSessions evicts idle per-session cart state. Guest carts are not
// touched: they live in Redis with their own TTL.
func sweepSessions(ctx context.Context, manager *service.Manager) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := manager.Sweep(time.Hour); evicted > 0 {
				slog.Info("evicted idle cart sessions", "count", evicted)
			}
		}
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
