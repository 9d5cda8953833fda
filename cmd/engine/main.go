package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dstepanov-dev/medslot/internal/accounts"
	"github.com/dstepanov-dev/medslot/internal/api/router"
	"github.com/dstepanov-dev/medslot/internal/booking"
	appconfig "github.com/dstepanov-dev/medslot/internal/config"
	"github.com/dstepanov-dev/medslot/internal/directory"
	"github.com/dstepanov-dev/medslot/internal/gorzdrav"
	"github.com/dstepanov-dev/medslot/internal/http/handlers"
	"github.com/dstepanov-dev/medslot/internal/notify"
	"github.com/dstepanov-dev/medslot/internal/observability/metrics"
	"github.com/dstepanov-dev/medslot/internal/requests"
	"github.com/dstepanov-dev/medslot/internal/sweep"
	"github.com/dstepanov-dev/medslot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medslot booking engine",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it the directory falls back to direct
	// provider reads.
	var cache *redis.Client
	if cfg.DirectoryCacheEnable && cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := cache.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, directory cache disabled", "error", err)
			cache = nil
		}
	}

	api := gorzdrav.NewClient(cfg.GorzdravBaseURL, cfg.GorzdravToken, logger).
		WithTimeout(cfg.GorzdravTimeout)
	sender := notify.NewTelegramSender(cfg.TelegramAPIURL, cfg.TelegramBotToken, logger)

	userStore := accounts.NewStore(pool)
	requestStore := requests.NewStore(pool)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	engine := booking.NewEngine(requestStore, api, sender, logger).
		WithInterval(cfg.BookingInterval).
		WithMetrics(bookingMetrics)
	sweeper := sweep.NewSweeper(userStore, requestStore, sender, logger).
		WithInterval(cfg.SweepInterval).
		WithMetrics(bookingMetrics)

	engine.Start(ctx)
	sweeper.Start(ctx)

	dir := directory.NewService(api, cache, logger).WithTTL(cfg.DirectoryCacheTTL)
	r := router.New(&router.Config{
		Logger:         logger,
		Directory:      handlers.NewDirectoryHandler(dir, logger),
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	// Stop the loops first so no reservation is in flight when the process
	// exits.
	engine.Stop()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("booking engine stopped")
}
