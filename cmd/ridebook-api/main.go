// README: Entry point; loads config, runs migrations, wires services, starts HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"ridebook/internal/config"
	httptransport "ridebook/internal/http"
	"ridebook/internal/infra"
	"ridebook/internal/logger"
	"ridebook/internal/modules/billing"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/lifecycle"
	"ridebook/internal/modules/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg := logger.New(cfg.ServiceName, cfg.Env, cfg.Log.Level)
	err = run(cfg, lg)
	if err != nil {
		lg.Error("ridebook-api exited", logger.Error(err))
	}
	_ = lg.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every resource it opens so its defers execute before main exits.
func run(cfg config.Config, lg logger.ILogger) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.RunMigrations {
		applied, err := infra.Migrate(cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		lg.Info("migrations checked", logger.Any("applied", applied))
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer dbPool.Close()

	var (
		billCache billing.Cache
		numbers   booking.NumberGenerator = booking.NewTimeRandomNumbers()
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("redis init: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		billCache = billing.NewRedisCache(redisClient, cfg.Billing.CacheTTL)
		numbers = booking.NewRedisSequenceNumbers(redisClient, "")
	} else {
		lg.Info("redis disabled; bill cache off, time-based booking numbers")
	}

	pricingSvc := pricing.NewService(pricing.DefaultRate)

	bookingSvc := booking.NewService(booking.NewStore(dbPool), numbers, pricingSvc, lg.With(logger.String("module", "booking")))
	bookingSvc.SetNumberRetries(cfg.Booking.NumberRetries)

	billingSvc := billing.NewService(billing.NewStore(dbPool), billCache, lg.With(logger.String("module", "billing")))

	lifecycleSvc := lifecycle.NewService(bookingSvc, billingSvc, lifecycle.NewPgTransactor(dbPool), pricingSvc, lg.With(logger.String("module", "lifecycle")))

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Bookings:    bookingSvc,
		Lifecycle:   lifecycleSvc,
		Bills:       billingSvc,
		Log:         lg,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("shutdown failed", logger.Error(err))
		}
	}()

	lg.Info("http server listening", logger.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	lg.Info("http server stopped")
	return nil
}
