package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/coinpulse/market-etl/internal/api"
	"github.com/coinpulse/market-etl/internal/metrics"
	"github.com/coinpulse/market-etl/internal/store"
	"github.com/coinpulse/market-etl/pkg/config"
	"github.com/coinpulse/market-etl/pkg/logger"
	"github.com/coinpulse/market-etl/pkg/secrets"
	"github.com/coinpulse/market-etl/pkg/utils"
)

// Read-side API over the snapshots and run log written by market-etl.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	cfg.ServiceName = config.GetEnv("SERVICE_NAME", "market-api")
	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [market-api]...")

	dsn := cfg.DatabaseURL
	if cfg.DatabaseURLSecret != "" {
		provider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to init AWS provider", "error", err)
		}
		resolver := secrets.NewDSNResolver(logger.L(), provider, secrets.NewCache[string](cfg.CacheTTL))
		dsn, err = resolver.Resolve(ctx, cfg.DatabaseURLSecret)
		if err != nil {
			logg.Fatalw("failed to resolve DSN secret", "error", err)
		}
	}
	logg.Info("connecting to DSN: ", utils.MaskDSN(dsn))

	st, err := store.New(ctx, dsn, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.CacheTTL, logger.L())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}
	defer st.Close() //nolint:errcheck

	metrics.StartServer(fmt.Sprintf(":%d", cfg.MetricsPort))

	app := fiber.New()
	api.RegisterRoutes(app, api.NewHandler(logger.L(), st))

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logg.Info("shutting down [market-api]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.ShutdownWithContext(shutdownCtx) //nolint:errcheck
}
