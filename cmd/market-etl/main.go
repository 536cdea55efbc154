package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/coinpulse/market-etl/internal/coingecko"
	"github.com/coinpulse/market-etl/internal/pipeline"
	"github.com/coinpulse/market-etl/internal/publisher"
	"github.com/coinpulse/market-etl/internal/rate"
	"github.com/coinpulse/market-etl/internal/store"
	"github.com/coinpulse/market-etl/pkg/config"
	"github.com/coinpulse/market-etl/pkg/logger"
	"github.com/coinpulse/market-etl/pkg/secrets"
	"github.com/coinpulse/market-etl/pkg/utils"
)

// One-shot pipeline runner. An external scheduler (cron, systemd timer,
// Kubernetes CronJob) is expected to invoke this on an interval.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	if err := run(ctx, cfg); err != nil {
		// The FAILED row is already written; exit non-zero for operability.
		logger.S().Errorw("[market-etl] run failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logg := logger.S()
	logg.Info("starting [market-etl]...")

	dsn, err := resolveDSN(ctx, cfg)
	if err != nil {
		return err
	}
	logg.Info("connecting to DSN: ", utils.MaskDSN(dsn))

	st, err := store.New(ctx, dsn, cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.CacheTTL, logger.L())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	var events pipeline.EventPublisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Warnw("failed to connect to NATS; events disabled", "error", err)
		} else {
			defer nc.Drain() //nolint:errcheck
			pub, err := publisher.New(nc, cfg.ServiceName, logger.L())
			if err != nil {
				logg.Warnw("failed to init publisher; events disabled", "error", err)
			} else {
				events = pub
			}
		}
	}

	// The CoinGecko public tier allows roughly 30 calls/min.
	rateMgr := rate.NewManager(rate.Config{RequestsPerSecond: 2, Burst: 4})
	source := coingecko.NewClient(logger.L(), cfg.CoinGeckoBaseURL, coingecko.Query{
		VsCurrency: cfg.VsCurrency,
		Order:      cfg.MarketOrder,
		PerPage:    cfg.PerPage,
		Page:       cfg.Page,
	}, rateMgr, cfg.HTTPTimeout)

	runner := pipeline.New(logger.L(), st, source, events, cfg.USDINRRate)
	return runner.Run(ctx)
}

// resolveDSN prefers an AWS Secrets Manager secret when configured,
// falling back to DATABASE_URL.
func resolveDSN(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.DatabaseURLSecret == "" {
		return cfg.DatabaseURL, nil
	}

	provider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
	if err != nil {
		return "", err
	}
	resolver := secrets.NewDSNResolver(logger.L(), provider, secrets.NewCache[string](cfg.CacheTTL))
	return resolver.Resolve(ctx, cfg.DatabaseURLSecret)
}
