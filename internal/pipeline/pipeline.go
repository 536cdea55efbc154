package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/internal/coingecko"
	"github.com/coinpulse/market-etl/internal/metrics"
	"github.com/coinpulse/market-etl/internal/store"
	"github.com/coinpulse/market-etl/pkg/model"
)

// Extractor pulls the raw market listing from the source API.
type Extractor interface {
	FetchMarkets(ctx context.Context) ([]coingecko.MarketRecord, error)
}

// EventPublisher announces successful runs downstream. Implementations
// must tolerate being called best-effort; errors are logged, not acted on.
type EventPublisher interface {
	PublishSnapshotUpdated(ctx context.Context, runID uuid.UUID, records int, took time.Duration) error
}

// Runner sequences one ETL cycle: ensure schema, extract, transform,
// load, log the run. Strictly forward; the first failure at any step
// short-circuits to a FAILED run-log row. Every invocation redoes all
// steps; there is no checkpointing or partial retry.
type Runner struct {
	logger *zap.Logger
	store  store.Store
	source Extractor
	events EventPublisher  // nil disables publishing
	rate   decimal.Decimal // fixed USD→INR conversion rate
}

// New constructs a pipeline runner.
func New(logger *zap.Logger, st store.Store, source Extractor, events EventPublisher, usdinrRate float64) *Runner {
	return &Runner{
		logger: logger,
		store:  st,
		source: source,
		events: events,
		rate:   decimal.NewFromFloat(usdinrRate),
	}
}

// Run executes one full pipeline cycle. The returned error is the
// component failure that aborted the run (already recorded in the run
// log); nil means a SUCCESS row was written.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.New()
	start := time.Now()
	logger := r.logger.With(zap.String("run_id", runID.String()))

	logger.Info("pipeline.run_started")

	if err := r.store.EnsureSchema(ctx); err != nil {
		return r.fail(ctx, logger, err)
	}

	logger.Info("pipeline.extracting")
	raw, err := r.source.FetchMarkets(ctx)
	if err != nil {
		return r.fail(ctx, logger, err)
	}

	logger.Info("pipeline.transforming", zap.Int("raw_records", len(raw)))
	snapshots, err := coingecko.MapSnapshots(raw, r.rate)
	if err != nil {
		return r.fail(ctx, logger, err)
	}

	logger.Info("pipeline.loading", zap.Int("records", len(snapshots)))
	records, err := r.store.UpsertSnapshots(ctx, snapshots)
	if err != nil {
		return r.fail(ctx, logger, err)
	}

	r.logRun(ctx, logger, model.RunStatusSuccess, nil, records)

	took := time.Since(start)
	metrics.RunsTotal.WithLabelValues(model.RunStatusSuccess).Inc()
	metrics.RecordsProcessed.Add(float64(records))
	metrics.RunDuration.Observe(took.Seconds())

	if r.events != nil {
		if err := r.events.PublishSnapshotUpdated(ctx, runID, records, took); err != nil {
			logger.Warn("pipeline.event_publish_failed", zap.Error(err))
		}
	}

	logger.Info("pipeline.run_succeeded",
		zap.Int("records", records),
		zap.Duration("took", took))
	return nil
}

// fail records the aborted run and passes the component error through.
// Error details stay structured until this boundary; only the run-log
// row carries the stringified cause.
func (r *Runner) fail(ctx context.Context, logger *zap.Logger, err error) error {
	stage := stageOf(err)
	logger.Error("pipeline.run_failed",
		zap.String("stage", stage),
		zap.Error(err))

	msg := err.Error()
	r.logRun(ctx, logger, model.RunStatusFailed, &msg, 0)

	metrics.RunsTotal.WithLabelValues(model.RunStatusFailed).Inc()
	metrics.RunFailures.WithLabelValues(stage).Inc()
	return err
}

// logRun appends the run-log row. A failure here is logged and
// swallowed: it must never crash the process or mask the pipeline's own
// success/failure determination.
func (r *Runner) logRun(ctx context.Context, logger *zap.Logger, status string, errMsg *string, records int) {
	if err := r.store.InsertRunLog(ctx, status, errMsg, records); err != nil {
		logger.Error("pipeline.run_log_failed",
			zap.String("status", status),
			zap.Error(err))
		return
	}
	logger.Info("pipeline.run_logged",
		zap.String("status", status),
		zap.Int("records", records))
}

// stageOf labels a component error for metrics and logs.
func stageOf(err error) string {
	var (
		schemaErr    *store.SchemaError
		extractErr   *coingecko.ExtractionError
		transformErr *coingecko.TransformationError
		loadErr      *store.LoadError
	)
	switch {
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &extractErr):
		return "extract"
	case errors.As(err, &transformErr):
		return "transform"
	case errors.As(err, &loadErr):
		return "load"
	default:
		return "unknown"
	}
}
