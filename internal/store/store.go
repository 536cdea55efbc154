package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/pkg/model"
)

//go:embed schema.sql
var schemaSQL string

// Store defines the contract for persisting and serving market snapshots
// and the pipeline run log.
type Store interface {
	EnsureSchema(ctx context.Context) error
	UpsertSnapshots(ctx context.Context, snapshots []model.Snapshot) (int, error)
	InsertRunLog(ctx context.Context, status string, errMsg *string, records int) error
	ListSnapshots(ctx context.Context) ([]model.Snapshot, error)
	GetSnapshot(ctx context.Context, coinID string) (*model.Snapshot, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunLog, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

type hybridStore struct {
	redis    *redis.Client // nil when the cache is disabled
	pg       *pgxpool.Pool
	logger   *zap.Logger
	cacheTTL time.Duration
}

// New creates a Postgres-backed store with an optional Redis snapshot
// cache (redisAddr empty disables it). The Redis client is pinged at
// startup; Postgres connects lazily on first use.
func New(ctx context.Context, pgURL, redisAddr string, redisDB int, redisPass string, cacheTTL time.Duration, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			DB:       redisDB,
			Password: redisPass,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
	}

	cfg, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &hybridStore{redis: rdb, pg: pool, logger: logger, cacheTTL: cacheTTL}, nil
}

// EnsureSchema applies the embedded DDL inside a transaction. The script
// uses CREATE ... IF NOT EXISTS throughout, so repeated runs are no-ops.
func (s *hybridStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return &SchemaError{Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return &SchemaError{Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &SchemaError{Err: err}
	}

	s.logger.Info("store.schema_ready")
	return nil
}

const upsertColumns = `coin_id, symbol, name, current_price_usd, current_price_inr, market_cap, api_last_updated`

// Conflict resolution overwrites price fields, market cap and the source
// timestamp, and refreshes fetched_at; symbol and name keep the values
// set on first insert.
const upsertConflict = `
	ON CONFLICT (coin_id) DO UPDATE SET
		current_price_usd = EXCLUDED.current_price_usd,
		current_price_inr = EXCLUDED.current_price_inr,
		market_cap = EXCLUDED.market_cap,
		api_last_updated = EXCLUDED.api_last_updated,
		fetched_at = CURRENT_TIMESTAMP`

// buildUpsertQuery renders the single multi-row upsert statement for n
// snapshots, 7 parameters per row.
func buildUpsertQuery(n int) string {
	var b strings.Builder
	b.WriteString(`INSERT INTO crypto_market_data (` + upsertColumns + `) VALUES `)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
	}
	b.WriteString(upsertConflict)
	return b.String()
}

func upsertArgs(snapshots []model.Snapshot) []any {
	args := make([]any, 0, len(snapshots)*7)
	for _, snap := range snapshots {
		args = append(args,
			snap.CoinID,
			snap.Symbol,
			snap.Name,
			snap.PriceUSD,
			snap.PriceINR,
			snap.MarketCap,
			snap.LastUpdated,
		)
	}
	return args
}

// UpsertSnapshots writes the whole batch in one statement inside a
// transaction and returns the number of rows written (= len(snapshots);
// inserts and updates are indistinguishable here). After commit the
// snapshots are cached best-effort.
func (s *hybridStore) UpsertSnapshots(ctx context.Context, snapshots []model.Snapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return 0, &LoadError{Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, buildUpsertQuery(len(snapshots)), upsertArgs(snapshots)...); err != nil {
		return 0, &LoadError{Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, &LoadError{Err: err}
	}

	s.cacheSnapshots(ctx, snapshots)

	s.logger.Info("store.snapshots_upserted", zap.Int("count", len(snapshots)))
	return len(snapshots), nil
}

// cacheSnapshots mirrors the committed batch into Redis. Cache failures
// are logged and swallowed; the database remains the source of truth.
func (s *hybridStore) cacheSnapshots(ctx context.Context, snapshots []model.Snapshot) {
	if s.redis == nil {
		return
	}
	for _, snap := range snapshots {
		data, err := json.Marshal(snap)
		if err != nil {
			s.logger.Warn("store.cache_marshal_failed", zap.String("coin_id", snap.CoinID), zap.Error(err))
			continue
		}
		if err := s.redis.Set(ctx, snapshotKey(snap.CoinID), data, s.cacheTTL).Err(); err != nil {
			s.logger.Warn("store.cache_set_failed", zap.String("coin_id", snap.CoinID), zap.Error(err))
		}
	}
}

func snapshotKey(coinID string) string {
	return "snapshot:" + coinID
}

// InsertRunLog appends one row to the pipeline audit trail. Rows are
// never updated or deleted.
func (s *hybridStore) InsertRunLog(ctx context.Context, status string, errMsg *string, records int) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO pipeline_logs (status, error_message, records_processed)
		VALUES ($1, $2, $3)
	`, status, errMsg, records)
	return err
}

const snapshotColumns = `coin_id, symbol, name, current_price_usd, current_price_inr, market_cap, api_last_updated, fetched_at`

func (s *hybridStore) ListSnapshots(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM crypto_market_data
		ORDER BY market_cap DESC NULLS LAST;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, snap)
	}
	return results, rows.Err()
}

// GetSnapshot reads Redis first and falls back to Postgres on a miss.
// Returns (nil, nil) when the asset is unknown.
func (s *hybridStore) GetSnapshot(ctx context.Context, coinID string) (*model.Snapshot, error) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, snapshotKey(coinID)).Bytes()
		if err == nil {
			var snap model.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("store.cache_get_failed", zap.String("coin_id", coinID), zap.Error(err))
		}
	}

	if s.pg == nil {
		return nil, fmt.Errorf("postgres unavailable")
	}

	row := s.pg.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM crypto_market_data
		WHERE coin_id = $1;
	`, coinID)

	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func scanSnapshot(row pgx.Row) (model.Snapshot, error) {
	var snap model.Snapshot
	err := row.Scan(
		&snap.CoinID,
		&snap.Symbol,
		&snap.Name,
		&snap.PriceUSD,
		&snap.PriceINR,
		&snap.MarketCap,
		&snap.LastUpdated,
		&snap.FetchedAt,
	)
	return snap, err
}

func (s *hybridStore) ListRuns(ctx context.Context, limit int) ([]model.RunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pg.Query(ctx, `
		SELECT id, status, error_message, records_processed, created_at
		FROM pipeline_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.RunLog
	for rows.Next() {
		var run model.RunLog
		if err := rows.Scan(&run.ID, &run.Status, &run.ErrorMessage, &run.RecordsProcessed, &run.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, run)
	}
	return results, rows.Err()
}

func (s *hybridStore) HealthCheck(ctx context.Context) error {
	if err := s.pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (s *hybridStore) Close() error {
	s.pg.Close()
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
