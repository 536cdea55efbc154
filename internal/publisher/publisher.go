package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/internal/metrics"
)

// SubjectSnapshotUpdated announces a committed snapshot batch to
// downstream consumers (dashboards, alerting).
const SubjectSnapshotUpdated = "evt.market.snapshot.updated.v1"

// Publisher wraps a NATS connection and provides helpers for publishing
// pipeline events. Publishing is best effort: callers treat failures as
// warnings, never as run failures.
type Publisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	service string
	logger  *zap.Logger
}

// New creates a new Publisher with JetStream enabled.
func New(nc *nats.Conn, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &Publisher{
		nc:      nc,
		js:      js,
		service: service,
		logger:  logger,
	}, nil
}

// Publish serializes payload as JSON and publishes it to subject.
func (p *Publisher) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"source":       []string{p.service},
			"content_type": []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg); err != nil {
		metrics.NATSPublishErrors.WithLabelValues(subject).Inc()
		p.logger.Warn("publisher.publish_failed",
			zap.String("subject", subject),
			zap.Error(err))
		return err
	}

	p.logger.Debug("publisher.publish_success", zap.String("subject", subject))
	return nil
}

// PublishSnapshotUpdated emits the post-run event for a successful load.
func (p *Publisher) PublishSnapshotUpdated(ctx context.Context, runID uuid.UUID, records int, took time.Duration) error {
	event := map[string]any{
		"event":       SubjectSnapshotUpdated,
		"run_id":      runID.String(),
		"records":     records,
		"duration_ms": took.Milliseconds(),
		"timestamp":   time.Now().UTC(),
	}
	return p.Publish(ctx, SubjectSnapshotUpdated, event)
}
