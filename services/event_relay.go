package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pos-service/models"
	awspkg "pos-service/pkg/aws"
	"pos-service/repository"

	"go.uber.org/zap"
)

const defaultRelayBatchSize = 50

// EventRelay publishes outbox rows to SNS. It runs next to the HTTP server
// and never inside a request.
type EventRelay struct {
	store     repository.Store
	publisher awspkg.SNSPublisher
	topicArn  string
	metrics   awspkg.MetricsRecorder
	logger    *zap.Logger
	batchSize int
	now       Clock
}

// NewEventRelay creates a relay. metrics may be nil.
func NewEventRelay(
	store repository.Store,
	publisher awspkg.SNSPublisher,
	topicArn string,
	metrics awspkg.MetricsRecorder,
	logger *zap.Logger,
	now Clock,
) *EventRelay {
	return &EventRelay{
		store:     store,
		publisher: publisher,
		topicArn:  topicArn,
		metrics:   metrics,
		logger:    logger,
		batchSize: defaultRelayBatchSize,
		now:       clockOrDefault(now),
	}
}

// Start relays a batch every interval until ctx is cancelled.
func (r *EventRelay) Start(ctx context.Context, interval time.Duration) {
	r.logger.Info("Event relay started", zap.String("topic_arn", r.topicArn), zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Event relay shutting down")
			return
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("Event relay batch failed", zap.Error(err))
			}
		}
	}
}

// RelayOnce publishes up to one batch of unpublished events and returns how
// many were published. A failed publish is recorded on the row and retried
// on a later batch.
func (r *EventRelay) RelayOnce(ctx context.Context) (int, error) {
	if r.publisher == nil || r.topicArn == "" {
		return 0, errors.New("event relay: SNS publisher not configured")
	}

	published := 0
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		events, err := tx.Outbox().FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		for i := range events {
			e := &events[i]
			if err := r.publish(ctx, e); err != nil {
				r.logger.Warn("Failed to publish event",
					zap.String("event_id", e.ID.String()),
					zap.String("kind", string(e.Kind)),
					zap.Int("attempts", e.Attempts+1),
					zap.Error(err),
				)
				r.count(ctx, awspkg.MetricEventPublishFailed, e.Kind)
				if err := tx.Outbox().MarkFailed(ctx, e.ID, err.Error()); err != nil {
					return err
				}
				continue
			}
			if err := tx.Outbox().MarkPublished(ctx, e.ID, r.now()); err != nil {
				return err
			}
			published++
			r.recordBusinessMetrics(ctx, e)
		}
		return nil
	})
	if err != nil {
		return published, err
	}

	if backlog, err := r.store.Outbox().CountUnpublished(ctx); err == nil && r.metricsEnabled() {
		_ = r.metrics.RecordValue(ctx, awspkg.MetricOutboxBacklog, float64(backlog), nil)
	}
	if published > 0 {
		r.logger.Debug("Relayed events", zap.Int("count", published))
	}
	return published, nil
}

func (r *EventRelay) publish(ctx context.Context, e *models.OutboxEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, r.topicArn, body, map[string]string{
		"event_type": string(e.Kind),
		"tenant_id":  e.TenantID.String(),
	})
}

func (r *EventRelay) recordBusinessMetrics(ctx context.Context, e *models.OutboxEvent) {
	r.count(ctx, awspkg.MetricEventsPublished, e.Kind)

	switch e.Kind {
	case models.EventOrderStatusChanged:
		if p := e.Payload.OrderStatusChanged; p != nil {
			switch p.To {
			case models.OrderStatusPaid:
				r.count(ctx, awspkg.MetricOrdersPaid, e.Kind)
			case models.OrderStatusCancelled:
				r.count(ctx, awspkg.MetricOrdersCancelled, e.Kind)
			}
		}
	case models.EventMovementPosted:
		r.count(ctx, awspkg.MetricMovementsPosted, e.Kind)
	case models.EventMovementCancelled:
		r.count(ctx, awspkg.MetricMovementsCancelled, e.Kind)
	case models.EventLowStock:
		r.count(ctx, awspkg.MetricInventoryLow, e.Kind)
	case models.EventCashSessionClosed:
		r.count(ctx, awspkg.MetricCashSessionsClosed, e.Kind)
		if p := e.Payload.CashSessionClosed; p != nil && r.metricsEnabled() {
			_ = r.metrics.RecordValue(ctx, awspkg.MetricCashDifferenceCents, float64(p.CashDifferenceCents), nil)
		}
	}
}

func (r *EventRelay) metricsEnabled() bool {
	return r.metrics != nil && r.metrics.IsEnabled()
}

func (r *EventRelay) count(ctx context.Context, metric string, kind models.EventKind) {
	if !r.metricsEnabled() {
		return
	}
	_ = r.metrics.RecordCount(ctx, metric, map[string]string{"EventKind": string(kind)})
}
