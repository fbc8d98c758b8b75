package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishActivityRecorded logs daulingo.activity.recorded events.
func (p *StubPublisher) PublishActivityRecorded(_ context.Context, event domain.ActivityRecordedEvent) error {
	payload := map[string]any{
		"inserted_events": event.InsertedEvents,
		"new_users":       event.NewUsers,
		"updated_users":   event.UpdatedUsers,
		"recorded_at":     event.RecordedAt,
	}
	p.logEvent(domain.EventTypeActivityRecorded, event.RecordedAt, payload)
	return nil
}

// PublishStateWindowComputed logs daulingo.state.window_computed events.
func (p *StubPublisher) PublishStateWindowComputed(_ context.Context, event domain.StateWindowComputedEvent) error {
	payload := map[string]any{
		"window_start": event.WindowStart,
		"window_end":   event.WindowEnd,
		"users_seen":   event.UsersSeen,
		"rows_deleted": event.RowsDeleted,
		"rows_written": event.RowsWritten,
		"computed_at":  event.ComputedAt,
	}
	p.logEvent(domain.EventTypeStateWindowComputed, event.ComputedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
