package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishActivityRecorded publishes daulingo.activity.recorded events.
func (p *EventPublisher) PublishActivityRecorded(ctx context.Context, event domain.ActivityRecordedEvent) error {
	payload := struct {
		InsertedEvents int       `json:"inserted_events"`
		NewUsers       int       `json:"new_users"`
		UpdatedUsers   int       `json:"updated_users"`
		RecordedAt     time.Time `json:"recorded_at"`
	}{
		InsertedEvents: event.InsertedEvents,
		NewUsers:       event.NewUsers,
		UpdatedUsers:   event.UpdatedUsers,
		RecordedAt:     event.RecordedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, domain.EventTypeActivityRecorded, event.RecordedAt, payload)
}

// PublishStateWindowComputed publishes daulingo.state.window_computed events.
func (p *EventPublisher) PublishStateWindowComputed(ctx context.Context, event domain.StateWindowComputedEvent) error {
	payload := struct {
		WindowStart domain.Date `json:"window_start"`
		WindowEnd   domain.Date `json:"window_end"`
		UsersSeen   int         `json:"users_seen"`
		RowsDeleted int64       `json:"rows_deleted"`
		RowsWritten int         `json:"rows_written"`
		ComputedAt  time.Time   `json:"computed_at"`
	}{
		WindowStart: event.WindowStart,
		WindowEnd:   event.WindowEnd,
		UsersSeen:   event.UsersSeen,
		RowsDeleted: event.RowsDeleted,
		RowsWritten: event.RowsWritten,
		ComputedAt:  event.ComputedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, domain.EventTypeStateWindowComputed, event.ComputedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
