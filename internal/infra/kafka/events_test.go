package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer *fakeAsyncProducer) *EventPublisher {
	t.Helper()

	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "daulingo",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "daulingo",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishStateWindowComputed(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	computedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	event := domain.StateWindowComputedEvent{
		EventID:     "event-123",
		WindowStart: domain.NewDate(2024, time.January, 1),
		WindowEnd:   domain.NewDate(2024, time.February, 10),
		UsersSeen:   42,
		RowsDeleted: 1230,
		RowsWritten: 1250,
		ComputedAt:  computedAt,
	}

	if err := publisher.PublishStateWindowComputed(context.Background(), event); err != nil {
		t.Fatalf("PublishStateWindowComputed returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "daulingo.state.window_computed" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != domain.EventTypeStateWindowComputed {
			t.Fatalf("unexpected event_type: %v", got)
		}

		if got := envelope["event_id"]; got != event.EventID {
			t.Fatalf("unexpected event_id: %v", got)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}
		if timestamp != computedAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["window_start"]; got != "2024-01-01" {
			t.Fatalf("unexpected window_start: %v", got)
		}
		if got := payload["window_end"]; got != "2024-02-10" {
			t.Fatalf("unexpected window_end: %v", got)
		}

		usersSeen, ok := payload["users_seen"].(float64)
		if !ok {
			t.Fatalf("users_seen not numeric: %T", payload["users_seen"])
		}
		if int(usersSeen) != event.UsersSeen {
			t.Fatalf("unexpected users_seen: %v", usersSeen)
		}

		rowsWritten, ok := payload["rows_written"].(float64)
		if !ok {
			t.Fatalf("rows_written not numeric: %T", payload["rows_written"])
		}
		if int(rowsWritten) != event.RowsWritten {
			t.Fatalf("unexpected rows_written: %v", rowsWritten)
		}

		envelopeMetadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}
		if envelopeMetadata["service"] != "daulingo" {
			t.Fatalf("unexpected metadata service: %v", envelopeMetadata["service"])
		}
		if envelopeMetadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", envelopeMetadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishActivityRecorded(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	recordedAt := time.Date(2024, 6, 2, 9, 15, 0, 0, time.UTC)
	event := domain.ActivityRecordedEvent{
		EventID:        "event-456",
		InsertedEvents: 17,
		NewUsers:       3,
		UpdatedUsers:   1,
		RecordedAt:     recordedAt,
	}

	if err := publisher.PublishActivityRecorded(context.Background(), event); err != nil {
		t.Fatalf("PublishActivityRecorded returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "daulingo.activity.recorded" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != domain.EventTypeActivityRecorded {
			t.Fatalf("unexpected event_type: %v", got)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		insertedEvents, ok := payload["inserted_events"].(float64)
		if !ok {
			t.Fatalf("inserted_events not numeric: %T", payload["inserted_events"])
		}
		if int(insertedEvents) != event.InsertedEvents {
			t.Fatalf("unexpected inserted_events: %v", insertedEvents)
		}

		newUsers, ok := payload["new_users"].(float64)
		if !ok {
			t.Fatalf("new_users not numeric: %T", payload["new_users"])
		}
		if int(newUsers) != event.NewUsers {
			t.Fatalf("unexpected new_users: %v", newUsers)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}
