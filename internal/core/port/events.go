package port

import (
	"context"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

// EventPublisher publishes domain lifecycle events to the message bus.
type EventPublisher interface {
	PublishActivityRecorded(ctx context.Context, event domain.ActivityRecordedEvent) error
	PublishStateWindowComputed(ctx context.Context, event domain.StateWindowComputedEvent) error
}
