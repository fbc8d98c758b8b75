package domain

import "time"

// Event type identifiers published to the message bus.
const (
	EventTypeActivityRecorded    = "daulingo.activity.recorded"
	EventTypeStateWindowComputed = "daulingo.state.window_computed"
)

// ActivityRecordedEvent represents the payload for daulingo.activity.recorded messages.
type ActivityRecordedEvent struct {
	EventID        string
	InsertedEvents int
	NewUsers       int
	UpdatedUsers   int
	RecordedAt     time.Time
}

// StateWindowComputedEvent represents the payload for daulingo.state.window_computed messages.
type StateWindowComputedEvent struct {
	EventID     string
	WindowStart Date
	WindowEnd   Date
	UsersSeen   int
	RowsDeleted int64
	RowsWritten int
	ComputedAt  time.Time
}
