package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

var (
	// ErrEmptyUserID indicates an activity event without a user identifier.
	ErrEmptyUserID = errors.New("usecase: activity event has empty user id")
	// ErrZeroTimestamp indicates an activity event without a timestamp.
	ErrZeroTimestamp = errors.New("usecase: activity event has zero timestamp")
)

// IngestResult summarizes one ingestion batch.
type IngestResult struct {
	InsertedEvents int
	NewUsers       int
	UpdatedUsers   int
}

// IngestService records raw activity events and keeps the user dimension
// consistent: unseen users are created and first_seen_date only ever moves
// earlier as out-of-order activity arrives.
type IngestService struct {
	users     port.UserRepository
	activity  port.ActivityRepository
	publisher port.EventPublisher
	log       *zap.Logger
}

// NewIngestService constructs an IngestService.
func NewIngestService(users port.UserRepository, activity port.ActivityRepository, log *zap.Logger) *IngestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestService{users: users, activity: activity, log: log}
}

// WithEventPublisher attaches a publisher for activity-recorded events.
func (s *IngestService) WithEventPublisher(publisher port.EventPublisher) *IngestService {
	s.publisher = publisher
	return s
}

// Ingest validates and persists a batch of activity events. Malformed events
// reject the whole batch before anything is written.
func (s *IngestService) Ingest(ctx context.Context, events []domain.ActivityEvent) (IngestResult, error) {
	var result IngestResult
	if len(events) == 0 {
		return result, nil
	}

	// Earliest activity date per user within this batch.
	batchMin := make(map[string]domain.Date)
	for i, event := range events {
		if strings.TrimSpace(event.UserID) == "" {
			return result, fmt.Errorf("event %d: %w", i, ErrEmptyUserID)
		}
		if event.OccurredAt.IsZero() {
			return result, fmt.Errorf("event %d (user %s): %w", i, event.UserID, ErrZeroTimestamp)
		}
		day := domain.DateOf(event.OccurredAt)
		if prev, ok := batchMin[event.UserID]; !ok || day.Before(prev) {
			batchMin[event.UserID] = day
		}
	}

	newUsers, updatedUsers, err := s.ensureUsers(ctx, batchMin)
	if err != nil {
		return result, err
	}
	result.NewUsers = newUsers
	result.UpdatedUsers = updatedUsers

	inserted, err := s.activity.BulkInsert(ctx, events)
	if err != nil {
		return result, fmt.Errorf("insert activity events: %w", err)
	}
	result.InsertedEvents = inserted

	s.log.Info("activity batch ingested",
		zap.Int("inserted_events", inserted),
		zap.Int("new_users", newUsers),
		zap.Int("updated_users", updatedUsers),
	)

	if s.publisher != nil {
		event := domain.ActivityRecordedEvent{
			EventID:        uuid.NewString(),
			InsertedEvents: inserted,
			NewUsers:       newUsers,
			UpdatedUsers:   updatedUsers,
			RecordedAt:     time.Now().UTC(),
		}
		if err := s.publisher.PublishActivityRecorded(ctx, event); err != nil {
			s.log.Warn("failed to publish activity recorded event", zap.Error(err))
		}
	}

	return result, nil
}

// ensureUsers inserts missing dimension rows and moves first_seen_date
// earlier when this batch contains older activity for a known user.
func (s *IngestService) ensureUsers(ctx context.Context, batchMin map[string]domain.Date) (int, int, error) {
	if len(batchMin) == 0 {
		return 0, 0, nil
	}

	userIDs := make([]string, 0, len(batchMin))
	for id := range batchMin {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	existing, err := s.users.FirstSeenFor(ctx, userIDs)
	if err != nil {
		return 0, 0, fmt.Errorf("load existing users: %w", err)
	}

	var toInsert, toUpdate []domain.UserFirstSeen
	for _, id := range userIDs {
		seen := batchMin[id]
		current, ok := existing[id]
		switch {
		case !ok:
			toInsert = append(toInsert, domain.UserFirstSeen{UserID: id, FirstSeenDate: seen})
		case seen.Before(current):
			toUpdate = append(toUpdate, domain.UserFirstSeen{UserID: id, FirstSeenDate: seen})
		}
	}

	inserted, err := s.users.InsertUsers(ctx, toInsert)
	if err != nil {
		return 0, 0, fmt.Errorf("insert users: %w", err)
	}
	updated, err := s.users.UpdateFirstSeen(ctx, toUpdate)
	if err != nil {
		return inserted, 0, fmt.Errorf("update first seen dates: %w", err)
	}
	return inserted, updated, nil
}
