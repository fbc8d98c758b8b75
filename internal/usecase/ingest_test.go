package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

type publisherMock struct {
	activityEvents []domain.ActivityRecordedEvent
	windowEvents   []domain.StateWindowComputedEvent
	err            error
}

func (m *publisherMock) PublishActivityRecorded(_ context.Context, event domain.ActivityRecordedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.activityEvents = append(m.activityEvents, event)
	return nil
}

func (m *publisherMock) PublishStateWindowComputed(_ context.Context, event domain.StateWindowComputedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.windowEvents = append(m.windowEvents, event)
	return nil
}

func TestIngestService_Ingest(t *testing.T) {
	users := &userRepoMock{firstSeen: map[string]domain.Date{
		"known": domain.NewDate(2024, time.March, 10),
	}}
	activity := &activityRepoMock{}
	publisher := &publisherMock{}

	svc := NewIngestService(users, activity, zaptest.NewLogger(t)).WithEventPublisher(publisher)

	at := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 14, 30, 0, 0, time.UTC)
	}
	events := []domain.ActivityEvent{
		{UserID: "fresh", OccurredAt: at(2024, time.March, 12)},
		{UserID: "fresh", OccurredAt: at(2024, time.March, 11)},
		{UserID: "known", OccurredAt: at(2024, time.March, 15)},
	}

	result, err := svc.Ingest(context.Background(), events)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.InsertedEvents != 3 {
		t.Fatalf("expected 3 inserted events, got %d", result.InsertedEvents)
	}
	if result.NewUsers != 1 || result.UpdatedUsers != 0 {
		t.Fatalf("expected 1 new user and 0 updated, got %d/%d", result.NewUsers, result.UpdatedUsers)
	}

	fs, ok := users.firstSeen["fresh"]
	if !ok {
		t.Fatal("new user not inserted into dimension")
	}
	if want := domain.NewDate(2024, time.March, 11); !fs.Equal(want) {
		t.Fatalf("expected first_seen %s for new user, got %s", want, fs)
	}
	if len(activity.events) != 3 {
		t.Fatalf("expected 3 stored events, got %d", len(activity.events))
	}

	if len(publisher.activityEvents) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.activityEvents))
	}
	published := publisher.activityEvents[0]
	if published.EventID == "" {
		t.Fatal("published event missing id")
	}
	if published.InsertedEvents != 3 || published.NewUsers != 1 {
		t.Fatalf("published event counters wrong: %+v", published)
	}
}

func TestIngestService_Ingest_MovesFirstSeenEarlier(t *testing.T) {
	users := &userRepoMock{firstSeen: map[string]domain.Date{
		"amy.lee": domain.NewDate(2024, time.March, 10),
	}}
	activity := &activityRepoMock{}
	svc := NewIngestService(users, activity, zaptest.NewLogger(t))

	backfill := []domain.ActivityEvent{
		{UserID: "amy.lee", OccurredAt: time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)},
	}
	result, err := svc.Ingest(context.Background(), backfill)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.UpdatedUsers != 1 || result.NewUsers != 0 {
		t.Fatalf("expected first_seen update, got %+v", result)
	}
	if want := domain.NewDate(2024, time.February, 1); !users.firstSeen["amy.lee"].Equal(want) {
		t.Fatalf("first_seen not moved earlier: %s", users.firstSeen["amy.lee"])
	}

	// Later activity must never move first_seen forward.
	later := []domain.ActivityEvent{
		{UserID: "amy.lee", OccurredAt: time.Date(2024, time.April, 1, 8, 0, 0, 0, time.UTC)},
	}
	result, err = svc.Ingest(context.Background(), later)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.UpdatedUsers != 0 {
		t.Fatalf("later activity must not update first_seen, got %+v", result)
	}
	if want := domain.NewDate(2024, time.February, 1); !users.firstSeen["amy.lee"].Equal(want) {
		t.Fatalf("first_seen moved forward: %s", users.firstSeen["amy.lee"])
	}
}

func TestIngestService_Ingest_RejectsWholeBatch(t *testing.T) {
	users := &userRepoMock{firstSeen: map[string]domain.Date{}}
	activity := &activityRepoMock{}
	svc := NewIngestService(users, activity, zaptest.NewLogger(t))

	valid := domain.ActivityEvent{UserID: "amy.lee", OccurredAt: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}

	_, err := svc.Ingest(context.Background(), []domain.ActivityEvent{valid, {UserID: "  ", OccurredAt: valid.OccurredAt}})
	if !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}

	_, err = svc.Ingest(context.Background(), []domain.ActivityEvent{valid, {UserID: "bob"}})
	if !errors.Is(err, ErrZeroTimestamp) {
		t.Fatalf("expected ErrZeroTimestamp, got %v", err)
	}

	if len(activity.events) != 0 {
		t.Fatalf("rejected batch must write nothing, stored %d events", len(activity.events))
	}
	if len(users.inserted) != 0 {
		t.Fatal("rejected batch must not touch the user dimension")
	}
}

func TestIngestService_Ingest_EmptyBatch(t *testing.T) {
	svc := NewIngestService(&userRepoMock{}, &activityRepoMock{}, zaptest.NewLogger(t))
	result, err := svc.Ingest(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result != (IngestResult{}) {
		t.Fatalf("expected zero result, got %+v", result)
	}
}

func TestIngestService_Ingest_PublishFailureIsNonFatal(t *testing.T) {
	users := &userRepoMock{firstSeen: map[string]domain.Date{}}
	activity := &activityRepoMock{}
	publisher := &publisherMock{err: errors.New("broker down")}
	svc := NewIngestService(users, activity, zaptest.NewLogger(t)).WithEventPublisher(publisher)

	result, err := svc.Ingest(context.Background(), []domain.ActivityEvent{
		{UserID: "amy.lee", OccurredAt: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("Ingest must not fail on publish error: %v", err)
	}
	if result.InsertedEvents != 1 {
		t.Fatalf("expected event stored despite publish failure, got %+v", result)
	}
}
