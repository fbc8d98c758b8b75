package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

var (
	// ErrInvalidWindow indicates window_start is after window_end. It is
	// raised before any read or write happens.
	ErrInvalidWindow = errors.New("usecase: window start must not be after window end")
	// ErrNoActivity indicates the activity store is empty, so no default
	// window bounds can be derived.
	ErrNoActivity = errors.New("usecase: no activity recorded")
)

// ComputeObserver receives measurements about finished recomputes.
type ComputeObserver interface {
	ObserveCompute(rowsWritten int, duration time.Duration)
}

// ComputeResult summarizes one window recompute.
type ComputeResult struct {
	WindowStart domain.Date
	WindowEnd   domain.Date
	UsersSeen   int
	RowsDeleted int64
	RowsWritten int
}

// StateService owns the (user x day) growth-state table: it recomputes an
// arbitrary date window from raw activity and replaces the window's rows in
// one transaction. Overlapping recomputes are not serialized here; callers
// must not run them concurrently over the same range.
type StateService struct {
	users     port.UserRepository
	activity  port.ActivityRepository
	states    port.StateRepository
	publisher port.EventPublisher
	cache     port.TimeseriesCache
	observer  ComputeObserver
	policy    ClassifierPolicy
	clock     clockwork.Clock
	log       *zap.Logger
}

// NewStateService constructs a StateService.
func NewStateService(users port.UserRepository, activity port.ActivityRepository, states port.StateRepository, policy ClassifierPolicy, log *zap.Logger) *StateService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StateService{
		users:    users,
		activity: activity,
		states:   states,
		policy:   policy,
		clock:    clockwork.NewRealClock(),
		log:      log,
	}
}

// WithEventPublisher attaches a publisher for window-computed events.
func (s *StateService) WithEventPublisher(publisher port.EventPublisher) *StateService {
	s.publisher = publisher
	return s
}

// WithTimeseriesCache attaches the cache whose generation is bumped after a
// successful recompute.
func (s *StateService) WithTimeseriesCache(cache port.TimeseriesCache) *StateService {
	s.cache = cache
	return s
}

// WithObserver attaches a metrics observer.
func (s *StateService) WithObserver(observer ComputeObserver) *StateService {
	s.observer = observer
	return s
}

// WithClock overrides the clock used for computed_at provenance.
func (s *StateService) WithClock(clock clockwork.Clock) *StateService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// ResolveWindow fills absent window bounds from the earliest/latest known
// activity dates. ErrNoActivity is returned when no bound is given and the
// activity store is empty.
func (s *StateService) ResolveWindow(ctx context.Context, start, end *domain.Date) (domain.Date, domain.Date, error) {
	if start != nil && end != nil {
		return *start, *end, nil
	}

	known, err := s.activity.DateRange(ctx)
	if err != nil {
		return domain.Date{}, domain.Date{}, fmt.Errorf("load activity date range: %w", err)
	}
	if known == nil {
		return domain.Date{}, domain.Date{}, ErrNoActivity
	}

	resolvedStart := known.Min
	if start != nil {
		resolvedStart = *start
	}
	resolvedEnd := known.Max
	if end != nil {
		resolvedEnd = *end
	}
	return resolvedStart, resolvedEnd, nil
}

// Compute materializes the daily state rows for every day in the inclusive
// [start, end] window and atomically replaces the window's contents. The
// operation is idempotent: re-running it over unchanged activity yields the
// same row set.
func (s *StateService) Compute(ctx context.Context, start, end domain.Date) (ComputeResult, error) {
	if start.After(end) {
		return ComputeResult{}, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, start, end)
	}

	ctx, span := otel.Tracer("daulingo/usecase").Start(ctx, "state.compute")
	defer span.End()
	span.SetAttributes(
		attribute.String("window.start", start.String()),
		attribute.String("window.end", end.String()),
	)

	began := s.clock.Now()
	result := ComputeResult{WindowStart: start, WindowEnd: end}

	s.log.Info("computing user state window",
		zap.String("window_start", start.String()),
		zap.String("window_end", end.String()),
	)

	// Activity is read from 30 days before the window so the first day's
	// lookback is fully populated.
	readFrom := start.AddDays(-monthLookbackDays)

	firstSeen, err := s.users.UsersOnOrBefore(ctx, end)
	if err != nil {
		return result, fmt.Errorf("load users: %w", err)
	}
	if len(firstSeen) == 0 {
		s.log.Info("no users first seen on or before window end, nothing to compute",
			zap.String("window_end", end.String()),
		)
		return result, nil
	}

	userIDs := make([]string, 0, len(firstSeen))
	for id := range firstSeen {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)
	result.UsersSeen = len(userIDs)

	activeByUser, err := s.activity.ActiveDatesByUser(ctx, readFrom, end, userIDs)
	if err != nil {
		return result, fmt.Errorf("load active dates: %w", err)
	}
	lastActiveBefore, err := s.activity.LastActiveBefore(ctx, start, userIDs)
	if err != nil {
		return result, fmt.Errorf("load last active before window: %w", err)
	}

	computedAt := s.clock.Now().UTC()

	// First pass: classify each (day, user) pair chronologically, leaving
	// last_active_date unset. Users contribute rows only from their first
	// seen date onward.
	var rows []domain.DailyState
	for day := start; !day.After(end); day = day.AddDays(1) {
		for _, userID := range userIDs {
			fs := firstSeen[userID]
			if day.Before(fs) {
				continue
			}
			state, err := ClassifyState(day, fs, activeByUser[userID], s.policy)
			if err != nil {
				return result, fmt.Errorf("classify user %s on %s: %w", userID, day, err)
			}
			rows = append(rows, domain.DailyState{
				AsOfDate:   day,
				UserID:     userID,
				State:      state,
				ComputedAt: computedAt,
			})
		}
	}

	fillLastActiveDates(rows, activeByUser, lastActiveBefore)

	deleted, inserted, err := s.states.Replace(ctx, start, end, rows)
	if err != nil {
		return result, fmt.Errorf("replace state window: %w", err)
	}
	result.RowsDeleted = deleted
	result.RowsWritten = inserted

	s.log.Info("user state window replaced",
		zap.Int("users", result.UsersSeen),
		zap.Int64("rows_deleted", deleted),
		zap.Int("rows_written", inserted),
	)

	if s.cache != nil {
		if _, err := s.cache.BumpGeneration(ctx); err != nil {
			s.log.Warn("failed to invalidate timeseries cache", zap.Error(err))
		}
	}

	if s.publisher != nil {
		event := domain.StateWindowComputedEvent{
			EventID:     uuid.NewString(),
			WindowStart: start,
			WindowEnd:   end,
			UsersSeen:   result.UsersSeen,
			RowsDeleted: deleted,
			RowsWritten: inserted,
			ComputedAt:  computedAt,
		}
		if err := s.publisher.PublishStateWindowComputed(ctx, event); err != nil {
			s.log.Warn("failed to publish window computed event", zap.Error(err))
		}
	}

	if s.observer != nil {
		s.observer.ObserveCompute(inserted, s.clock.Since(began))
	}

	return result, nil
}

// fillLastActiveDates threads a rolling "last active" pointer per user across
// the window's rows. Rows arrive grouped-by-day in chronological order, so
// each user's subsequence is already chronological and a single forward fold
// suffices; the pointer is seeded with the user's last activity before the
// window.
func fillLastActiveDates(rows []domain.DailyState, activeByUser map[string]domain.DateSet, lastActiveBefore map[string]*domain.Date) {
	byUser := make(map[string][]int)
	for i, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], i)
	}

	for userID, indexes := range byUser {
		lastActive := lastActiveBefore[userID]
		active := activeByUser[userID]
		for _, i := range indexes {
			day := rows[i].AsOfDate
			if active.Contains(day) {
				d := day
				lastActive = &d
			}
			rows[i].LastActiveDate = lastActive
		}
	}
}
