package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

const defaultTimeseriesCacheTTL = 5 * time.Minute

// TimeseriesResult carries per (date, state) user counts for a window.
type TimeseriesResult struct {
	Start           domain.Date        `json:"start"`
	End             domain.Date        `json:"end"`
	ExcludeWeekends bool               `json:"exclude_weekends"`
	Rows            []domain.StateCount `json:"rows"`
}

// WideRow is one pivoted timeseries row: a date with a count per state.
type WideRow struct {
	Date   domain.Date                `json:"date"`
	Counts map[domain.GrowthState]int `json:"counts"`
}

// TimeseriesService answers aggregate queries over the daily state table,
// optionally through a generation-keyed cache that recomputes invalidate.
type TimeseriesService struct {
	states   port.StateRepository
	cache    port.TimeseriesCache
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewTimeseriesService constructs a TimeseriesService.
func NewTimeseriesService(states port.StateRepository, log *zap.Logger) *TimeseriesService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TimeseriesService{states: states, cacheTTL: defaultTimeseriesCacheTTL, log: log}
}

// WithCache attaches a result cache with the provided TTL.
func (s *TimeseriesService) WithCache(cache port.TimeseriesCache, ttl time.Duration) *TimeseriesService {
	s.cache = cache
	if ttl > 0 {
		s.cacheTTL = ttl
	}
	return s
}

// Timeseries returns user counts grouped by (date, state) inside the
// inclusive [start, end] window, dropping weekend dates when requested.
func (s *TimeseriesService) Timeseries(ctx context.Context, start, end domain.Date, excludeWeekends bool) (TimeseriesResult, error) {
	if start.After(end) {
		return TimeseriesResult{}, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, start, end)
	}

	result := TimeseriesResult{Start: start, End: end, ExcludeWeekends: excludeWeekends}

	cacheKey := ""
	if s.cache != nil {
		generation, err := s.cache.Generation(ctx)
		if err != nil {
			s.log.Warn("timeseries cache unavailable", zap.Error(err))
		} else {
			cacheKey = fmt.Sprintf("g%d:%s:%s:%t", generation, start, end, excludeWeekends)
			if payload, found, err := s.cache.Get(ctx, cacheKey); err != nil {
				s.log.Warn("timeseries cache read failed", zap.Error(err))
			} else if found {
				var rows []domain.StateCount
				if err := json.Unmarshal(payload, &rows); err == nil {
					result.Rows = rows
					return result, nil
				}
				s.log.Warn("discarding undecodable timeseries cache entry", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	rows, err := s.states.Timeseries(ctx, start, end)
	if err != nil {
		return result, fmt.Errorf("query timeseries: %w", err)
	}

	if excludeWeekends {
		filtered := rows[:0]
		for _, row := range rows {
			if !row.Date.IsWeekend() {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	result.Rows = rows

	if s.cache != nil && cacheKey != "" {
		if payload, err := json.Marshal(rows); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); err != nil {
				s.log.Warn("timeseries cache write failed", zap.Error(err))
			}
		}
	}

	return result, nil
}

// WidePivot reshapes long-form counts into one row per date with a count per
// state, every state present (missing combinations count zero). Input order
// is preserved for dates.
func WidePivot(rows []domain.StateCount) []WideRow {
	var order []domain.Date
	byDate := make(map[domain.Date]map[domain.GrowthState]int)
	for _, row := range rows {
		counts, ok := byDate[row.Date]
		if !ok {
			counts = make(map[domain.GrowthState]int, len(domain.StateOrder()))
			for _, state := range domain.StateOrder() {
				counts[state] = 0
			}
			byDate[row.Date] = counts
			order = append(order, row.Date)
		}
		counts[row.State] += row.Users
	}

	wide := make([]WideRow, 0, len(order))
	for _, date := range order {
		wide = append(wide, WideRow{Date: date, Counts: byDate[date]})
	}
	return wide
}

// StateDateRange returns the span of days covered by the state table; nil
// when nothing has been computed yet.
func (s *TimeseriesService) StateDateRange(ctx context.Context) (*domain.DateRange, error) {
	r, err := s.states.DateRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("query state date range: %w", err)
	}
	return r, nil
}
