package port

import (
	"context"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

// StateRepository exposes persistence behavior for the daily state table.
type StateRepository interface {
	// Replace atomically deletes every row with as_of_date inside the
	// inclusive [start, end] window and inserts the provided rows. Either
	// both steps become visible or neither does. It returns how many rows
	// were deleted and inserted.
	Replace(ctx context.Context, start, end domain.Date, rows []domain.DailyState) (int64, int, error)
	// Timeseries returns per (date, state) user counts inside [start, end],
	// ordered by date then state.
	Timeseries(ctx context.Context, start, end domain.Date) ([]domain.StateCount, error)
	// Transitions returns day-over-day state transition counts per user.
	// Optional bounds restrict the as_of_date of the target day.
	Transitions(ctx context.Context, start, end *domain.Date) ([]domain.StateTransition, error)
	// DateRange returns the earliest and latest as_of_date present, or nil
	// when the table is empty.
	DateRange(ctx context.Context) (*domain.DateRange, error)
}
