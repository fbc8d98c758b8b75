package port

import (
	"context"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

// ActivityRepository exposes persistence behavior for raw activity events.
type ActivityRepository interface {
	// ActiveDatesByUser returns the distinct calendar dates with activity per
	// user inside the inclusive [from, to] range. Users without activity in
	// the range are present with an empty set.
	ActiveDatesByUser(ctx context.Context, from, to domain.Date, userIDs []string) (map[string]domain.DateSet, error)
	// LastActiveBefore returns, per user, the most recent active date strictly
	// before the given date, or nil when there is none.
	LastActiveBefore(ctx context.Context, before domain.Date, userIDs []string) (map[string]*domain.Date, error)
	// BulkInsert appends activity events and returns how many were written.
	BulkInsert(ctx context.Context, events []domain.ActivityEvent) (int, error)
	// DateRange returns the earliest and latest activity dates, or nil when
	// the store is empty.
	DateRange(ctx context.Context) (*domain.DateRange, error)
}
