package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

// Activity event inserts are chunked to stay inside the wire-protocol
// parameter limit.
const activityInsertChunk = 10000

// ActivityRepository implements port.ActivityRepository over the
// fact_activity table.
type ActivityRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewActivityRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewActivityRepository(exec pgExecutor) *ActivityRepository {
	return &ActivityRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ActiveDatesByUser returns each user's distinct activity dates inside the
// inclusive [from, to] window. Every requested user gets an entry, empty when
// the user has no activity in the window.
func (r *ActivityRepository) ActiveDatesByUser(ctx context.Context, from, to domain.Date, userIDs []string) (map[string]domain.DateSet, error) {
	active := make(map[string]domain.DateSet, len(userIDs))
	for _, userID := range userIDs {
		active[userID] = domain.NewDateSet()
	}
	if len(userIDs) == 0 {
		return active, nil
	}

	stmt, args, err := r.builder.
		Select("user_id", "(occurred_at AT TIME ZONE 'UTC')::date AS activity_date").
		Options("DISTINCT").
		From("daulingo.fact_activity").
		Where(squirrel.Eq{"user_id": userIDs}).
		Where(squirrel.Expr("(occurred_at AT TIME ZONE 'UTC')::date BETWEEN ? AND ?", from.Time(), to.Time())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select active dates sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query active dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			day    time.Time
		)
		if err := rows.Scan(&userID, &day); err != nil {
			return nil, fmt.Errorf("scan active date: %w", err)
		}
		set, ok := active[userID]
		if !ok {
			set = domain.NewDateSet()
			active[userID] = set
		}
		set.Add(domain.DateOf(day))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active dates: %w", err)
	}

	return active, nil
}

// LastActiveBefore returns each user's most recent activity date strictly
// before the given day; nil for users with no prior activity.
func (r *ActivityRepository) LastActiveBefore(ctx context.Context, before domain.Date, userIDs []string) (map[string]*domain.Date, error) {
	last := make(map[string]*domain.Date, len(userIDs))
	for _, userID := range userIDs {
		last[userID] = nil
	}
	if len(userIDs) == 0 {
		return last, nil
	}

	stmt, args, err := r.builder.
		Select("user_id", "MAX((occurred_at AT TIME ZONE 'UTC')::date) AS last_active").
		From("daulingo.fact_activity").
		Where(squirrel.Eq{"user_id": userIDs}).
		Where(squirrel.Expr("(occurred_at AT TIME ZONE 'UTC')::date < ?", before.Time())).
		GroupBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select last active sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query last active dates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			day    time.Time
		)
		if err := rows.Scan(&userID, &day); err != nil {
			return nil, fmt.Errorf("scan last active date: %w", err)
		}
		d := domain.DateOf(day)
		last[userID] = &d
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate last active dates: %w", err)
	}

	return last, nil
}

// BulkInsert appends activity events to the fact table.
func (r *ActivityRepository) BulkInsert(ctx context.Context, events []domain.ActivityEvent) (int, error) {
	inserted := 0
	for offset := 0; offset < len(events); offset += activityInsertChunk {
		chunk := events[offset:min(offset+activityInsertChunk, len(events))]

		query := r.builder.Insert("daulingo.fact_activity").
			Columns("user_id", "occurred_at")
		for _, event := range chunk {
			query = query.Values(event.UserID, event.OccurredAt)
		}

		stmt, args, err := query.ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build insert activity sql: %w", err)
		}

		ct, err := r.exec.Exec(ctx, stmt, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert activity events: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}

	return inserted, nil
}

// DateRange returns the span of activity dates, nil when the table is empty.
func (r *ActivityRepository) DateRange(ctx context.Context) (*domain.DateRange, error) {
	stmt, args, err := r.builder.
		Select(
			"MIN((occurred_at AT TIME ZONE 'UTC')::date)",
			"MAX((occurred_at AT TIME ZONE 'UTC')::date)",
		).
		From("daulingo.fact_activity").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select activity range sql: %w", err)
	}

	var minDay, maxDay sql.NullTime
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&minDay, &maxDay); err != nil {
		return nil, fmt.Errorf("scan activity range: %w", err)
	}
	if !minDay.Valid || !maxDay.Valid {
		return nil, nil
	}

	return &domain.DateRange{
		Min: domain.DateOf(minDay.Time),
		Max: domain.DateOf(maxDay.Time),
	}, nil
}

var _ port.ActivityRepository = (*ActivityRepository)(nil)
