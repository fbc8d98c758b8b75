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

// Five columns per row; the chunk keeps each INSERT under the wire-protocol
// parameter limit.
const defaultStateInsertChunk = 10000

// StateRepository implements port.StateRepository over the user_state_daily
// table. Replace opens its own transaction, so it needs a pool rather than a
// bare executor.
type StateRepository struct {
	pool    pgPool
	builder squirrel.StatementBuilderType
	chunk   int
}

// NewStateRepository constructs a repository backed by a transactional pool.
func NewStateRepository(pool pgPool) *StateRepository {
	return &StateRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		chunk:   defaultStateInsertChunk,
	}
}

// WithInsertChunk overrides the insert chunk size.
func (r *StateRepository) WithInsertChunk(chunk int) *StateRepository {
	if chunk > 0 {
		r.chunk = chunk
	}
	return r
}

// Replace atomically swaps the window's contents: every row with as_of_date
// in [start, end] is deleted and the given rows are inserted, all in one
// transaction. It returns the deleted and inserted row counts.
func (r *StateRepository) Replace(ctx context.Context, start, end domain.Date, rows []domain.DailyState) (int64, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin replace transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	delStmt, delArgs, err := r.builder.Delete("daulingo.user_state_daily").
		Where(squirrel.Expr("as_of_date BETWEEN ? AND ?", start.Time(), end.Time())).
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("build delete states sql: %w", err)
	}

	ct, err := tx.Exec(ctx, delStmt, delArgs...)
	if err != nil {
		return 0, 0, fmt.Errorf("delete state window: %w", err)
	}
	deleted := ct.RowsAffected()

	inserted := 0
	for offset := 0; offset < len(rows); offset += r.chunk {
		chunk := rows[offset:min(offset+r.chunk, len(rows))]

		query := r.builder.Insert("daulingo.user_state_daily").
			Columns("as_of_date", "user_id", "state", "last_active_date", "computed_at")
		for _, row := range chunk {
			var lastActive any
			if row.LastActiveDate != nil {
				lastActive = row.LastActiveDate.Time()
			}
			query = query.Values(row.AsOfDate.Time(), row.UserID, row.State, lastActive, row.ComputedAt)
		}

		stmt, args, err := query.ToSql()
		if err != nil {
			return deleted, inserted, fmt.Errorf("build insert states sql: %w", err)
		}

		ct, err := tx.Exec(ctx, stmt, args...)
		if err != nil {
			return deleted, inserted, fmt.Errorf("insert state rows: %w", err)
		}
		inserted += int(ct.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return deleted, inserted, fmt.Errorf("commit replace transaction: %w", err)
	}

	return deleted, inserted, nil
}

// Timeseries returns user counts grouped by (as_of_date, state) inside the
// inclusive [start, end] window, ordered by date then state.
func (r *StateRepository) Timeseries(ctx context.Context, start, end domain.Date) ([]domain.StateCount, error) {
	stmt, args, err := r.builder.
		Select("as_of_date", "state", "COUNT(*) AS users").
		From("daulingo.user_state_daily").
		Where(squirrel.Expr("as_of_date BETWEEN ? AND ?", start.Time(), end.Time())).
		GroupBy("as_of_date", "state").
		OrderBy("as_of_date", "state").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select timeseries sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query timeseries: %w", err)
	}
	defer rows.Close()

	counts := make([]domain.StateCount, 0)
	for rows.Next() {
		var (
			day   time.Time
			state string
			users int64
		)
		if err := rows.Scan(&day, &state, &users); err != nil {
			return nil, fmt.Errorf("scan timeseries row: %w", err)
		}
		counts = append(counts, domain.StateCount{
			Date:  domain.DateOf(day),
			State: domain.GrowthState(state),
			Users: int(users),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeseries rows: %w", err)
	}

	return counts, nil
}

// Transitions returns day-over-day state transition counts: each row counts
// the users who were in prev_state on as_of_date-1 and curr_state on
// as_of_date. Optional bounds restrict as_of_date.
func (r *StateRepository) Transitions(ctx context.Context, start, end *domain.Date) ([]domain.StateTransition, error) {
	query := r.builder.
		Select("curr.as_of_date", "prev.state AS prev_state", "curr.state AS curr_state", "COUNT(*) AS users").
		From("daulingo.user_state_daily curr").
		Join("daulingo.user_state_daily prev ON prev.user_id = curr.user_id AND prev.as_of_date = curr.as_of_date - 1").
		GroupBy("curr.as_of_date", "prev.state", "curr.state").
		OrderBy("curr.as_of_date", "prev.state", "curr.state")

	if start != nil {
		query = query.Where(squirrel.GtOrEq{"curr.as_of_date": start.Time()})
	}
	if end != nil {
		query = query.Where(squirrel.LtOrEq{"curr.as_of_date": end.Time()})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select transitions sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := make([]domain.StateTransition, 0)
	for rows.Next() {
		var (
			day       time.Time
			prevState string
			currState string
			users     int64
		)
		if err := rows.Scan(&day, &prevState, &currState, &users); err != nil {
			return nil, fmt.Errorf("scan transition row: %w", err)
		}
		transitions = append(transitions, domain.StateTransition{
			AsOfDate:  domain.DateOf(day),
			PrevState: domain.GrowthState(prevState),
			CurrState: domain.GrowthState(currState),
			Users:     int(users),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transition rows: %w", err)
	}

	return transitions, nil
}

// DateRange returns the span of computed days, nil when nothing has been
// computed yet.
func (r *StateRepository) DateRange(ctx context.Context) (*domain.DateRange, error) {
	stmt, args, err := r.builder.
		Select("MIN(as_of_date)", "MAX(as_of_date)").
		From("daulingo.user_state_daily").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select state range sql: %w", err)
	}

	var minDay, maxDay sql.NullTime
	if err := r.pool.QueryRow(ctx, stmt, args...).Scan(&minDay, &maxDay); err != nil {
		return nil, fmt.Errorf("scan state range: %w", err)
	}
	if !minDay.Valid || !maxDay.Valid {
		return nil, nil
	}

	return &domain.DateRange{
		Min: domain.DateOf(minDay.Time),
		Max: domain.DateOf(maxDay.Time),
	}, nil
}

var _ port.StateRepository = (*StateRepository)(nil)
