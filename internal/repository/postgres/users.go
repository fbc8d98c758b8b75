package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

// UserRepository implements port.UserRepository over the dim_user table.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// UsersOnOrBefore returns every user whose first_seen_date is on or before end.
func (r *UserRepository) UsersOnOrBefore(ctx context.Context, end domain.Date) (map[string]domain.Date, error) {
	stmt, args, err := r.builder.
		Select("user_id", "first_seen_date").
		From("daulingo.dim_user").
		Where(squirrel.LtOrEq{"first_seen_date": end.Time()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]domain.Date)
	for rows.Next() {
		var (
			userID    string
			firstSeen time.Time
		)
		if err := rows.Scan(&userID, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[userID] = domain.DateOf(firstSeen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// FirstSeenFor returns first_seen_date for each of the given users that exist.
func (r *UserRepository) FirstSeenFor(ctx context.Context, userIDs []string) (map[string]domain.Date, error) {
	if len(userIDs) == 0 {
		return map[string]domain.Date{}, nil
	}

	stmt, args, err := r.builder.
		Select("user_id", "first_seen_date").
		From("daulingo.dim_user").
		Where(squirrel.Eq{"user_id": userIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select first seen sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query first seen dates: %w", err)
	}
	defer rows.Close()

	users := make(map[string]domain.Date, len(userIDs))
	for rows.Next() {
		var (
			userID    string
			firstSeen time.Time
		)
		if err := rows.Scan(&userID, &firstSeen); err != nil {
			return nil, fmt.Errorf("scan first seen date: %w", err)
		}
		users[userID] = domain.DateOf(firstSeen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate first seen dates: %w", err)
	}

	return users, nil
}

// InsertUsers adds new dimension rows; rows for users that already exist are
// left untouched.
func (r *UserRepository) InsertUsers(ctx context.Context, users []domain.UserFirstSeen) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	query := r.builder.Insert("daulingo.dim_user").
		Columns("user_id", "first_seen_date")
	for _, user := range users {
		query = query.Values(user.UserID, user.FirstSeenDate.Time())
	}

	stmt, args, err := query.Suffix("ON CONFLICT (user_id) DO NOTHING").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert users sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("insert users: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// UpdateFirstSeen moves first_seen_date for the given users. The guard in the
// statement keeps the date from ever moving forward.
func (r *UserRepository) UpdateFirstSeen(ctx context.Context, users []domain.UserFirstSeen) (int, error) {
	updated := 0
	for _, user := range users {
		stmt, args, err := r.builder.Update("daulingo.dim_user").
			Set("first_seen_date", user.FirstSeenDate.Time()).
			Where(squirrel.Eq{"user_id": user.UserID}).
			Where(squirrel.Gt{"first_seen_date": user.FirstSeenDate.Time()}).
			ToSql()
		if err != nil {
			return updated, fmt.Errorf("build update first seen sql: %w", err)
		}

		ct, err := r.exec.Exec(ctx, stmt, args...)
		if err != nil {
			return updated, fmt.Errorf("update first seen for %s: %w", user.UserID, err)
		}
		updated += int(ct.RowsAffected())
	}

	return updated, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
