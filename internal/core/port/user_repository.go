package port

import (
	"context"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

// UserRepository exposes persistence behavior for the user dimension.
type UserRepository interface {
	// UsersOnOrBefore returns user -> first_seen_date for every user whose
	// first seen date is on or before the given day.
	UsersOnOrBefore(ctx context.Context, end domain.Date) (map[string]domain.Date, error)
	// FirstSeenFor returns user -> first_seen_date for the requested users;
	// unknown users are simply absent from the result.
	FirstSeenFor(ctx context.Context, userIDs []string) (map[string]domain.Date, error)
	// InsertUsers creates dimension rows for previously unseen users.
	InsertUsers(ctx context.Context, users []domain.UserFirstSeen) (int, error)
	// UpdateFirstSeen rewrites first_seen_date for the provided users. The
	// earliest-wins business rule is enforced by the caller.
	UpdateFirstSeen(ctx context.Context, users []domain.UserFirstSeen) (int, error)
}
