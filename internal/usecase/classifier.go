package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
)

// Lookback horizons, in days, examined relative to the as-of date.
const (
	weekLookbackDays  = 7
	monthLookbackDays = 30
)

// ErrBeforeFirstSeen signals that classification was requested for a day
// before the user existed. The window computer bounds its day loop per user,
// so this escaping is a caller bug, not a data condition.
var ErrBeforeFirstSeen = errors.New("usecase: as-of date precedes first seen date")

// ClassifierPolicy tunes the growth-state decision tree.
type ClassifierPolicy struct {
	// NormalizeWeekends folds Saturday/Sunday activity onto the preceding
	// Friday before the lookback windows are evaluated.
	NormalizeWeekends bool
}

// ClassifyState assigns the growth state for one user on one day, given the
// user's first seen date and the set of active dates covering at least
// [asOf-30, asOf]. It is a pure decision tree over three derived booleans.
func ClassifyState(asOf, firstSeen domain.Date, active domain.DateSet, policy ClassifierPolicy) (domain.GrowthState, error) {
	if asOf.Before(firstSeen) {
		return "", fmt.Errorf("%w: as_of=%s first_seen=%s", ErrBeforeFirstSeen, asOf, firstSeen)
	}

	if policy.NormalizeWeekends {
		active = normalizeWeekends(active)
	}

	activeToday := active.Contains(asOf)
	weekHas := anyInWindow(active, asOf.AddDays(-weekLookbackDays), asOf.AddDays(-1))
	monthNotWeekHas := anyInWindow(active, asOf.AddDays(-monthLookbackDays), asOf.AddDays(-(weekLookbackDays+1)))

	if activeToday {
		switch {
		case asOf.Equal(firstSeen):
			return domain.StateNew, nil
		case weekHas:
			return domain.StateCurrent, nil
		case monthNotWeekHas:
			return domain.StateReactivated, nil
		default:
			return domain.StateResurrected, nil
		}
	}

	switch {
	case weekHas:
		return domain.StateAtRiskWAU, nil
	case monthNotWeekHas:
		return domain.StateAtRiskMAU, nil
	default:
		return domain.StateDormant, nil
	}
}

// normalizeWeekends maps Saturday and Sunday activity onto the preceding
// Friday, leaving weekday activity untouched.
func normalizeWeekends(active domain.DateSet) domain.DateSet {
	adjusted := make(domain.DateSet, active.Len())
	for d := range active {
		switch d.Weekday() {
		case time.Saturday:
			adjusted.Add(d.AddDays(-1))
		case time.Sunday:
			adjusted.Add(d.AddDays(-2))
		default:
			adjusted.Add(d)
		}
	}
	return adjusted
}

// anyInWindow reports whether the set holds any date in the inclusive
// [start, end] range. An inverted range matches nothing. The window is at
// most 30 days wide, so a linear probe of the set is cheap and predictable.
func anyInWindow(active domain.DateSet, start, end domain.Date) bool {
	if start.After(end) {
		return false
	}
	for d := start; !d.After(end); d = d.AddDays(1) {
		if active.Contains(d) {
			return true
		}
	}
	return false
}
