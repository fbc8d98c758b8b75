package domain

import "fmt"

// GrowthState classifies a user's engagement on a given day. The set is
// closed: every user with first_seen_date <= as_of_date lands in exactly one
// state.
type GrowthState string

const (
	// StateNew marks a user active on their very first day.
	StateNew GrowthState = "NEW"
	// StateCurrent marks a user active today with activity in the prior 7 days.
	StateCurrent GrowthState = "CURRENT"
	// StateReactivated marks a user active today whose previous activity was 8-30 days ago.
	StateReactivated GrowthState = "REACTIVATED"
	// StateResurrected marks a user active today after more than 30 days away.
	StateResurrected GrowthState = "RESURRECTED"
	// StateAtRiskWAU marks an inactive user with activity in the prior 7 days.
	StateAtRiskWAU GrowthState = "AT_RISK_WAU"
	// StateAtRiskMAU marks an inactive user whose last activity was 8-30 days ago.
	StateAtRiskMAU GrowthState = "AT_RISK_MAU"
	// StateDormant marks a user with no activity in the prior 30 days.
	StateDormant GrowthState = "DORMANT"
)

// StateOrder returns every growth state in canonical reporting order.
func StateOrder() []GrowthState {
	return []GrowthState{
		StateNew,
		StateCurrent,
		StateReactivated,
		StateResurrected,
		StateAtRiskWAU,
		StateAtRiskMAU,
		StateDormant,
	}
}

// Valid reports whether the value is one of the seven growth states.
func (s GrowthState) Valid() bool {
	switch s {
	case StateNew, StateCurrent, StateReactivated, StateResurrected,
		StateAtRiskWAU, StateAtRiskMAU, StateDormant:
		return true
	}
	return false
}

// ParseGrowthState converts a stored string into a GrowthState.
func ParseGrowthState(value string) (GrowthState, error) {
	s := GrowthState(value)
	if !s.Valid() {
		return "", fmt.Errorf("unknown growth state %q", value)
	}
	return s, nil
}
