package domain

import "time"

// ActivityEvent is a single raw activity record. Events are immutable once
// written; many events per user per day collapse to one active date for
// classification.
type ActivityEvent struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UserFirstSeen maps a user to the earliest calendar date ever observed for
// them. The date may only move earlier as out-of-order activity arrives.
type UserFirstSeen struct {
	UserID        string
	FirstSeenDate Date
}

// DailyState is one row of the dense (user x day) state table. Identity is
// (AsOfDate, UserID). LastActiveDate is nil only when the user has never been
// active on or before AsOfDate.
type DailyState struct {
	AsOfDate       Date
	UserID         string
	State          GrowthState
	LastActiveDate *Date
	ComputedAt     time.Time
}

// StateCount aggregates how many users held a state on a date.
type StateCount struct {
	Date  Date        `json:"date"`
	State GrowthState `json:"state"`
	Users int         `json:"user_count"`
}

// StateTransition counts users that moved from PrevState on the prior day to
// CurrState on AsOfDate.
type StateTransition struct {
	AsOfDate  Date
	PrevState GrowthState
	CurrState GrowthState
	Users     int
}
