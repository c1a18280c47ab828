package srs

import (
	"time"

	"linguahub/backend/utils"
)

// StreakState is the consecutive-study subset of a user record.
type StreakState struct {
	Points       int
	Streak       int
	MaxStreak    int
	MaxPoints    int
	LastCredited *time.Time
}

// UpdateStreak credits today toward the user's streak. Callers invoke it the
// moment the user's due queue reaches zero; which ratings got them there is
// irrelevant.
//
//   - credited yesterday: the streak continues and grows by one
//   - credited today already: no-op
//   - anything else (never studied, or a gap): the streak restarts at one
//
// MaxStreak and the derived MaxPoints = Points × MaxStreak are recomputed
// on every call.
func UpdateStreak(state StreakState, todayLocal time.Time) StreakState {
	yesterday := todayLocal.AddDate(0, 0, -1)

	switch {
	case utils.SameCivilDate(state.LastCredited, &yesterday):
		state.Streak++
		state.LastCredited = &todayLocal
	case !utils.SameCivilDate(state.LastCredited, &todayLocal):
		state.Streak = 1
		state.LastCredited = &todayLocal
	}

	if state.Streak > state.MaxStreak {
		state.MaxStreak = state.Streak
	}
	state.MaxPoints = state.Points * state.MaxStreak

	return state
}
