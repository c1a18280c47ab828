package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpdateStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	lastWeek := today.AddDate(0, 0, -7)

	tests := []struct {
		name          string
		state         StreakState
		wantStreak    int
		wantMaxStreak int
	}{
		{
			name:          "credited yesterday extends the streak",
			state:         StreakState{Points: 10, Streak: 4, MaxStreak: 4, LastCredited: &yesterday},
			wantStreak:    5,
			wantMaxStreak: 5,
		},
		{
			name:          "never credited starts at one",
			state:         StreakState{Points: 2},
			wantStreak:    1,
			wantMaxStreak: 1,
		},
		{
			name:          "gap resets to one but keeps the high-water mark",
			state:         StreakState{Points: 50, Streak: 9, MaxStreak: 12, LastCredited: &lastWeek},
			wantStreak:    1,
			wantMaxStreak: 12,
		},
		{
			name:          "already credited today is a no-op",
			state:         StreakState{Points: 7, Streak: 3, MaxStreak: 3, LastCredited: &today},
			wantStreak:    3,
			wantMaxStreak: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateStreak(tt.state, today)

			assert.Equal(t, tt.wantStreak, got.Streak)
			assert.Equal(t, tt.wantMaxStreak, got.MaxStreak)
			assert.Equal(t, got.Points*got.MaxStreak, got.MaxPoints,
				"max points must equal points × max streak after every update")
			if assert.NotNil(t, got.LastCredited) {
				assert.True(t, got.LastCredited.Equal(today))
			}
		})
	}
}

func TestUpdateStreakRepeatIsIdempotent(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	first := UpdateStreak(StreakState{Points: 20, Streak: 2, MaxStreak: 2, LastCredited: &yesterday}, today)
	second := UpdateStreak(first, today)

	assert.Equal(t, first.Streak, second.Streak)
	assert.Equal(t, first.MaxStreak, second.MaxStreak)
	assert.Equal(t, first.MaxPoints, second.MaxPoints)
}

func TestUpdateStreakRecomputesMaxPointsOnNoOp(t *testing.T) {
	// Points can grow between two zero-due events on the same day; the
	// derived max points must follow even when the streak itself does not
	// move.
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	state := UpdateStreak(StreakState{Points: 10, Streak: 5, MaxStreak: 5, LastCredited: &today}, today)
	assert.Equal(t, 50, state.MaxPoints)

	state.Points = 14
	state = UpdateStreak(state, today)
	assert.Equal(t, 5, state.Streak)
	assert.Equal(t, 70, state.MaxPoints)
}
