package models

import "time"

// ProgressOverview is the study-progress summary returned to a user.
type ProgressOverview struct {
	Points            int        `json:"points"`
	MaxPoints         int        `json:"max_points"`
	StudyStreak       int        `json:"study_streak"`
	MaxStudyStreak    int        `json:"max_study_streak"`
	StreakLastDate    *time.Time `json:"streak_last_date"`
	FlashcardsStudied int        `json:"flashcards_studied"`
	RateThreeCount    int        `json:"rate_three_count"`
	DueCards          int64      `json:"due_cards"`
}

// LeaderboardEntry is one row of the student leaderboard, ranked by
// max_points.
type LeaderboardEntry struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Points      int    `json:"points"`
	MaxPoints   int    `json:"max_points"`
	StudyStreak int    `json:"study_streak"`
}
