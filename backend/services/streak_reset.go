package services

import (
	"gorm.io/gorm"

	"linguahub/backend/models"
	"linguahub/backend/utils"
)

// ResetLapsedStreaks zeroes the streak of every user who had due work
// yesterday and did not clear it. Meant to run once a day, shortly after
// local midnight.
//
// A user lapses when all of these hold:
//   - they carry a non-zero streak
//   - the streak was last credited neither today nor yesterday
//   - at least one of their cards existed by end of local yesterday and was
//     due by then
//
// The max streak and max points are untouched; only the running counter
// resets.
func (s *ReviewService) ResetLapsedStreaks() (int, error) {
	today := utils.LocalToday()
	yesterday := today.AddDate(0, 0, -1)
	// Start of local today doubles as the end-of-yesterday cutoff for the
	// UTC timestamps on cards.
	cutoff := utils.LocalMidnightAsUTC(today)

	reset := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var users []models.User
		if err := tx.Where("study_streak > 0").Find(&users).Error; err != nil {
			return err
		}

		for i := range users {
			user := &users[i]
			if utils.SameCivilDate(user.StreakLastDate, &today) ||
				utils.SameCivilDate(user.StreakLastDate, &yesterday) {
				continue
			}

			var hadDue int64
			err := tx.Model(&models.Flashcard{}).
				Where("user_id = ? AND created_at <= ? AND (next_review IS NULL OR next_review <= ?)",
					user.ID, cutoff, cutoff).
				Count(&hadDue).Error
			if err != nil {
				return err
			}
			if hadDue == 0 {
				continue
			}

			user.StudyStreak = 0
			if err := tx.Save(user).Error; err != nil {
				return err
			}
			reset++
		}
		return nil
	})
	return reset, err
}
