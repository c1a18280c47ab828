package controllers

import (
	"gorm.io/gorm"

	"github.com/gofiber/fiber/v2"

	"linguahub/backend/config"
	"linguahub/backend/middleware"
	"linguahub/backend/models"
	"linguahub/backend/utils"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// GetProgress godoc
// @Summary Get study progress
// @Description Returns the caller's points, streaks and study counters
// @Tags progress
// @Produce json
// @Success 200 {object} models.ProgressOverview
// @Failure 401 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	var user models.User
	if err := pc.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var due int64
	pc.DB.Model(&models.Flashcard{}).
		Where("user_id = ? AND (next_review IS NULL OR next_review <= ?)", user.ID, utils.UTCNow()).
		Count(&due)

	return c.JSON(models.ProgressOverview{
		Points:            user.Points,
		MaxPoints:         user.MaxPoints,
		StudyStreak:       user.StudyStreak,
		MaxStudyStreak:    user.MaxStudyStreak,
		StreakLastDate:    user.StreakLastDate,
		FlashcardsStudied: user.FlashcardsStudied,
		RateThreeCount:    user.RateThreeCount,
		DueCards:          due,
	})
}

// Leaderboard godoc
// @Summary Student leaderboard
// @Description Returns students ranked by max points (points × best streak)
// @Tags progress
// @Produce json
// @Param limit query int false "Number of entries (default 10)"
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /progress/leaderboard [get]
func (pc *ProgressController) Leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var students []models.User
	if err := pc.DB.
		Where("role = ?", models.RoleStudent).
		Order("max_points DESC").
		Limit(limit).
		Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	entries := make([]models.LeaderboardEntry, len(students))
	for i, s := range students {
		entries[i] = models.LeaderboardEntry{
			UserID:      s.ID,
			Username:    s.Username,
			Points:      s.Points,
			MaxPoints:   s.MaxPoints,
			StudyStreak: s.StudyStreak,
		}
	}
	return c.JSON(fiber.Map{"leaderboard": entries})
}
