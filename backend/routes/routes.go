package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linguahub/backend/config"
	"linguahub/backend/controllers"
	"linguahub/backend/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// Flashcard routes
	flashcardController := controllers.NewFlashcardController(db, cfg, logger)
	flashcards := app.Group("/api/flashcards", authMiddleware)
	flashcards.Get("/", flashcardController.List)
	flashcards.Get("/due", flashcardController.Due)
	flashcards.Post("/", flashcardController.Add)
	flashcards.Post("/:id/review", flashcardController.Review)
	flashcards.Post("/:id/flag", flashcardController.Flag)
	flashcards.Post("/:id", flashcardController.EditOrDelete)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	app.Get("/api/progress", authMiddleware, progressController.GetProgress)
	app.Get("/api/progress/leaderboard", authMiddleware, progressController.Leaderboard)

	// Admin routes
	adminController := controllers.NewAdminController(db, cfg, logger)
	admin := app.Group("/api/admin", adminMiddleware)
	admin.Post("/assign_student", adminController.AssignStudent)
	admin.Post("/unassign_student", adminController.UnassignStudent)
	admin.Post("/change_role", adminController.ChangeRole)
	admin.Post("/streaks/reset", adminController.ResetStreaks)
}
