package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linguahub/backend/config"
	"linguahub/backend/models"
	"linguahub/backend/utils"
)

// UserIDKey is the locals key the auth middleware stores the acting user's
// id under.
const UserIDKey = "user_id"

// UserID returns the authenticated user's id stored by AuthMiddleware.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(UserIDKey).(uint)
	return id
}

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// AdminMiddleware allows only admin accounts through. Runs after
// AuthMiddleware; the role check hits the database so a stale token cannot
// outlive a demotion.
func AdminMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		if !user.Role.CanAdminister() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden - Admin access required",
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}
