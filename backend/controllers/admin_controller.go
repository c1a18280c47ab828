package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"linguahub/backend/config"
	"linguahub/backend/models"
	"linguahub/backend/services"
	"linguahub/backend/utils"
)

type AdminController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.ReviewService
	Logger  *log.Logger
}

func NewAdminController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *AdminController {
	return &AdminController{
		DB:      db,
		Cfg:     cfg,
		Service: services.NewReviewService(db),
		Logger:  logger,
	}
}

// AssignStudent godoc
// @Summary Assign a student to a teacher
// @Tags admin
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "student_id and teacher_id"
// @Success 200 {object} utils.StatusResponse
// @Failure 400 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /admin/assign_student [post]
func (ac *AdminController) AssignStudent(c *fiber.Ctx) error {
	var input struct {
		StudentID uint `json:"student_id"`
		TeacherID uint `json:"teacher_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	var student, teacher models.User
	if err := ac.DB.Where("id = ? AND role = ?", input.StudentID, models.RoleStudent).First(&student).Error; err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid student")
	}
	if err := ac.DB.Where("id = ? AND role = ?", input.TeacherID, models.RoleTeacher).First(&teacher).Error; err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid teacher")
	}

	student.AssignedTeacherID = &teacher.ID
	if err := ac.DB.Save(&student).Error; err != nil {
		ac.Logger.Printf("assign student failed: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return utils.SuccessMessage(c, student.Username+" assigned to "+teacher.Username)
}

// UnassignStudent godoc
// @Summary Remove a student's teacher assignment
// @Tags admin
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "student_id"
// @Success 200 {object} utils.StatusResponse
// @Failure 400 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /admin/unassign_student [post]
func (ac *AdminController) UnassignStudent(c *fiber.Ctx) error {
	var input struct {
		StudentID uint `json:"student_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	var student models.User
	if err := ac.DB.Where("id = ? AND role = ?", input.StudentID, models.RoleStudent).First(&student).Error; err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid student")
	}

	student.AssignedTeacherID = nil
	if err := ac.DB.Save(&student).Error; err != nil {
		ac.Logger.Printf("unassign student failed: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return utils.SuccessMessage(c, student.Username+" unassigned")
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "user_id and role"
// @Success 200 {object} utils.StatusResponse
// @Failure 400 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /admin/change_role [post]
func (ac *AdminController) ChangeRole(c *fiber.Ctx) error {
	var input struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	role := models.Role(input.Role)
	if !role.Valid() {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid role")
	}

	var user models.User
	if err := ac.DB.First(&user, input.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Fail(c, fiber.StatusBadRequest, "Invalid user")
		}
		ac.Logger.Printf("change role failed: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	user.Role = role
	// Leaving the teacher role revokes any student assignments pointing at
	// this user.
	if !role.CanSupervise() {
		if err := ac.DB.Model(&models.User{}).
			Where("assigned_teacher_id = ?", user.ID).
			Update("assigned_teacher_id", nil).Error; err != nil {
			ac.Logger.Printf("change role failed: %v", err)
			return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
		}
	}
	if err := ac.DB.Save(&user).Error; err != nil {
		ac.Logger.Printf("change role failed: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return utils.SuccessMessage(c, user.Username+"'s role updated to "+input.Role)
}

// ResetStreaks godoc
// @Summary Reset lapsed study streaks
// @Description Zeroes the streak of every user who had due cards yesterday and did not clear them; run daily after local midnight
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/streaks/reset [post]
func (ac *AdminController) ResetStreaks(c *fiber.Ctx) error {
	count, err := ac.Service.ResetLapsedStreaks()
	if err != nil {
		ac.Logger.Printf("streak reset failed: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"reset":  count,
	})
}
