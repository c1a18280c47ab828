package controllers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"linguahub/backend/config"
	"linguahub/backend/middleware"
	"linguahub/backend/models"
	"linguahub/backend/services"
	"linguahub/backend/srs"
	"linguahub/backend/utils"
)

type FlashcardController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *services.ReviewService
	Logger  *log.Logger
}

func NewFlashcardController(db *gorm.DB, cfg *config.Config, logger *log.Logger) *FlashcardController {
	return &FlashcardController{
		DB:      db,
		Cfg:     cfg,
		Service: services.NewReviewService(db),
		Logger:  logger,
	}
}

// cardView is the wire shape of a flashcard; the answer is included because
// the study client reveals it after the user commits to a rating.
type cardView struct {
	ID           uint            `json:"id"`
	Question     string          `json:"question"`
	Answer       string          `json:"answer"`
	Level        int             `json:"level"`
	Ease         decimal.Decimal `json:"ease"`
	Interval     int             `json:"interval"`
	LastReview   *time.Time      `json:"last_review"`
	NextReview   *time.Time      `json:"next_review"`
	ReviewedByTC bool            `json:"reviewed_by_tc"`
	UserID       uint            `json:"user_id"`
}

func toCardView(card models.Flashcard) cardView {
	return cardView{
		ID:           card.ID,
		Question:     card.Question,
		Answer:       card.Answer,
		Level:        card.Level,
		Ease:         card.Ease,
		Interval:     card.Interval,
		LastReview:   card.LastReview,
		NextReview:   card.NextReview,
		ReviewedByTC: card.ReviewedByTC,
		UserID:       card.UserID,
	}
}

// serviceError translates service sentinels into HTTP statuses. Anything
// unrecognized is a server error: logged in full, surfaced generically.
func (fc *FlashcardController) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, srs.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidReason):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrCardNotFound),
		errors.Is(err, services.ErrOwnerNotFound):
		return utils.Fail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrDuplicateQuestion),
		errors.Is(err, services.ErrUnreviewedQuota):
		return utils.Fail(c, fiber.StatusConflict, err.Error())
	default:
		fc.Logger.Printf("flashcard operation failed: %v", err)
		return utils.Fail(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}

func cardIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Review godoc
// @Summary Rate a flashcard
// @Description Applies a recall rating (1=again, 2=good, 3=easy) and reschedules the card
// @Tags flashcards
// @Accept json
// @Produce json
// @Param id path int true "Card ID"
// @Param request body map[string]interface{} true "Rating"
// @Success 200 {object} utils.StatusResponse
// @Failure 400 {object} utils.StatusResponse
// @Failure 404 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /flashcards/{id}/review [post]
func (fc *FlashcardController) Review(c *fiber.Ctx) error {
	cardID, err := cardIDParam(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid card id")
	}

	var input struct {
		Rating int `json:"rating"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := fc.Service.ReviewFlashcard(middleware.UserID(c), cardID, input.Rating); err != nil {
		return fc.serviceError(c, err)
	}
	return utils.Success(c)
}

// Add godoc
// @Summary Create a flashcard
// @Description Adds a card to the caller's deck, or to a supervised student's deck when owner_id is set
// @Tags flashcards
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Question, answer and optional owner_id"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.StatusResponse
// @Failure 409 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /flashcards [post]
func (fc *FlashcardController) Add(c *fiber.Ctx) error {
	var input struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		OwnerID  string `json:"owner_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	var ownerID *uint
	if input.OwnerID != "" {
		parsed, err := strconv.ParseUint(input.OwnerID, 10, 32)
		if err != nil {
			return utils.Fail(c, fiber.StatusBadRequest, "Invalid owner id")
		}
		id := uint(parsed)
		ownerID = &id
	}

	card, err := fc.Service.AddFlashcard(middleware.UserID(c), ownerID, input.Question, input.Answer)
	if err != nil {
		return fc.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"card":   toCardView(*card),
	})
}

// EditOrDelete godoc
// @Summary Edit, delete or vet a flashcard
// @Description action=edit replaces content and resets scheduling; action=delete removes the card; action=mark_reviewed_tc vets it
// @Tags flashcards
// @Accept json
// @Produce json
// @Param id path int true "Card ID"
// @Param request body map[string]interface{} true "Action and optional content"
// @Success 200 {object} utils.StatusResponse
// @Failure 400 {object} utils.StatusResponse
// @Failure 403 {object} utils.StatusResponse
// @Failure 404 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /flashcards/{id} [post]
func (fc *FlashcardController) EditOrDelete(c *fiber.Ctx) error {
	cardID, err := cardIDParam(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid card id")
	}

	var input struct {
		Action   string `json:"action"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	actingUserID := middleware.UserID(c)
	switch input.Action {
	case "edit":
		err = fc.Service.EditFlashcard(actingUserID, cardID, input.Question, input.Answer)
	case "delete":
		err = fc.Service.DeleteFlashcard(actingUserID, cardID)
	case "mark_reviewed_tc":
		err = fc.Service.MarkReviewed(actingUserID, cardID)
	default:
		return utils.Fail(c, fiber.StatusBadRequest, "Unknown action")
	}
	if err != nil {
		return fc.serviceError(c, err)
	}
	return utils.Success(c)
}

// Flag godoc
// @Summary Flag a flashcard during study
// @Description Only the card's owner may flag; the card is annotated, deferred a week and re-queued for teacher triage
// @Tags flashcards
// @Accept json
// @Produce json
// @Param id path int true "Card ID"
// @Param request body map[string]interface{} true "Reason code"
// @Success 200 {object} utils.StatusResponse
// @Failure 400 {object} utils.StatusResponse
// @Failure 403 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /flashcards/{id}/flag [post]
func (fc *FlashcardController) Flag(c *fiber.Ctx) error {
	cardID, err := cardIDParam(c)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid card id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	if err := fc.Service.FlagCard(middleware.UserID(c), cardID, input.Reason); err != nil {
		return fc.serviceError(c, err)
	}
	return utils.Success(c)
}

// List godoc
// @Summary List flashcards
// @Description Returns the caller's deck, or a student's deck for the student's teacher or an admin (?student_id=)
// @Tags flashcards
// @Produce json
// @Param student_id query int false "Student whose deck to list"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.StatusResponse
// @Security ApiKeyAuth
// @Router /flashcards [get]
func (fc *FlashcardController) List(c *fiber.Ctx) error {
	ownerID, err := fc.resolveListOwner(c)
	if err != nil {
		return fc.serviceError(c, err)
	}

	var cards []models.Flashcard
	if err := fc.DB.Where("user_id = ?", ownerID).Order("id").Find(&cards).Error; err != nil {
		return fc.serviceError(c, err)
	}

	views := make([]cardView, len(cards))
	for i, card := range cards {
		views[i] = toCardView(card)
	}
	return c.JSON(fiber.Map{"cards": views})
}

// Due godoc
// @Summary List the study queue
// @Description Returns the caller's due cards, never-scheduled first, then by next_review
// @Tags flashcards
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /flashcards/due [get]
func (fc *FlashcardController) Due(c *fiber.Ctx) error {
	var cards []models.Flashcard
	err := fc.DB.
		Where("user_id = ? AND (next_review IS NULL OR next_review <= ?)", middleware.UserID(c), utils.UTCNow()).
		Order("next_review NULLS FIRST").
		Find(&cards).Error
	if err != nil {
		return fc.serviceError(c, err)
	}

	views := make([]cardView, len(cards))
	for i, card := range cards {
		views[i] = toCardView(card)
	}
	return c.JSON(fiber.Map{"cards": views})
}

// resolveListOwner picks whose deck a list request targets and verifies the
// caller may see it.
func (fc *FlashcardController) resolveListOwner(c *fiber.Ctx) (uint, error) {
	actingUserID := middleware.UserID(c)
	studentParam := c.Query("student_id")
	if studentParam == "" {
		return actingUserID, nil
	}

	parsed, err := strconv.ParseUint(studentParam, 10, 32)
	if err != nil {
		return 0, services.ErrInvalidInput
	}
	studentID := uint(parsed)
	if studentID == actingUserID {
		return actingUserID, nil
	}

	var acting models.User
	if err := fc.DB.First(&acting, actingUserID).Error; err != nil {
		return 0, err
	}
	if !acting.Role.CanSupervise() {
		return 0, services.ErrForbidden
	}

	var student models.User
	if err := fc.DB.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, services.ErrOwnerNotFound
		}
		return 0, err
	}
	if acting.Role == models.RoleTeacher &&
		(student.AssignedTeacherID == nil || *student.AssignedTeacherID != acting.ID) {
		return 0, services.ErrForbidden
	}
	return studentID, nil
}
