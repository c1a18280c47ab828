// Package services holds the transactional orchestration around the pure
// srs core: authorization, recipient resolution, quota enforcement and the
// single-commit persistence of each review event.
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"linguahub/backend/models"
	"linguahub/backend/srs"
	"linguahub/backend/utils"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidReason     = errors.New("unknown flag reason")
	ErrCardNotFound      = errors.New("flashcard not found")
	ErrOwnerNotFound     = errors.New("card owner not found")
	ErrRecipientNotFound = errors.New("review recipient not found")
	ErrForbidden         = errors.New("not allowed")
	ErrDuplicateQuestion = errors.New("a card with this question already exists")
	ErrUnreviewedQuota   = errors.New("too many cards awaiting teacher review")
)

const (
	// MaxUnreviewedCards caps the unvetted backlog a single student can
	// pile up for their teacher.
	MaxUnreviewedCards = 5
	MaxContentLength   = 500
)

// flagReasons is the closed set of reason codes a student may flag a card
// with, mapped to the annotation appended to the question text.
var flagReasons = map[string]string{
	"typo":         "typo",
	"wrong_answer": "wrong answer",
	"unclear":      "unclear wording",
	"duplicate":    "duplicate",
}

// FlagDeferralDays is how far flagging pushes the card out of the due queue.
const FlagDeferralDays = 7

type ReviewService struct {
	DB *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{DB: db}
}

// ReviewFlashcard applies a rating to a card on behalf of an acting user.
// The card mutation, point award and conditional streak credit commit as one
// transaction or not at all.
func (s *ReviewService) ReviewFlashcard(actingUserID, cardID uint, rating int) error {
	if !srs.Rating(rating).Valid() {
		return srs.ErrInvalidRating
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		card, err := loadCard(tx, cardID)
		if err != nil {
			return err
		}

		acting, err := loadUser(tx, actingUserID)
		if err != nil {
			return fmt.Errorf("acting user %d: %w", actingUserID, err)
		}
		if err := authorizeCardAccess(tx, acting, card); err != nil {
			return err
		}

		recipient, err := resolveRecipient(tx, acting, card)
		if err != nil {
			return err
		}

		// The studied counter moves on every rating, even a failed one.
		recipient.FlashcardsStudied++

		nowUTC := utils.UTCNow()
		state, points, err := srs.ApplyRating(cardState(card), srs.Rating(rating), nowUTC, utils.LocalToday())
		if err != nil {
			return err
		}
		applyCardState(card, state)

		recipient.Points += points
		if srs.Rating(rating) == srs.RatingEasy {
			recipient.RateThreeCount++
		}

		if err := tx.Save(card).Error; err != nil {
			return err
		}
		if err := tx.Save(recipient).Error; err != nil {
			return err
		}

		return s.creditStreakIfCleared(tx, recipient, card.UserID)
	})
}

// AddFlashcard creates a card for the acting user, or for another student
// when ownerID names one (teacher/admin only; a teacher may only add for
// their own assigned students).
func (s *ReviewService) AddFlashcard(actingUserID uint, ownerID *uint, question, answer string) (*models.Flashcard, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" ||
		len(question) > MaxContentLength || len(answer) > MaxContentLength {
		return nil, ErrInvalidInput
	}

	var created *models.Flashcard
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		acting, err := loadUser(tx, actingUserID)
		if err != nil {
			return fmt.Errorf("acting user %d: %w", actingUserID, err)
		}

		owner := acting
		if ownerID != nil && *ownerID != acting.ID {
			if !acting.Role.CanSupervise() {
				return ErrForbidden
			}
			owner = &models.User{}
			if err := tx.First(owner, *ownerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrOwnerNotFound
				}
				return err
			}
			if acting.Role == models.RoleTeacher &&
				(owner.AssignedTeacherID == nil || *owner.AssignedTeacherID != acting.ID) {
				return ErrForbidden
			}
		}

		var duplicates int64
		if err := tx.Model(&models.Flashcard{}).
			Where("user_id = ? AND question = ?", owner.ID, question).
			Count(&duplicates).Error; err != nil {
			return err
		}
		if duplicates > 0 {
			return ErrDuplicateQuestion
		}

		var unreviewed int64
		if err := tx.Model(&models.Flashcard{}).
			Where("user_id = ? AND reviewed_by_tc = ?", owner.ID, false).
			Count(&unreviewed).Error; err != nil {
			return err
		}
		if unreviewed >= MaxUnreviewedCards {
			return ErrUnreviewedQuota
		}

		card := models.Flashcard{
			Question:     question,
			Answer:       answer,
			Ease:         models.DefaultEase,
			Interval:     srs.MinInterval,
			ReviewedByTC: acting.Role.CanSupervise(),
			UserID:       owner.ID,
		}
		if err := tx.Create(&card).Error; err != nil {
			return err
		}
		created = &card
		return nil
	})
	return created, err
}

// EditFlashcard replaces a card's content and resets its scheduling to
// due-now with baseline ease and interval. Vetting follows the editor: a
// supervising editor leaves the card reviewed, a student edit re-queues it
// for triage.
func (s *ReviewService) EditFlashcard(actingUserID, cardID uint, question, answer string) error {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" ||
		len(question) > MaxContentLength || len(answer) > MaxContentLength {
		return ErrInvalidInput
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		card, acting, err := loadCardForActor(tx, actingUserID, cardID)
		if err != nil {
			return err
		}

		card.Question = question
		card.Answer = answer
		card.Ease = srs.EaseFloor
		card.Interval = srs.MinInterval
		card.LastReview = nil
		card.NextReview = nil
		card.ReviewedByTC = acting.Role.CanSupervise()

		return tx.Save(card).Error
	})
}

// DeleteFlashcard removes a card once the actor is authorized.
func (s *ReviewService) DeleteFlashcard(actingUserID, cardID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		card, _, err := loadCardForActor(tx, actingUserID, cardID)
		if err != nil {
			return err
		}
		return tx.Delete(card).Error
	})
}

// MarkReviewed vets a card on behalf of a teacher or admin, freeing the
// owner's unreviewed quota.
func (s *ReviewService) MarkReviewed(actingUserID, cardID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		card, acting, err := loadCardForActor(tx, actingUserID, cardID)
		if err != nil {
			return err
		}
		if !acting.Role.CanSupervise() {
			return ErrForbidden
		}
		card.ReviewedByTC = true
		return tx.Save(card).Error
	})
}

// FlagCard lets a card's own owner report a problem mid-study. The reason is
// stamped onto the question (once), the card leaves the due queue for
// FlagDeferralDays, and vetting is revoked so a teacher re-triages it.
// Because flagging can empty the day's due queue, the streak check runs here
// exactly as it does after a rating.
func (s *ReviewService) FlagCard(actingUserID, cardID uint, reason string) error {
	label, ok := flagReasons[reason]
	if !ok {
		return ErrInvalidReason
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		card, err := loadCard(tx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != actingUserID {
			return ErrForbidden
		}
		owner, err := loadUser(tx, actingUserID)
		if err != nil {
			return fmt.Errorf("card owner %d: %w", actingUserID, err)
		}

		annotation := " [flagged: " + label + "]"
		if !strings.Contains(card.Question, annotation) {
			card.Question += annotation
		}
		deferred := utils.LocalMidnightUTCInDays(FlagDeferralDays)
		card.NextReview = &deferred
		card.ReviewedByTC = false

		if err := tx.Save(card).Error; err != nil {
			return err
		}

		return s.creditStreakIfCleared(tx, owner, owner.ID)
	})
}

// DueCount returns the number of cards currently due for an owner.
func (s *ReviewService) DueCount(ownerID uint) (int64, error) {
	return dueCount(s.DB, ownerID)
}

// creditStreakIfCleared re-reads the owner's due count inside the same
// transaction that just moved a card, and credits the recipient's streak
// when the queue hit zero. Reading outside the transaction could see a stale
// count and credit (or skip) wrongly.
func (s *ReviewService) creditStreakIfCleared(tx *gorm.DB, recipient *models.User, ownerID uint) error {
	due, err := dueCount(tx, ownerID)
	if err != nil {
		return err
	}
	if due > 0 {
		return nil
	}

	state := srs.UpdateStreak(srs.StreakState{
		Points:       recipient.Points,
		Streak:       recipient.StudyStreak,
		MaxStreak:    recipient.MaxStudyStreak,
		MaxPoints:    recipient.MaxPoints,
		LastCredited: recipient.StreakLastDate,
	}, utils.LocalToday())

	recipient.StudyStreak = state.Streak
	recipient.MaxStudyStreak = state.MaxStreak
	recipient.MaxPoints = state.MaxPoints
	recipient.StreakLastDate = state.LastCredited

	return tx.Save(recipient).Error
}

func dueCount(tx *gorm.DB, ownerID uint) (int64, error) {
	var due int64
	err := tx.Model(&models.Flashcard{}).
		Where("user_id = ? AND (next_review IS NULL OR next_review <= ?)", ownerID, utils.UTCNow()).
		Count(&due).Error
	return due, err
}

// resolveRecipient decides whose progress a rating credits. A teacher
// reviewing their own deck credits themselves; a teacher or admin reviewing
// someone else's deck credits the card's owner; a student always credits
// themselves. A card whose owner row is missing is a server-side integrity
// failure, not user error.
func resolveRecipient(tx *gorm.DB, acting *models.User, card *models.Flashcard) (*models.User, error) {
	if card.UserID == acting.ID || !acting.Role.CanSupervise() {
		return acting, nil
	}
	var owner models.User
	if err := tx.First(&owner, card.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrRecipientNotFound, card.UserID)
		}
		return nil, err
	}
	return &owner, nil
}

// authorizeCardAccess enforces who may touch whose card: the owner always,
// an admin always, a teacher only for their own assigned students.
func authorizeCardAccess(tx *gorm.DB, acting *models.User, card *models.Flashcard) error {
	if card.UserID == acting.ID || acting.Role.CanAdminister() {
		return nil
	}
	if acting.Role != models.RoleTeacher {
		return ErrForbidden
	}
	var owner models.User
	if err := tx.First(&owner, card.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user %d", ErrRecipientNotFound, card.UserID)
		}
		return err
	}
	if owner.AssignedTeacherID == nil || *owner.AssignedTeacherID != acting.ID {
		return ErrForbidden
	}
	return nil
}

func loadCard(tx *gorm.DB, cardID uint) (*models.Flashcard, error) {
	var card models.Flashcard
	if err := tx.First(&card, cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &card, nil
}

func loadUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	return &user, nil
}

// loadCardForActor loads a card and the acting user and checks card access
// in one step; edit, delete and mark-reviewed all share this gate.
func loadCardForActor(tx *gorm.DB, actingUserID, cardID uint) (*models.Flashcard, *models.User, error) {
	card, err := loadCard(tx, cardID)
	if err != nil {
		return nil, nil, err
	}
	acting, err := loadUser(tx, actingUserID)
	if err != nil {
		return nil, nil, fmt.Errorf("acting user %d: %w", actingUserID, err)
	}
	if err := authorizeCardAccess(tx, acting, card); err != nil {
		return nil, nil, err
	}
	return card, acting, nil
}

func cardState(card *models.Flashcard) srs.CardState {
	return srs.CardState{
		Level:      card.Level,
		Ease:       card.Ease,
		Interval:   card.Interval,
		LastReview: card.LastReview,
		NextReview: card.NextReview,
	}
}

func applyCardState(card *models.Flashcard, state srs.CardState) {
	card.Level = state.Level
	card.Ease = state.Ease
	card.Interval = state.Interval
	card.LastReview = state.LastReview
	card.NextReview = state.NextReview
}
