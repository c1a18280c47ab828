package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Flashcard struct {
	gorm.Model
	Question string `gorm:"size:500;not null"`
	Answer   string `gorm:"size:500;not null"`

	// Spaced repetition state. Ease is a fixed-point decimal with two
	// fractional digits, bounded to [1.30, 2.50]; it must never pass
	// through a binary float or repeated reviews drift.
	Level    int             `gorm:"not null;default:0"`
	Ease     decimal.Decimal `gorm:"type:decimal(3,2);not null"`
	Interval int             `gorm:"not null;default:1"`
	// A nil NextReview means the card has never been scheduled and is due
	// immediately.
	LastReview *time.Time
	NextReview *time.Time

	// ReviewedByTC marks the card as vetted by a teacher or admin. Cards
	// created by students start unvetted and count against the owner's
	// unreviewed quota.
	ReviewedByTC bool `gorm:"not null;default:false"`

	UserID uint `gorm:"not null;index"`
	User   User
}

// DefaultEase is the ease assigned to newly created cards.
var DefaultEase = decimal.RequireFromString("2.00")

// IsDue reports whether the card is eligible for study at the given instant.
func (f *Flashcard) IsDue(now time.Time) bool {
	return f.NextReview == nil || !f.NextReview.After(now)
}
