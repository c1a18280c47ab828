package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of account roles. The original platform compared
// raw role strings all over the place; handlers and services should only go
// through the capability predicates below.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}

// CanSupervise reports whether the role may act on another user's deck
// (review, create, edit, triage).
func (r Role) CanSupervise() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// CanAdminister reports whether the role may manage users and assignments.
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

type User struct {
	gorm.Model
	Username     string `gorm:"unique;not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	Role         Role   `gorm:"type:varchar(10);not null;default:student"`

	// A student may be assigned to one teacher; the teacher then supervises
	// the student's deck and reviews cards on their behalf.
	AssignedTeacherID *uint
	AssignedTeacher   *User `gorm:"foreignKey:AssignedTeacherID"`

	// Progress counters. MaxPoints is derived (Points × MaxStudyStreak) and
	// recomputed on every streak update.
	Points            int `gorm:"not null;default:0"`
	MaxPoints         int `gorm:"not null;default:0"`
	FlashcardsStudied int `gorm:"not null;default:0"`
	RateThreeCount    int `gorm:"not null;default:0"`
	StudyStreak       int `gorm:"not null;default:0"`
	MaxStudyStreak    int `gorm:"not null;default:0"`
	// StreakLastDate is the last local civil date the streak was credited,
	// normalized to midnight UTC.
	StreakLastDate *time.Time `gorm:"type:date"`

	Flashcards []Flashcard
}
