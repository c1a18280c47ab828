// Package srs holds the pure spaced-repetition core: the rating-driven card
// scheduler and the study-streak tracker. Nothing in here touches the
// database or the clock; callers pass the current instants in and persist
// the returned state.
package srs

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"linguahub/backend/utils"
)

// Rating is the user's recall grade for a single card.
type Rating int

const (
	// RatingAgain means recall failed; the card resurfaces immediately in
	// the same session.
	RatingAgain Rating = 1
	// RatingGood means recalled; review again tomorrow.
	RatingGood Rating = 2
	// RatingEasy means recalled with effort worth spacing further out.
	RatingEasy Rating = 3
)

func (r Rating) Valid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

var ErrInvalidRating = errors.New("rating must be 1, 2 or 3")

// Ease and interval bounds. Ease below the floor degenerates into constant
// re-review; intervals above a year stop being study.
var (
	EaseFloor = decimal.RequireFromString("1.30")
	easeBonus = decimal.RequireFromString("0.5")
)

const (
	MinInterval = 1
	MaxInterval = 365
)

// CardState is the scheduling subset of a flashcard.
type CardState struct {
	Level      int
	Ease       decimal.Decimal
	Interval   int
	LastReview *time.Time
	NextReview *time.Time
}

// Due reports whether the card is eligible for study at the given instant.
// A card that was never scheduled is due immediately.
func (s CardState) Due(now time.Time) bool {
	return s.NextReview == nil || !s.NextReview.After(now)
}

// ApplyRating computes the card's next scheduling state for a rating and
// returns it together with the points the rating awards. nowUTC is the
// instant of the rating; todayLocal is the local civil date of that instant
// (normalized to midnight UTC), which anchors the day-boundary math for
// ratings 2 and 3.
//
// Rating 1 deliberately sets next_review to nowUTC rather than a future day
// boundary: the card is meant to resurface later in the same session.
func ApplyRating(state CardState, rating Rating, nowUTC time.Time, todayLocal time.Time) (CardState, int, error) {
	if !rating.Valid() {
		return state, 0, ErrInvalidRating
	}

	state.Level++
	state.LastReview = &nowUTC

	switch rating {
	case RatingAgain:
		state.Ease = EaseFloor
		state.Interval = MinInterval
		redo := nowUTC
		state.NextReview = &redo
		return state, 0, nil

	case RatingGood:
		state.Ease = EaseFloor
		state.Interval = MinInterval
		tomorrow := utils.LocalMidnightAsUTC(todayLocal.AddDate(0, 0, 1))
		state.NextReview = &tomorrow
		return state, 2, nil

	default: // RatingEasy
		state.Ease = nextEase(state.Ease, rating)
		state.Interval = nextInterval(state.Interval, state.Ease)
		next := utils.LocalMidnightAsUTC(todayLocal.AddDate(0, 0, state.Interval))
		state.NextReview = &next

		points := state.Interval / 2
		if points < 1 {
			points = 1
		}
		return state, points, nil
	}
}

// nextEase applies the general ease formula
//
//	(ease + 0.5 − (5−rating)×(0.08 + (5−rating)×0.02)) / 2
//
// rounded half-up to two digits and floored at 1.30. Only rating 3 reaches
// this today, but the (5 − rating) form is kept for future rating scales.
func nextEase(ease decimal.Decimal, rating Rating) decimal.Decimal {
	q := decimal.NewFromInt(int64(5 - int(rating)))
	penalty := q.Mul(decimal.RequireFromString("0.08").Add(q.Mul(decimal.RequireFromString("0.02"))))

	next := ease.Add(easeBonus).Sub(penalty).Div(decimal.NewFromInt(2)).Round(2)
	if next.LessThan(EaseFloor) {
		return EaseFloor
	}
	return next
}

// nextInterval grows the interval by the new ease, rounding up so growth is
// monotonic, and clamps to [MinInterval, MaxInterval].
func nextInterval(interval int, ease decimal.Decimal) int {
	grown := int(decimal.NewFromInt(int64(interval)).Mul(ease).Ceil().IntPart())
	if grown < MinInterval {
		return MinInterval
	}
	if grown > MaxInterval {
		return MaxInterval
	}
	return grown
}
