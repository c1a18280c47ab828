package utils

import (
	"fmt"
	"time"
)

// region is the fixed civic calendar used for all day-boundary decisions
// (streaks, due dates for ratings 2 and 3), regardless of where the acting
// user happens to be. Set once at startup from config.
var region *time.Location

// SetRegion loads the IANA timezone used for local day boundaries.
// An unknown region name is a startup error.
func SetRegion(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	region = loc
	return nil
}

// UTCNow returns the current UTC instant.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// LocalNow returns the current instant expressed in the configured region.
func LocalNow() time.Time {
	return time.Now().In(region)
}

// LocalToday returns the current civil date in the configured region,
// normalized to midnight UTC. Civil dates are always passed around in this
// normalized form so they can be compared with Equal and stored in date
// columns.
func LocalToday() time.Time {
	now := LocalNow()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalMidnightAsUTC takes a civil date and returns the UTC instant of
// 00:00:00 local time on that date. Store this in timestamptz columns.
func LocalMidnightAsUTC(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, region).UTC()
}

// LocalMidnightUTCInDays returns local midnight n days from today, as UTC.
func LocalMidnightUTCInDays(n int) time.Time {
	return LocalMidnightAsUTC(LocalToday().AddDate(0, 0, n))
}

// SameCivilDate reports whether two normalized civil dates fall on the same
// day. Nil-safe on either side.
func SameCivilDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
