package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRegionRejectsUnknownNames(t *testing.T) {
	err := SetRegion("Not/AZone")
	assert.Error(t, err)
}

func TestLocalMidnightAsUTC(t *testing.T) {
	require.NoError(t, SetRegion("America/Sao_Paulo"))

	// São Paulo has been UTC-3 year round since 2019, so local midnight is
	// always 03:00 UTC.
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	got := LocalMidnightAsUTC(date)
	assert.True(t, got.Equal(time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)))

	// Only the civil date matters; a clock component on the input is
	// ignored.
	withClock := time.Date(2026, 9, 1, 17, 30, 0, 0, time.UTC)
	assert.True(t, LocalMidnightAsUTC(withClock).Equal(got))
}

func TestLocalMidnightUTCInDays(t *testing.T) {
	require.NoError(t, SetRegion("America/Sao_Paulo"))

	today := LocalMidnightUTCInDays(0)
	tomorrow := LocalMidnightUTCInDays(1)

	assert.False(t, today.After(UTCNow()), "today's local midnight is never in the future")
	assert.True(t, tomorrow.After(UTCNow()), "tomorrow's local midnight is always in the future")
	assert.Equal(t, 24*time.Hour, tomorrow.Sub(today))
}

func TestLocalToday(t *testing.T) {
	require.NoError(t, SetRegion("America/Sao_Paulo"))

	today := LocalToday()
	assert.Equal(t, time.UTC, today.Location())
	h, m, s := today.Clock()
	assert.Zero(t, h)
	assert.Zero(t, m)
	assert.Zero(t, s)

	local := LocalNow()
	assert.Equal(t, local.Day(), today.Day())
	assert.Equal(t, local.Month(), today.Month())
	assert.Equal(t, local.Year(), today.Year())
}

func TestSameCivilDate(t *testing.T) {
	a := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	c := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameCivilDate(&a, &b))
	assert.False(t, SameCivilDate(&a, &c))
	assert.False(t, SameCivilDate(nil, &a))
	assert.False(t, SameCivilDate(&a, nil))
	assert.False(t, SameCivilDate(nil, nil))
}
