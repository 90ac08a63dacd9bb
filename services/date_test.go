package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-08-31")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("31/08/2026")
	assert.Error(t, err)
	_, err = ParseDate("2026-13-01")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestParseDateTime(t *testing.T) {
	bare, err := ParseDateTime("2026-08-31")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), bare)

	full, err := ParseDateTime("2026-08-31T14:30:00Z")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC), full)

	_, err = ParseDateTime("next tuesday")
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	stamp := time.Date(2026, 8, 31, 23, 59, 58, 123, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), DateOnly(stamp))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
}
