package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamdn/course-registration-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func samplePeriod(id string) models.RegistrationPeriod {
	return models.RegistrationPeriod{
		ID:            id,
		Year:          2025,
		Semester:      1,
		BeginRegister: day(2025, 8, 1),
		EndRegister:   day(2025, 8, 15),
		DueDateStart:  day(2025, 8, 20),
		DueDateEnd:    day(2025, 8, 31),
	}
}

func TestResolverEmptyPeriodList(t *testing.T) {
	now := day(2025, 8, 10)
	assert.Nil(t, CurrentRegistrationWindow(nil, now))
	assert.Nil(t, CurrentTuitionWindow(nil, now))
	assert.Nil(t, NextTuitionWindow(nil, now))
	assert.Nil(t, RelevantPeriod(nil, now))
	assert.Empty(t, DedupByWindow(nil))
}

func TestResolverCurrentRegistrationWindow(t *testing.T) {
	periods := []models.RegistrationPeriod{samplePeriod("p1")}

	got := CurrentRegistrationWindow(periods, day(2025, 8, 10))
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.ID)

	// Boundaries are inclusive.
	assert.NotNil(t, CurrentRegistrationWindow(periods, day(2025, 8, 1)))
	assert.NotNil(t, CurrentRegistrationWindow(periods, day(2025, 8, 15)))
	assert.Nil(t, CurrentRegistrationWindow(periods, day(2025, 7, 31)))
	assert.Nil(t, CurrentRegistrationWindow(periods, day(2025, 8, 16)))
}

func TestResolverTuitionWindows(t *testing.T) {
	p1 := samplePeriod("p1")
	p2 := samplePeriod("p2")
	p2.DueDateStart = day(2025, 9, 10)
	p2.DueDateEnd = day(2025, 9, 20)
	periods := []models.RegistrationPeriod{p1, p2}

	inWindow := CurrentTuitionWindow(periods, day(2025, 8, 25))
	require.NotNil(t, inWindow)
	assert.Equal(t, "p1", inWindow.ID)

	// Between windows: no current, next is the smallest future due_date_start.
	assert.Nil(t, CurrentTuitionWindow(periods, day(2025, 9, 1)))
	next := NextTuitionWindow(periods, day(2025, 9, 1))
	require.NotNil(t, next)
	assert.Equal(t, "p2", next.ID)

	// After everything: nothing upcoming.
	assert.Nil(t, NextTuitionWindow(periods, day(2025, 10, 1)))
}

func TestResolverDeterminism(t *testing.T) {
	p1 := samplePeriod("p1")
	p2 := samplePeriod("p2")
	// p2 overlaps p1 entirely; first in store order must win, every time.
	periods := []models.RegistrationPeriod{p1, p2}
	now := day(2025, 8, 10)

	for i := 0; i < 5; i++ {
		reg := CurrentRegistrationWindow(periods, now)
		require.NotNil(t, reg)
		assert.Equal(t, "p1", reg.ID)
		tui := CurrentTuitionWindow(periods, day(2025, 8, 25))
		require.NotNil(t, tui)
		assert.Equal(t, "p1", tui.ID)
	}
}

func TestResolverDedupByWindow(t *testing.T) {
	p1 := samplePeriod("p1")
	p2 := samplePeriod("p2")
	// Same dates at different times of day are still one logical window.
	p2.BeginRegister = p2.BeginRegister.Add(9 * time.Hour)
	p2.EndRegister = p2.EndRegister.Add(17 * time.Hour)
	p3 := samplePeriod("p3")
	p3.BeginRegister = day(2025, 9, 1)
	p3.EndRegister = day(2025, 9, 15)

	deduped := DedupByWindow([]models.RegistrationPeriod{p1, p2, p3})
	require.Len(t, deduped, 2)
	assert.Equal(t, "p1", deduped[0].ID)
	assert.Equal(t, "p3", deduped[1].ID)
}

func TestResolverRelevantPeriodFallback(t *testing.T) {
	p := samplePeriod("p1")
	periods := []models.RegistrationPeriod{p}

	// Inside registration window.
	got := RelevantPeriod(periods, day(2025, 8, 10))
	require.NotNil(t, got)
	// Between registration close and tuition open: upcoming tuition window.
	got = RelevantPeriod(periods, day(2025, 8, 17))
	require.NotNil(t, got)
	// Inside tuition window.
	got = RelevantPeriod(periods, day(2025, 8, 25))
	require.NotNil(t, got)
	// Fully in the past: nothing relevant.
	assert.Nil(t, RelevantPeriod(periods, day(2025, 12, 1)))
}
