package service

import (
	"time"

	"github.com/lamdn/course-registration-api/internal/models"
)

// Window resolution is pure: every function below is total over any period
// slice (including nil) and deterministic for a fixed (periods, now) pair.
// Ties between simultaneously active periods resolve to the first match in
// store order; the store does not promise chronological ordering.

// CurrentRegistrationWindow returns the first period whose registration
// window contains now, or nil.
func CurrentRegistrationWindow(periods []models.RegistrationPeriod, now time.Time) *models.RegistrationPeriod {
	for i := range periods {
		if periods[i].ContainsRegistration(now) {
			return &periods[i]
		}
	}
	return nil
}

// CurrentTuitionWindow returns the first period whose tuition window
// contains now, or nil.
func CurrentTuitionWindow(periods []models.RegistrationPeriod, now time.Time) *models.RegistrationPeriod {
	for i := range periods {
		if periods[i].ContainsTuition(now) {
			return &periods[i]
		}
	}
	return nil
}

// NextTuitionWindow returns the period with the smallest due_date_start
// still in the future, or nil. Only meaningful when no tuition window is
// currently open.
func NextTuitionWindow(periods []models.RegistrationPeriod, now time.Time) *models.RegistrationPeriod {
	var next *models.RegistrationPeriod
	for i := range periods {
		if !periods[i].DueDateStart.After(now) {
			continue
		}
		if next == nil || periods[i].DueDateStart.Before(next.DueDateStart) {
			next = &periods[i]
		}
	}
	return next
}

// RelevantPeriod picks the period the strict filters correlate against:
// the open registration window, else the open tuition window, else the
// upcoming tuition window. Nil when no period is relevant.
func RelevantPeriod(periods []models.RegistrationPeriod, now time.Time) *models.RegistrationPeriod {
	if p := CurrentRegistrationWindow(periods, now); p != nil {
		return p
	}
	if p := CurrentTuitionWindow(periods, now); p != nil {
		return p
	}
	return NextTuitionWindow(periods, now)
}

// DedupByWindow collapses rows that share a registration window at date
// precision into one logical entry, keeping the first row in store order.
// The backend may legitimately store one row per user for the same window;
// read paths must never show the duplicates.
func DedupByWindow(periods []models.RegistrationPeriod) []models.RegistrationPeriod {
	if len(periods) == 0 {
		return periods
	}
	seen := make(map[string]struct{}, len(periods))
	deduped := make([]models.RegistrationPeriod, 0, len(periods))
	for _, p := range periods {
		key := p.WindowKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, p)
	}
	return deduped
}
