package models

import "time"

// DateOnly is the layout period-editing endpoints exchange dates in.
const DateOnly = "2006-01-02"

// RegistrationPeriod is an admin-defined pair of time windows scoped to a
// year/semester: students add/remove cart items inside the registration
// window and pay inside the tuition window. Periods are never deleted;
// historical rows stay for audit.
type RegistrationPeriod struct {
	ID            string    `db:"id" json:"id"`
	Year          int       `db:"year" json:"year"`
	Semester      int       `db:"semester" json:"semester"`
	BeginRegister time.Time `db:"begin_register" json:"begin_register"`
	EndRegister   time.Time `db:"end_register" json:"end_register"`
	DueDateStart  time.Time `db:"due_date_start" json:"due_date_start"`
	DueDateEnd    time.Time `db:"due_date_end" json:"due_date_end"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ContainsRegistration reports whether now falls inside the registration
// window, boundaries inclusive.
func (p RegistrationPeriod) ContainsRegistration(now time.Time) bool {
	return !now.Before(p.BeginRegister) && !now.After(p.EndRegister)
}

// ContainsTuition reports whether now falls inside the tuition window,
// boundaries inclusive.
func (p RegistrationPeriod) ContainsTuition(now time.Time) bool {
	return !now.Before(p.DueDateStart) && !now.After(p.DueDateEnd)
}

// WindowKey identifies the registration window at date precision. Rows that
// share a key are one logical period to readers even when the backend stores
// one row per user.
func (p RegistrationPeriod) WindowKey() string {
	return p.BeginRegister.Format(DateOnly) + "/" + p.EndRegister.Format(DateOnly)
}

// Editable reports whether the registration window has not yet closed.
// Expired periods are read-only.
func (p RegistrationPeriod) Editable(now time.Time) bool {
	return !p.EndRegister.Before(now)
}

// PeriodCourseBreakdown is one row of a period detail: how many students
// selected each course during the period's registration window.
type PeriodCourseBreakdown struct {
	CourseID    int64  `db:"course_id" json:"course_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	Enrolled    int    `db:"enrolled" json:"enrolled"`
	Paid        int    `db:"paid" json:"paid"`
}

// PeriodDetail is a period with its enrolled-course breakdown.
type PeriodDetail struct {
	RegistrationPeriod
	Courses []PeriodCourseBreakdown `json:"courses"`
}
