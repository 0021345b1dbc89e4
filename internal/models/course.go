package models

import "time"

// Course is the read model for a sellable course. Subject name and price are
// carried for display; the authoritative course catalog lives outside this
// subsystem.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Price       int64     `db:"price" json:"price"`
	TeacherID   *int64    `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
