package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lamdn/course-registration-api/internal/models"
)

// CourseRepository reads the course catalog consumed by the cart.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID loads a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, subject_name, price, teacher_id, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListAvailable returns courses the student can still select: everything
// without a PAID cart row for that student. Pending selections stay listed
// so the client can render them as already in the cart.
func (r *CourseRepository) ListAvailable(ctx context.Context, userID int64) ([]models.Course, error) {
	const query = `SELECT c.id, c.subject_name, c.price, c.teacher_id, c.created_at
        FROM courses c
        WHERE NOT EXISTS (
            SELECT 1 FROM class_members cm
            WHERE cm.course_id = c.id AND cm.user_id = $1 AND cm.status = 'PAID'
        )
        ORDER BY c.subject_name`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return courses, nil
}
