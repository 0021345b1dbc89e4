package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lamdn/course-registration-api/internal/models"
)

// PeriodRepository handles persistence of registration periods. Periods are
// never deleted; historical rows are kept for audit and reporting.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

const periodColumns = `id, year, semester, begin_register, end_register, due_date_start, due_date_end, created_at, updated_at`

// ListAll returns every period in stable store order. Callers must not
// assume chronological ordering of the windows themselves.
func (r *PeriodRepository) ListAll(ctx context.Context) ([]models.RegistrationPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_periods ORDER BY created_at, id`, periodColumns)
	var periods []models.RegistrationPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}

// FindByID loads a period by identifier.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.RegistrationPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_periods WHERE id = $1`, periodColumns)
	var period models.RegistrationPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// ExistsByWindow checks for a period with the same registration window
// (date precision) within a year/semester.
func (r *PeriodRepository) ExistsByWindow(ctx context.Context, year, semester int, begin, end time.Time) (bool, error) {
	const query = `SELECT 1 FROM registration_periods
        WHERE year = $1 AND semester = $2
          AND begin_register::date = $3::date AND end_register::date = $4::date
        LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, year, semester, begin, end); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check period window: %w", err)
	}
	return true, nil
}

// FindByOriginalWindow resolves the legacy edit contract: the period is
// matched by its pre-edit begin/end dates, first match in store order.
func (r *PeriodRepository) FindByOriginalWindow(ctx context.Context, begin, end time.Time) (*models.RegistrationPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_periods
        WHERE begin_register::date = $1::date AND end_register::date = $2::date
        ORDER BY created_at, id LIMIT 1`, periodColumns)
	var period models.RegistrationPeriod
	if err := r.db.GetContext(ctx, &period, query, begin, end); err != nil {
		return nil, err
	}
	return &period, nil
}

// Create inserts a new period row.
func (r *PeriodRepository) Create(ctx context.Context, period *models.RegistrationPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO registration_periods (id, year, semester, begin_register, end_register, due_date_start, due_date_end, created_at, updated_at)
        VALUES (:id, :year, :semester, :begin_register, :end_register, :due_date_start, :due_date_end, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// UpdateWindow rewrites the date fields of a period as a compare-and-swap
// on the original window: the row is touched only while its begin/end dates
// still match what the editor saw. Zero rows affected means another admin
// changed the period first. Year and semester are immutable.
func (r *PeriodRepository) UpdateWindow(ctx context.Context, id string, originalBegin, originalEnd time.Time, updated models.RegistrationPeriod) (bool, error) {
	const query = `UPDATE registration_periods
        SET begin_register = $4, end_register = $5, due_date_start = $6, due_date_end = $7, updated_at = $8
        WHERE id = $1 AND begin_register::date = $2::date AND end_register::date = $3::date`
	res, err := r.db.ExecContext(ctx, query, id, originalBegin, originalEnd,
		updated.BeginRegister, updated.EndRegister, updated.DueDateStart, updated.DueDateEnd, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update period window: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update period window result: %w", err)
	}
	return affected > 0, nil
}

// CourseBreakdown aggregates cart activity per course inside a period's
// registration window.
func (r *PeriodRepository) CourseBreakdown(ctx context.Context, begin, end time.Time) ([]models.PeriodCourseBreakdown, error) {
	const query = `SELECT cm.course_id, c.subject_name,
            COUNT(*) AS enrolled,
            COUNT(*) FILTER (WHERE cm.status = 'PAID') AS paid
        FROM class_members cm
        JOIN courses c ON c.id = cm.course_id
        WHERE cm.created_at >= $1 AND cm.created_at <= $2
        GROUP BY cm.course_id, c.subject_name
        ORDER BY cm.course_id`
	var rows []models.PeriodCourseBreakdown
	if err := r.db.SelectContext(ctx, &rows, query, begin, end); err != nil {
		return nil, fmt.Errorf("period course breakdown: %w", err)
	}
	return rows, nil
}
