package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lamdn/course-registration-api/internal/models"
)

// ReceiptJobRepository persists background export jobs.
type ReceiptJobRepository struct {
	db *sqlx.DB
}

// NewReceiptJobRepository constructs the repository.
func NewReceiptJobRepository(db *sqlx.DB) *ReceiptJobRepository {
	return &ReceiptJobRepository{db: db}
}

// Create inserts a queued job.
func (r *ReceiptJobRepository) Create(ctx context.Context, job *models.ReceiptJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ReceiptJobQueued
	}
	const query = `INSERT INTO receipt_jobs (id, format, status, result_url, created_by, created_at, finished_at, error_message)
        VALUES (:id, :format, :status, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create receipt job: %w", err)
	}
	return nil
}

// GetByID loads a job by identifier.
func (r *ReceiptJobRepository) GetByID(ctx context.Context, id string) (*models.ReceiptJob, error) {
	const query = `SELECT id, format, status, result_url, created_by, created_at, finished_at, error_message
        FROM receipt_jobs WHERE id = $1`
	var job models.ReceiptJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateReceiptJobParams carries optional job mutations.
type UpdateReceiptJobParams struct {
	Status       *models.ReceiptJobStatus
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided mutations to a job row.
func (r *ReceiptJobRepository) Update(ctx context.Context, id string, params UpdateReceiptJobParams) error {
	sets := []string{}
	args := []interface{}{id}
	if params.Status != nil {
		args = append(args, *params.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.ResultURL != nil {
		args = append(args, *params.ResultURL)
		sets = append(sets, fmt.Sprintf("result_url = $%d", len(args)))
	}
	if params.ErrorMessage != nil {
		args = append(args, *params.ErrorMessage)
		sets = append(sets, fmt.Sprintf("error_message = $%d", len(args)))
	}
	if params.FinishedAt != nil {
		args = append(args, *params.FinishedAt)
		sets = append(sets, fmt.Sprintf("finished_at = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE receipt_jobs SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update receipt job: %w", err)
	}
	return nil
}

// ListFinishedBefore returns finished jobs older than the cutoff, for
// cleanup of stored files.
func (r *ReceiptJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReceiptJob, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, format, status, result_url, created_by, created_at, finished_at, error_message
        FROM receipt_jobs
        WHERE status = $1 AND finished_at IS NOT NULL AND finished_at < $2
        ORDER BY finished_at LIMIT $3`
	var jobs []models.ReceiptJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReceiptJobFinished, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finished receipt jobs: %w", err)
	}
	return jobs, nil
}
