package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lamdn/course-registration-api/internal/models"
	"github.com/lamdn/course-registration-api/internal/repository"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
	"github.com/lamdn/course-registration-api/pkg/jobs"
)

type receiptJobStore interface {
	Create(ctx context.Context, job *models.ReceiptJob) error
	GetByID(ctx context.Context, id string) (*models.ReceiptJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReceiptJobParams) error
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReceiptJob, error)
}

type exportRunner interface {
	Generate(ctx context.Context, job *models.ReceiptJob) (*ExportResult, error)
	Delete(relPath string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

const receiptJobType = "receipt-export"

// ReceiptService coordinates background exports of paid tuition records:
// it queues jobs, runs them through the exporter, and cleans up old files.
type ReceiptService struct {
	store        receiptJobStore
	exporter     exportRunner
	queue        jobDispatcher
	downloadPath string
	logger       *zap.Logger
}

// NewReceiptService constructs ReceiptService. downloadPath is the mounted
// download route, API prefix included, used to build persisted result URLs.
// The queue is attached later via SetQueue because the queue handler needs
// the service itself.
func NewReceiptService(store receiptJobStore, exporter exportRunner, downloadPath string, logger *zap.Logger) *ReceiptService {
	if downloadPath == "" {
		downloadPath = "/exports/download"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{store: store, exporter: exporter, downloadPath: downloadPath, logger: logger}
}

// SetQueue wires the dispatcher used by Request.
func (s *ReceiptService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Request persists a queued export job and dispatches it to the worker pool.
func (s *ReceiptService) Request(ctx context.Context, format models.ReceiptFormat, requestedBy int64) (*models.ReceiptJob, error) {
	switch format {
	case models.ReceiptFormatCSV, models.ReceiptFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export worker unavailable")
	}

	job := &models.ReceiptJob{
		ID:        uuid.NewString(),
		Format:    format,
		Status:    models.ReceiptJobQueued,
		CreatedBy: requestedBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: receiptJobType, Payload: job.ID}); err != nil {
		s.markFailed(context.Background(), job.ID, err.Error())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "dispatch export job")
	}
	s.logger.Info("receipt export queued", zap.String("job_id", job.ID), zap.String("format", string(format)))
	return job, nil
}

// Status returns the current state of a job.
func (s *ReceiptService) Status(ctx context.Context, jobID string) (*models.ReceiptJob, error) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// HandleJob is the queue handler: it runs the export and records the outcome.
func (s *ReceiptService) HandleJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok || jobID == "" {
		jobID = job.ID
	}
	record, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if record.Status == models.ReceiptJobFinished {
		return nil
	}

	processing := models.ReceiptJobProcessing
	if err := s.store.Update(ctx, jobID, repository.UpdateReceiptJobParams{Status: &processing}); err != nil {
		return err
	}

	result, err := s.exporter.Generate(ctx, record)
	if err != nil {
		s.markFailed(ctx, jobID, err.Error())
		return err
	}

	finished := models.ReceiptJobFinished
	now := time.Now().UTC()
	url := s.downloadPath + "?token=" + result.Token
	if err := s.store.Update(ctx, jobID, repository.UpdateReceiptJobParams{
		Status:     &finished,
		ResultURL:  &url,
		FinishedAt: &now,
	}); err != nil {
		return err
	}
	s.logger.Info("receipt export finished", zap.String("job_id", jobID), zap.String("path", result.RelPath))
	return nil
}

// CleanupExpired removes stored files for finished jobs older than the TTL.
func (s *ReceiptService) CleanupExpired(ctx context.Context, ttl time.Duration) error {
	cutoff := time.Now().UTC().Add(-ttl)
	records, err := s.store.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		return err
	}
	for _, record := range records {
		relPath := "receipts/" + record.ID + "." + string(record.Format)
		if err := s.exporter.Delete(relPath); err != nil {
			s.logger.Warn("cleanup export file failed", zap.String("job_id", record.ID), zap.Error(err))
			continue
		}
		failed := models.ReceiptJobFailed
		msg := "expired and removed"
		if err := s.store.Update(ctx, record.ID, repository.UpdateReceiptJobParams{Status: &failed, ErrorMessage: &msg}); err != nil {
			s.logger.Warn("cleanup export status update failed", zap.String("job_id", record.ID), zap.Error(err))
		}
	}
	if len(records) > 0 {
		s.logger.Info("receipt exports cleaned", zap.Int("count", len(records)))
	}
	return nil
}

// StartCleanupLoop runs CleanupExpired on the given interval until ctx ends.
func (s *ReceiptService) StartCleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.CleanupExpired(ctx, ttl); err != nil {
					s.logger.Warn("receipt cleanup pass failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *ReceiptService) markFailed(ctx context.Context, jobID, message string) {
	failed := models.ReceiptJobFailed
	if err := s.store.Update(ctx, jobID, repository.UpdateReceiptJobParams{Status: &failed, ErrorMessage: &message}); err != nil {
		s.logger.Error("mark export failed", zap.String("job_id", jobID), zap.Error(err))
	}
}
