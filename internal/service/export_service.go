package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/lamdn/course-registration-api/internal/models"
	"github.com/lamdn/course-registration-api/pkg/export"
	"github.com/lamdn/course-registration-api/pkg/storage"
)

type paidRecordReader interface {
	ListPaid(ctx context.Context) ([]models.CartItemDetail, error)
}

// ExportResult describes a rendered and stored paid-record export.
type ExportResult struct {
	RelPath   string
	Token     string
	ExpiresAt time.Time
}

// ExportService renders paid tuition records into CSV or PDF, stores the
// file, and signs a download token for it.
type ExportService struct {
	records paidRecordReader
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(records paidRecordReader, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		records: records,
		store:   store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Generate renders the current paid records for the job and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReceiptJob) (*ExportResult, error) {
	items, err := s.records.ListPaid(ctx)
	if err != nil {
		return nil, fmt.Errorf("load paid records: %w", err)
	}

	dataset := paidDataset(items)

	var payload []byte
	var ext string
	switch job.Format {
	case models.ReceiptFormatPDF:
		payload, err = s.pdf.Render(dataset, "Paid tuition records")
		ext = "pdf"
	default:
		payload, err = s.csv.Render(dataset)
		ext = "csv"
	}
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	relPath := fmt.Sprintf("receipts/%s.%s", job.ID, ext)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign export url: %w", err)
	}
	s.logger.Info("receipt export generated", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{RelPath: relPath, Token: token, ExpiresAt: expiresAt}, nil
}

// ParseToken validates a download token and returns its metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle for a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.store.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.store.Delete(relPath)
}

func paidDataset(items []models.CartItemDetail) export.Dataset {
	headers := []string{"User ID", "Course ID", "Subject", "Amount (VND)", "Paid At"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		paidAt := ""
		if item.PaidAt != nil {
			paidAt = item.PaidAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"User ID":      fmt.Sprintf("%d", item.UserID),
			"Course ID":    fmt.Sprintf("%d", item.CourseID),
			"Subject":      item.SubjectName,
			"Amount (VND)": models.FormatVND(item.Price),
			"Paid At":      paidAt,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
