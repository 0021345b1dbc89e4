package models

import "time"

// ReceiptFormat enumerates supported export formats for paid-record dumps.
type ReceiptFormat string

const (
	ReceiptFormatCSV ReceiptFormat = "csv"
	ReceiptFormatPDF ReceiptFormat = "pdf"
)

// ReceiptJobStatus captures background export lifecycle states.
type ReceiptJobStatus string

const (
	ReceiptJobQueued     ReceiptJobStatus = "QUEUED"
	ReceiptJobProcessing ReceiptJobStatus = "PROCESSING"
	ReceiptJobFinished   ReceiptJobStatus = "FINISHED"
	ReceiptJobFailed     ReceiptJobStatus = "FAILED"
)

// ReceiptJob is a persisted background export of paid tuition records.
type ReceiptJob struct {
	ID           string           `db:"id" json:"id"`
	Format       ReceiptFormat    `db:"format" json:"format"`
	Status       ReceiptJobStatus `db:"status" json:"status"`
	ResultURL    *string          `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    int64            `db:"created_by" json:"created_by"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time       `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string          `db:"error_message" json:"error_message,omitempty"`
}
