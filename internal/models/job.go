package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusReady      JobStatus = "ready"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether a job in this status can never transition again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusReady || s == JobStatusFailed
}

type QualityTier string

const (
	TierStandard QualityTier = "standard"
	TierHD       QualityTier = "hd"
)

// DownloadItem is one resolved image inside a job. The list is immutable
// once the job row is inserted.
type DownloadItem struct {
	SourceURL   string `json:"source_url" validate:"required,url"`
	DisplayName string `json:"display_name" validate:"required"`
	SourceID    string `json:"source_id"`
}

// DownloadItems is stored as a single jsonb column.
type DownloadItems []DownloadItem

func (d DownloadItems) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal download items: %w", err)
	}
	return b, nil
}

func (d *DownloadItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = nil
		return nil
	default:
		return fmt.Errorf("unsupported type for download items: %T", src)
	}
}

type DownloadJob struct {
	JobID       uuid.UUID     `json:"job_id" db:"job_id" validate:"omitempty"`
	RequestedBy uuid.UUID     `json:"requested_by" db:"requested_by" validate:"omitempty"`
	Items       DownloadItems `json:"items" db:"items" validate:"required,min=1,dive"`
	QualityTier QualityTier   `json:"quality_tier" db:"quality_tier" validate:"required,oneof=standard hd"`
	Status      JobStatus     `json:"status" db:"status" validate:"omitempty"`
	ArchiveURL  *string       `json:"archive_url" db:"archive_url" validate:"omitempty"`
	ErrorDetail *string       `json:"error_detail" db:"error_detail" validate:"omitempty"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at" validate:"omitempty"`
	ProcessedAt *time.Time    `json:"processed_at" db:"processed_at" validate:"omitempty"`
}

type JobList struct {
	Jobs       []*DownloadJob `json:"jobs"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	HasMore    bool           `json:"has_more"`
}

// CreateJobInput is the client payload for the server download path. Raw image
// records are resolved to items before anything is persisted.
type CreateJobInput struct {
	Images      []ImageRecord `json:"images" validate:"required,min=1,dive"`
	QualityTier QualityTier   `json:"quality_tier" validate:"required,oneof=standard hd"`
}

// LocalArchive is the synchronous build result for batches below the
// server-path threshold, delivered directly in the response.
type LocalArchive struct {
	FileName      string `json:"file_name"`
	ArchiveBytes  []byte `json:"-"`
	IncludedCount int    `json:"included_count"`
	ExcludedCount int    `json:"excluded_count"`
}

// DecideInput asks which download path a prospective batch should take.
type DecideInput struct {
	ItemCount   int         `json:"item_count" validate:"required,min=1"`
	QualityTier QualityTier `json:"quality_tier" validate:"required,oneof=standard hd"`
}

// WorkerRunInput carries the optional knobs of the worker trigger endpoint.
type WorkerRunInput struct {
	MaxBatchSize             int `json:"max_batch_size" validate:"omitempty,min=1,max=10"`
	ProcessingTimeoutSeconds int `json:"processing_timeout_seconds" validate:"omitempty,min=5,max=600"`
}

// WorkerReport summarizes one worker invocation.
type WorkerReport struct {
	Processed int   `json:"processed"`
	Success   int   `json:"success"`
	Failed    int   `json:"failed"`
	Remaining int64 `json:"remaining"`
}

type JobEventType string

const (
	JobEventAccepted JobEventType = "accepted"
	JobEventUpdated  JobEventType = "updated"
	JobEventResync   JobEventType = "resync"
)

// JobEvent is pushed over the realtime channel whenever a job row changes.
// Resync events are synthesized locally after a reconnect.
type JobEvent struct {
	Type        JobEventType `json:"type"`
	JobID       uuid.UUID    `json:"job_id"`
	RequestedBy uuid.UUID    `json:"requested_by"`
	Status      JobStatus    `json:"status"`
	ArchiveURL  *string      `json:"archive_url,omitempty"`
	ErrorDetail *string      `json:"error_detail,omitempty"`
	Title       string       `json:"title,omitempty"`
}
