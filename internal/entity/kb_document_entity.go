package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type DocumentSource string

const (
	DocumentSourceUpload DocumentSource = "upload"
	DocumentSourceURL    DocumentSource = "url"
	DocumentSourceInline DocumentSource = "inline"
)

// IngestionResult summarizes a finished ingestion run. Persisted as JSON
// on the document record so clients can inspect partial failures.
type IngestionResult struct {
	TotalChunks     int     `json:"total_chunks"`
	ProcessedChunks int     `json:"processed_chunks"`
	FailedChunks    int     `json:"failed_chunks"`
	SuccessRate     float64 `json:"success_rate"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// KbDocument is both the catalog record of a knowledge-base document and
// the task record tracking its ingestion lifecycle.
type KbDocument struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	GroupId      *int64
	Name         string
	DocType      string
	Source       DocumentSource
	SourcePath   string
	// InlineContent carries text submitted directly in the create
	// request until the ingestion worker consumes it.
	InlineContent string
	Status       DocumentStatus
	Progress     float64
	// TotalChunks and ProcessedChunks track the current ingestion run;
	// Result keeps the final tallies once the run finishes.
	TotalChunks     int
	ProcessedChunks int
	ErrorMessage    string
	Result       *IngestionResult
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
