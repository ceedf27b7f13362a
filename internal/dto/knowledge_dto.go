package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type CreateDocumentFromURLRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url" validate:"required,url"`
}

type CreateDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type DocumentStatusResponse struct {
	Id              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	DocType         string              `json:"doc_type"`
	Source          string              `json:"source"`
	Status          string              `json:"status"`
	Progress        int                 `json:"progress"`
	TotalChunks     int                 `json:"total_chunks"`
	ProcessedChunks int                 `json:"processed_chunks"`
	Error           string              `json:"error,omitempty"`
	Result          *IngestionResultDTO `json:"result,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       *time.Time          `json:"updated_at"`
}

type IngestionResultDTO struct {
	TotalChunks     int     `json:"total_chunks"`
	ProcessedChunks int     `json:"processed_chunks"`
	FailedChunks    int     `json:"failed_chunks"`
	SuccessRate     float64 `json:"success_rate"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

type KnowledgeSearchRequest struct {
	Query     string  `json:"query" validate:"required"`
	TopK      int     `json:"top_k" validate:"omitempty,min=1,max=50"`
	Threshold float64 `json:"threshold" validate:"omitempty,min=0,max=1"`
}

type KnowledgeSearchResult struct {
	DocId      uuid.UUID `json:"doc_id"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
	ChunkIndex int       `json:"chunk_index"`
}

type DeleteDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

// PublishIngestDocumentMessage is the internal queue payload that hands
// a pending document to the ingestion worker.
type PublishIngestDocumentMessage struct {
	DocId uuid.UUID `json:"doc_id"`
}
