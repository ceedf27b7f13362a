package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChunkVector is one embedded chunk of a knowledge-base document.
// BatchId groups the chunks written by a single ingestion run so a
// re-ingest can swap the whole set atomically.
type ChunkVector struct {
	Id         uuid.UUID
	DocId      uuid.UUID
	DocName    string
	DocType    string
	SourcePath string
	UserId     uuid.UUID
	GroupId    *int64
	ChunkIndex int
	Content    string
	Embedding  []float32
	BatchId    uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// ScoredChunk is a ChunkVector returned from similarity search together
// with its cosine similarity against the query embedding.
type ScoredChunk struct {
	ChunkVector
	Similarity float64
}
