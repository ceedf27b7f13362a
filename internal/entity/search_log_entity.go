package entity

import (
	"time"

	"github.com/google/uuid"
)

// SearchLog records one retrieval round for analytics. Written
// best-effort; chat flow never fails on a logging error.
type SearchLog struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	SessionId       uuid.UUID
	Query           string
	Strategy        string
	KnowledgeHits   int
	WebHits         int
	FusedResults    int
	Reasoning       string
	DurationSeconds float64
	CreatedAt       time.Time
}
