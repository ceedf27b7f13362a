package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

// SourceRef is a citation attached to a persisted message: where a piece
// of grounding context came from (knowledge base chunk or web result).
type SourceRef struct {
	Source  string  `json:"source"`
	Title   string  `json:"title,omitempty"`
	Locator string  `json:"locator,omitempty"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

type ChatMessage struct {
	Id               uuid.UUID
	ChatSessionId    uuid.UUID
	Role             string
	Content          string
	SequenceNumber   int
	RequestId        string
	ThinkingProcess  string
	KnowledgeSources []SourceRef
	WebSearchResults []SourceRef
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
}
