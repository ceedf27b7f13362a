package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=100"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type UpdateSessionTitleRequest struct {
	Id    uuid.UUID
	Title string `json:"title" validate:"required,max=100"`
}

// SourceRefDTO is a citation attached to an assistant reply, either a
// knowledge base chunk or a web result.
type SourceRefDTO struct {
	Source  string  `json:"source"`
	Title   string  `json:"title"`
	Locator string  `json:"locator,omitempty"`
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt,omitempty"`
}

type GetChatHistoryResponse struct {
	Id               uuid.UUID      `json:"id"`
	Role             string         `json:"role"`
	Content          string         `json:"content"`
	ThinkingProcess  string         `json:"thinking_process,omitempty"`
	SequenceNumber   int64          `json:"sequence_number"`
	KnowledgeSources []SourceRefDTO `json:"knowledge_sources,omitempty"`
	WebSearchResults []SourceRefDTO `json:"web_search_results,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

type ChatStreamRequest struct {
	SessionId        *uuid.UUID `json:"session_id"`
	Message          string     `json:"message" validate:"required"`
	UseKnowledgeBase bool       `json:"use_knowledge_base"`
	UseWebSearch     bool       `json:"use_web_search"`
	Strategy         string     `json:"strategy" validate:"omitempty,oneof=auto knowledge_only web_only hybrid none"`
}

type SendChatRequest struct {
	SessionId        *uuid.UUID `json:"session_id"`
	Message          string     `json:"message" validate:"required"`
	UseKnowledgeBase bool       `json:"use_knowledge_base"`
	UseWebSearch     bool       `json:"use_web_search"`
	Strategy         string     `json:"strategy" validate:"omitempty,oneof=auto knowledge_only web_only hybrid none"`
}

type SendChatResponse struct {
	SessionId        uuid.UUID      `json:"session_id"`
	SessionTitle     string         `json:"session_title"`
	Reply            string         `json:"reply"`
	ThinkingProcess  string         `json:"thinking_process,omitempty"`
	KnowledgeSources []SourceRefDTO `json:"knowledge_sources,omitempty"`
	WebSearchResults []SourceRefDTO `json:"web_search_results,omitempty"`
	ResponseTime     float64        `json:"response_time"`
}

type CancelStreamResponse struct {
	RequestId string `json:"request_id"`
	Cancelled bool   `json:"cancelled"`
}
