// Package retrieval holds the shared types for knowledge-base and web
// retrieval: hits, scopes, and source tags.
package retrieval

import "github.com/google/uuid"

const (
	SourceKnowledgeBase = "knowledge_base"
	SourceWebSearch     = "web_search"
)

// Hit is one retrieval result, from either the knowledge base or the
// web. Score is normalized to [0,1]; Locator is a document path for KB
// hits and a URL for web hits.
type Hit struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	Title   string  `json:"title,omitempty"`
	Locator string  `json:"locator,omitempty"`
	DocId   string  `json:"doc_id,omitempty"`
}

// Scope narrows knowledge-base retrieval to one user, optionally
// widened to a shared group.
type Scope struct {
	UserId  uuid.UUID
	GroupId *int64
}
