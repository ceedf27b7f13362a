// Package decision picks the retrieval route for a chat query:
// knowledge base, web search, both, or neither.
package decision

import (
	"context"
	"fmt"

	"sparklink-ai-be/pkg/retrieval"
)

type Strategy string

const (
	StrategyKnowledgeOnly Strategy = "knowledge_only"
	StrategyWebOnly       Strategy = "web_only"
	StrategyHybrid        Strategy = "hybrid"
	StrategyAuto          Strategy = "auto"
	StrategyNone          Strategy = "none"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyKnowledgeOnly, StrategyWebOnly, StrategyHybrid, StrategyAuto, StrategyNone:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown search strategy: %q", s)
}

// ResolveStrategy maps the two client toggles onto a strategy when no
// explicit strategy was sent.
func ResolveStrategy(useKnowledge, useWeb bool) Strategy {
	switch {
	case useKnowledge && useWeb:
		return StrategyAuto
	case useKnowledge:
		return StrategyKnowledgeOnly
	case useWeb:
		return StrategyWebOnly
	default:
		return StrategyNone
	}
}

// KnowledgeSearcher is the knowledge-base side of retrieval.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int, threshold float64, scope retrieval.Scope) ([]retrieval.Hit, error)
}

// WebSearcher is the web side of retrieval.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]retrieval.Hit, error)
}

type Logger interface {
	Warn(module string, message string, details map[string]interface{})
}

type Config struct {
	TopK                int
	SimilarityThreshold float64
	WebMaxResults       int
	// ExtraTriggerWords widens the auto-mode web trigger set
	ExtraTriggerWords []string
}

// Result carries both hit lists plus a reasoning trail of which
// branches fired. Reasoning is for logs and tests, not for display.
type Result struct {
	KnowledgeHits []retrieval.Hit
	WebHits       []retrieval.Hit
	Reasoning     string
}

type Engine struct {
	knowledge KnowledgeSearcher
	web       WebSearcher
	logger    Logger
	cfg       Config
}

func NewEngine(knowledge KnowledgeSearcher, web WebSearcher, logger Logger, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.7
	}
	if cfg.WebMaxResults <= 0 {
		cfg.WebMaxResults = 5
	}
	return &Engine{
		knowledge: knowledge,
		web:       web,
		logger:    logger,
		cfg:       cfg,
	}
}

// DecideAndFetch runs retrieval per the strategy. Gateway failures
// degrade to empty hit lists; this method never aborts the request.
func (e *Engine) DecideAndFetch(ctx context.Context, query string, strategy Strategy, scope retrieval.Scope) *Result {
	result := &Result{}

	switch strategy {
	case StrategyNone:
		result.Reasoning = "augmentation disabled"
		return result

	case StrategyKnowledgeOnly:
		result.KnowledgeHits = e.searchKnowledge(ctx, query, scope)
		result.Reasoning = fmt.Sprintf("knowledge_only: %d hits", len(result.KnowledgeHits))
		return result

	case StrategyWebOnly:
		keywords := ExtractKeywords(query)
		result.WebHits = e.searchWeb(ctx, keywords)
		result.Reasoning = fmt.Sprintf("web_only: keywords=%q, %d hits", keywords, len(result.WebHits))
		return result

	case StrategyHybrid:
		result.KnowledgeHits = e.searchKnowledge(ctx, query, scope)
		result.WebHits = e.searchWeb(ctx, query)
		result.Reasoning = fmt.Sprintf("hybrid: %d kb hits, %d web hits",
			len(result.KnowledgeHits), len(result.WebHits))
		return result

	case StrategyAuto:
		result.KnowledgeHits = e.searchKnowledge(ctx, query, scope)
		if NeedsWebSearch(query, e.cfg.ExtraTriggerWords) {
			result.WebHits = e.searchWeb(ctx, query)
			result.Reasoning = fmt.Sprintf("auto: recency marker matched, %d kb hits, %d web hits",
				len(result.KnowledgeHits), len(result.WebHits))
		} else {
			result.Reasoning = fmt.Sprintf("auto: no recency marker, %d kb hits, web skipped",
				len(result.KnowledgeHits))
		}
		return result
	}

	result.Reasoning = fmt.Sprintf("unknown strategy %q treated as none", strategy)
	return result
}

func (e *Engine) searchKnowledge(ctx context.Context, query string, scope retrieval.Scope) []retrieval.Hit {
	if e.knowledge == nil {
		return nil
	}
	hits, err := e.knowledge.Search(ctx, query, e.cfg.TopK, e.cfg.SimilarityThreshold, scope)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("decision", "knowledge search failed, continuing without kb hits", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}
	return hits
}

func (e *Engine) searchWeb(ctx context.Context, query string) []retrieval.Hit {
	if e.web == nil {
		return nil
	}
	hits, err := e.web.Search(ctx, query, e.cfg.WebMaxResults)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("decision", "web search failed, continuing without web hits", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}
	return hits
}
