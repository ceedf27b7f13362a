package websearch

import (
	"context"

	"sparklink-ai-be/pkg/retrieval"
)

// WebSearchProvider turns a query into ranked web results. Providers
// fail soft: an unconfigured provider returns an empty list, not an
// error, so chat keeps working without web search.
type WebSearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]retrieval.Hit, error)
}
