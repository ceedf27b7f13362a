// Package fusion merges knowledge-base and web hits into one ranked,
// deduplicated context list.
package fusion

import (
	"sort"
	"strings"

	"sparklink-ai-be/pkg/retrieval"
)

// DefaultDedupPrefixLen is how many characters of normalized content
// two hits must share to count as duplicates.
const DefaultDedupPrefixLen = 100

type Config struct {
	KnowledgeWeight float64
	WebWeight       float64
	DedupPrefixLen  int
}

type Ranker struct {
	cfg Config
}

func NewRanker(cfg Config) *Ranker {
	if cfg.KnowledgeWeight <= 0 {
		cfg.KnowledgeWeight = 1.0
	}
	if cfg.WebWeight <= 0 {
		cfg.WebWeight = 1.0
	}
	if cfg.DedupPrefixLen <= 0 {
		cfg.DedupPrefixLen = DefaultDedupPrefixLen
	}
	return &Ranker{cfg: cfg}
}

// Fuse rescores both lists by source weight, sorts descending, drops
// near-duplicates keeping the first seen, and caps at maxResults.
// Empty inputs yield an empty list, never an error.
func (r *Ranker) Fuse(knowledgeHits []retrieval.Hit, webHits []retrieval.Hit, maxResults int) []retrieval.Hit {
	if maxResults <= 0 {
		maxResults = 10
	}

	merged := make([]retrieval.Hit, 0, len(knowledgeHits)+len(webHits))
	for _, hit := range knowledgeHits {
		hit.Score = hit.Score * r.cfg.KnowledgeWeight
		merged = append(merged, hit)
	}
	for _, hit := range webHits {
		hit.Score = hit.Score * r.cfg.WebWeight
		merged = append(merged, hit)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	seen := make(map[string]bool, len(merged))
	fused := make([]retrieval.Hit, 0, maxResults)
	for _, hit := range merged {
		key := normalizedPrefix(hit.Content, r.cfg.DedupPrefixLen)
		if seen[key] {
			continue
		}
		seen[key] = true
		fused = append(fused, hit)
		if len(fused) == maxResults {
			break
		}
	}
	return fused
}

// normalizedPrefix lowercases, collapses whitespace, and truncates to
// n runes. Hits sharing this prefix are treated as the same content.
func normalizedPrefix(content string, n int) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(content), " "))
	runes := []rune(normalized)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
