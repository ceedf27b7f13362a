package decision

import (
	"strings"
	"unicode"
)

// stopwords dropped during keyword extraction. Small on purpose; the
// goal is a tighter web query, not linguistic analysis.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "do": true,
	"does": true, "did": true, "what": true, "which": true, "who": true,
	"how": true, "why": true, "when": true, "where": true, "can": true,
	"could": true, "should": true, "would": true, "will": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "about": true, "and": true, "or": true,
	"please": true, "tell": true, "me": true, "my": true, "i": true,
	"you": true, "it": true, "that": true, "this": true, "there": true,
}

const maxKeywords = 8

// ExtractKeywords reduces a query to its salient terms for web search.
// Pure function: same input always yields the same output. Falls back
// to the original query when everything gets filtered away.
func ExtractKeywords(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, query)

	var kept []string
	for _, word := range strings.Fields(cleaned) {
		if stopwords[strings.ToLower(word)] {
			continue
		}
		kept = append(kept, word)
		if len(kept) == maxKeywords {
			break
		}
	}

	if len(kept) == 0 {
		return strings.TrimSpace(query)
	}
	return strings.Join(kept, " ")
}

// recencyMarkers trigger web search in auto mode: queries about the
// present or near past rarely have answers in a static knowledge base.
var recencyMarkers = []string{
	"latest", "newest", "recent", "recently", "current", "currently",
	"today", "tonight", "yesterday", "this week", "this month",
	"this year", "right now", "breaking", "news", "update", "updates",
	"price of", "stock", "weather", "score",
	"最新", "最近", "今天", "现在", "近期", "实时", "新闻", "天气", "股价",
}

// NeedsWebSearch is the auto-mode heuristic: a pure keyword/recency
// classifier over the raw query. Extra markers widen the trigger set.
func NeedsWebSearch(query string, extraMarkers []string) bool {
	lowered := strings.ToLower(query)
	for _, marker := range recencyMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	for _, marker := range extraMarkers {
		if marker == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
