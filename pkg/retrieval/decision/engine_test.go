package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sparklink-ai-be/pkg/retrieval"
)

type fakeKnowledge struct {
	hits  []retrieval.Hit
	err   error
	calls int
}

func (f *fakeKnowledge) Search(ctx context.Context, query string, topK int, threshold float64, scope retrieval.Scope) ([]retrieval.Hit, error) {
	f.calls++
	return f.hits, f.err
}

type fakeWeb struct {
	hits      []retrieval.Hit
	err       error
	calls     int
	lastQuery string
}

func (f *fakeWeb) Search(ctx context.Context, query string, maxResults int) ([]retrieval.Hit, error) {
	f.calls++
	f.lastQuery = query
	return f.hits, f.err
}

func kbHit(content string) retrieval.Hit {
	return retrieval.Hit{Content: content, Score: 0.9, Source: retrieval.SourceKnowledgeBase}
}

func webHit(content string) retrieval.Hit {
	return retrieval.Hit{Content: content, Score: 0.8, Source: retrieval.SourceWebSearch}
}

func TestDecideAndFetchStrategyMatrix(t *testing.T) {
	tests := []struct {
		strategy Strategy
		query    string
		wantKB   bool
		wantWeb  bool
	}{
		{StrategyKnowledgeOnly, "what is our refund policy", true, false},
		{StrategyWebOnly, "what is our refund policy", false, true},
		{StrategyHybrid, "what is our refund policy", true, true},
		{StrategyNone, "what is our refund policy", false, false},
		{StrategyAuto, "what is our refund policy", true, false},
		{StrategyAuto, "latest news on solar panels", true, true},
	}

	for _, tt := range tests {
		kb := &fakeKnowledge{hits: []retrieval.Hit{kbHit("kb")}}
		web := &fakeWeb{hits: []retrieval.Hit{webHit("web")}}
		e := NewEngine(kb, web, nil, Config{})

		result := e.DecideAndFetch(context.Background(), tt.query, tt.strategy, retrieval.Scope{})

		if (kb.calls > 0) != tt.wantKB {
			t.Errorf("%s %q: kb queried=%v, want %v", tt.strategy, tt.query, kb.calls > 0, tt.wantKB)
		}
		if (web.calls > 0) != tt.wantWeb {
			t.Errorf("%s %q: web queried=%v, want %v", tt.strategy, tt.query, web.calls > 0, tt.wantWeb)
		}
		if result.Reasoning == "" {
			t.Errorf("%s: reasoning must not be empty", tt.strategy)
		}
	}
}

func TestDecideAndFetchKnowledgeFailureSoft(t *testing.T) {
	kb := &fakeKnowledge{err: errors.New("pgvector down")}
	web := &fakeWeb{hits: []retrieval.Hit{webHit("web")}}
	e := NewEngine(kb, web, nil, Config{})

	result := e.DecideAndFetch(context.Background(), "anything", StrategyHybrid, retrieval.Scope{})

	if len(result.KnowledgeHits) != 0 {
		t.Error("failed kb search should yield zero hits")
	}
	if len(result.WebHits) != 1 {
		t.Error("web search should still run after kb failure")
	}
}

func TestDecideAndFetchWebFailureSoft(t *testing.T) {
	kb := &fakeKnowledge{hits: []retrieval.Hit{kbHit("kb")}}
	web := &fakeWeb{err: errors.New("provider down")}
	e := NewEngine(kb, web, nil, Config{})

	result := e.DecideAndFetch(context.Background(), "anything", StrategyHybrid, retrieval.Scope{})

	if len(result.WebHits) != 0 {
		t.Error("failed web search should yield zero hits")
	}
	if len(result.KnowledgeHits) != 1 {
		t.Error("kb hits should survive web failure")
	}
}

func TestDecideAndFetchWebOnlyUsesKeywords(t *testing.T) {
	web := &fakeWeb{}
	e := NewEngine(nil, web, nil, Config{})

	e.DecideAndFetch(context.Background(), "please tell me about the history of Go generics", StrategyWebOnly, retrieval.Scope{})

	if strings.Contains(web.lastQuery, "please") || strings.Contains(web.lastQuery, "about") {
		t.Errorf("web query should drop stopwords, got %q", web.lastQuery)
	}
	if !strings.Contains(web.lastQuery, "Go") {
		t.Errorf("salient terms should survive, got %q", web.lastQuery)
	}
}

func TestDecideAndFetchDeterministicReasoning(t *testing.T) {
	kb := &fakeKnowledge{hits: []retrieval.Hit{kbHit("kb")}}
	e := NewEngine(kb, &fakeWeb{}, nil, Config{})

	first := e.DecideAndFetch(context.Background(), "stable query", StrategyAuto, retrieval.Scope{})
	second := e.DecideAndFetch(context.Background(), "stable query", StrategyAuto, retrieval.Scope{})

	if first.Reasoning != second.Reasoning {
		t.Errorf("reasoning not deterministic: %q vs %q", first.Reasoning, second.Reasoning)
	}
}

func TestResolveStrategy(t *testing.T) {
	tests := []struct {
		kb, web bool
		want    Strategy
	}{
		{true, true, StrategyAuto},
		{true, false, StrategyKnowledgeOnly},
		{false, true, StrategyWebOnly},
		{false, false, StrategyNone},
	}
	for _, tt := range tests {
		if got := ResolveStrategy(tt.kb, tt.web); got != tt.want {
			t.Errorf("ResolveStrategy(%v, %v) = %s, want %s", tt.kb, tt.web, got, tt.want)
		}
	}
}

func TestExtractKeywordsPure(t *testing.T) {
	query := "What is the latest price of copper?"
	first := ExtractKeywords(query)
	second := ExtractKeywords(query)

	if first != second {
		t.Errorf("keyword extraction not stable: %q vs %q", first, second)
	}
	if strings.Contains(first, "?") {
		t.Errorf("punctuation should be stripped, got %q", first)
	}
}

func TestExtractKeywordsFallback(t *testing.T) {
	// A query made entirely of stopwords keeps its original form
	if got := ExtractKeywords("what is the"); got != "what is the" {
		t.Errorf("expected fallback to original query, got %q", got)
	}
}

func TestNeedsWebSearch(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"latest golang release notes", true},
		{"what happened today in markets", true},
		{"最新的人工智能进展", true},
		{"explain binary search trees", false},
		{"summarize my uploaded report", false},
	}
	for _, tt := range tests {
		if got := NeedsWebSearch(tt.query, nil); got != tt.want {
			t.Errorf("NeedsWebSearch(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestNeedsWebSearchExtraMarkers(t *testing.T) {
	if NeedsWebSearch("check the sportsball standings", nil) {
		t.Fatal("unexpected trigger without extra markers")
	}
	if !NeedsWebSearch("check the sportsball standings", []string{"sportsball"}) {
		t.Error("extra marker should trigger web search")
	}
}
