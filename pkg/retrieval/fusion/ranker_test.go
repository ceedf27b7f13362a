package fusion

import (
	"strings"
	"testing"

	"sparklink-ai-be/pkg/retrieval"
)

func hit(content string, score float64, source string) retrieval.Hit {
	return retrieval.Hit{Content: content, Score: score, Source: source}
}

func TestFuseEmptyInputs(t *testing.T) {
	r := NewRanker(Config{})

	fused := r.Fuse(nil, nil, 10)
	if len(fused) != 0 {
		t.Errorf("expected empty result, got %d hits", len(fused))
	}
}

func TestFuseOrdersByScoreDescending(t *testing.T) {
	r := NewRanker(Config{})

	kb := []retrieval.Hit{
		hit("low relevance chunk", 0.3, retrieval.SourceKnowledgeBase),
		hit("high relevance chunk", 0.95, retrieval.SourceKnowledgeBase),
	}
	web := []retrieval.Hit{
		hit("middling web result", 0.6, retrieval.SourceWebSearch),
	}

	fused := r.Fuse(kb, web, 10)

	if len(fused) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(fused))
	}
	for i := 1; i < len(fused); i++ {
		if fused[i].Score > fused[i-1].Score {
			t.Errorf("hits out of order at %d: %f > %f", i, fused[i].Score, fused[i-1].Score)
		}
	}
	if fused[0].Content != "high relevance chunk" {
		t.Errorf("highest scored hit should rank first, got %q", fused[0].Content)
	}
}

func TestFuseCapsResults(t *testing.T) {
	r := NewRanker(Config{})

	var kb []retrieval.Hit
	for i := 0; i < 20; i++ {
		kb = append(kb, hit(strings.Repeat("x", i+1)+" unique content", float64(i)/20, retrieval.SourceKnowledgeBase))
	}

	fused := r.Fuse(kb, nil, 5)
	if len(fused) != 5 {
		t.Errorf("expected cap at 5, got %d", len(fused))
	}
}

func TestFuseDeduplicatesByNormalizedPrefix(t *testing.T) {
	r := NewRanker(Config{})

	kb := []retrieval.Hit{
		hit("The Quick   Brown Fox jumps over the lazy dog", 0.9, retrieval.SourceKnowledgeBase),
	}
	web := []retrieval.Hit{
		// Same content modulo case and whitespace
		hit("the quick brown fox JUMPS over the lazy dog", 0.5, retrieval.SourceWebSearch),
	}

	fused := r.Fuse(kb, web, 10)

	if len(fused) != 1 {
		t.Fatalf("expected duplicates collapsed to 1, got %d", len(fused))
	}
	if fused[0].Score != 0.9 {
		t.Errorf("highest scoring duplicate should win, got score %f", fused[0].Score)
	}
}

func TestFuseDedupOnlyComparesPrefix(t *testing.T) {
	r := NewRanker(Config{DedupPrefixLen: 10})

	kb := []retrieval.Hit{
		hit("identical start, then this diverges completely", 0.9, retrieval.SourceKnowledgeBase),
		hit("identical start, but a different continuation", 0.8, retrieval.SourceKnowledgeBase),
	}

	fused := r.Fuse(kb, nil, 10)
	if len(fused) != 1 {
		t.Errorf("hits sharing the normalized prefix should dedup, got %d", len(fused))
	}
}

func TestFuseSourceWeighting(t *testing.T) {
	r := NewRanker(Config{KnowledgeWeight: 1.0, WebWeight: 0.5})

	kb := []retrieval.Hit{
		hit("knowledge chunk about topic", 0.7, retrieval.SourceKnowledgeBase),
	}
	web := []retrieval.Hit{
		hit("web result about same topic area", 0.9, retrieval.SourceWebSearch),
	}

	fused := r.Fuse(kb, web, 10)

	if len(fused) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(fused))
	}
	// kb: 0.7*1.0 = 0.70 beats web: 0.9*0.5 = 0.45
	if fused[0].Source != retrieval.SourceKnowledgeBase {
		t.Errorf("weighted kb hit should outrank web hit, got %s first", fused[0].Source)
	}
	if fused[1].Score != 0.45 {
		t.Errorf("web score should be rescored to 0.45, got %f", fused[1].Score)
	}
}

func TestNormalizedPrefixUnicode(t *testing.T) {
	a := normalizedPrefix("统一  的中文 内容", 5)
	b := normalizedPrefix("统一 的中文  内容，后面不同", 5)
	if a != b {
		t.Errorf("unicode prefixes should match: %q vs %q", a, b)
	}
}
