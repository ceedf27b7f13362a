package chunker

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "A short note that fits in one chunk."
	chunks := Split(text, 500, 50)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("short text should pass through untouched, got %q", chunks[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	if chunks := Split("   \n\t  ", 500, 50); chunks != nil {
		t.Errorf("expected nil for whitespace-only input, got %v", chunks)
	}
}

func TestSplitChunkCountAroundExpected(t *testing.T) {
	// 1500 chars of prose at size 500 / overlap 50 should land on
	// roughly 4 chunks (effective stride ~450).
	sentence := "The quick brown fox jumps over the lazy dog near the river. "
	var b strings.Builder
	for b.Len() < 1500 {
		b.WriteString(sentence)
	}
	text := b.String()[:1500]

	chunks := Split(text, 500, 50)
	if len(chunks) < 3 || len(chunks) > 5 {
		t.Errorf("expected 4 +/- 1 chunks, got %d", len(chunks))
	}
}

func TestSplitChunksWithinSizeBound(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 40)
	chunks := Split(text, 200, 30)

	for i, c := range chunks {
		if n := len([]rune(c)); n > 200 {
			t.Errorf("chunk %d exceeds size bound: %d runes", i, n)
		}
		if strings.TrimSpace(c) != c {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("First sentence here. Second sentence follows! Third one asks? ", 20)
	chunks := Split(text, 150, 20)

	// All but the final chunk should end at sentence punctuation.
	for i, c := range chunks[:len(chunks)-1] {
		last := []rune(c)[len([]rune(c))-1]
		if !sentenceEnders[last] {
			t.Errorf("chunk %d ends mid-sentence with %q", i, last)
		}
	}
}

func TestSplitForwardProgressWithLargeOverlap(t *testing.T) {
	// Overlap >= chunk size must still terminate and cover the text.
	text := strings.Repeat("abcdefghij ", 100)
	chunks := Split(text, 50, 60)

	if len(chunks) == 0 {
		t.Fatal("expected chunks despite oversized overlap")
	}
	if len(chunks) > len(text) {
		t.Errorf("suspiciously many chunks: %d", len(chunks))
	}
}

func TestSplitDropsTinyTailFragments(t *testing.T) {
	text := strings.Repeat("A full sized sentence that makes a proper chunk here. ", 10) + "tail"
	chunks := Split(text, 200, 0)

	for i, c := range chunks {
		if len([]rune(c)) < DefaultMinChunkLen {
			t.Errorf("chunk %d below minimum length: %q", i, c)
		}
	}
}

func TestSplitUnicodeBoundaries(t *testing.T) {
	text := strings.Repeat("这是一段用于测试的中文文本。它包含多个句子！还有问句吗？", 30)
	chunks := Split(text, 100, 10)

	joined := strings.Join(chunks, "")
	if !strings.Contains(joined, "中文文本") {
		t.Error("unicode content lost during split")
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Errorf("chunk %d exceeds rune bound", i)
		}
	}
}
