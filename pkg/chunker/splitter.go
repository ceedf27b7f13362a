// Package chunker splits extracted document text into overlapping
// chunks sized for embedding.
package chunker

import (
	"strings"
)

// DefaultMinChunkLen is the smallest fragment worth embedding;
// shorter tails are dropped unless they are the only chunk.
const DefaultMinChunkLen = 20

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '；': true,
}

// Split cuts text into chunks of approximately chunkSize runes with the
// given overlap. Cuts prefer sentence endings, then newlines, then
// spaces, so words and sentences survive the window boundary.
func Split(text string, chunkSize int, overlap int) []string {
	return SplitWithMin(text, chunkSize, overlap, DefaultMinChunkLen)
}

func SplitWithMin(text string, chunkSize int, overlap int, minLen int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(trimmed)
	total := len(runes)
	if total <= chunkSize {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < total {
		end := start + chunkSize
		if end >= total {
			end = total
		} else {
			end = boundaryCut(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(piece)) >= minLen {
			chunks = append(chunks, piece)
		}

		if end == total {
			break
		}

		// Overlap pulls the window back, but never past forward progress
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	if len(chunks) == 0 {
		return []string{trimmed}
	}
	return chunks
}

// boundaryCut searches backward from end for a natural cut point:
// sentence-ending punctuation first, then a newline, then a space.
// Falls back to the raw window end when nothing usable is found.
func boundaryCut(runes []rune, start int, end int) int {
	// Only look back through the tail of the window; cutting earlier
	// than that loses too much of the chunk.
	limit := start + (end-start)/2
	if limit < start+1 {
		limit = start + 1
	}

	for i := end; i > limit; i-- {
		if sentenceEnders[runes[i-1]] {
			return i
		}
	}
	for i := end; i > limit; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := end; i > limit; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return end
}
