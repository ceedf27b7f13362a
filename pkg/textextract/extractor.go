// Package textextract turns stored documents into plain text for
// chunking and embedding.
package textextract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextExtractor reads a document from disk and returns its text
// content. mimeType is advisory; implementations may sniff.
type TextExtractor interface {
	Extract(ctx context.Context, path string, mimeType string) (string, error)
}

// PlainTextExtractor handles text-native formats (txt, md, csv, json,
// html-as-text). Binary formats are rejected rather than garbled.
type PlainTextExtractor struct {
	MaxBytes int64
}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{
		MaxBytes: 20 * 1024 * 1024,
	}
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true,
	".csv": true, ".json": true, ".log": true,
	".html": true, ".htm": true, ".xml": true,
}

func (e *PlainTextExtractor) Extract(ctx context.Context, path string, mimeType string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat document: %w", err)
	}
	if e.MaxBytes > 0 && info.Size() > e.MaxBytes {
		return "", fmt.Errorf("document too large: %d bytes", info.Size())
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !textExtensions[ext] && !strings.HasPrefix(mimeType, "text/") && mimeType != "application/json" {
		return "", fmt.Errorf("unsupported document format: %s", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is not valid utf-8 text")
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("document contains no text")
	}
	return text, nil
}
