package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sparklink-ai-be/internal/entity"

	"github.com/google/uuid"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string, mimeType string) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	dim      int
	batchErr bool
	// failTexts marks chunk contents whose single-chunk embedding fails
	failTexts map[string]bool
	failAll   bool
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if f.failAll || f.failTexts[text] {
		return nil, errors.New("embedding provider error")
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.failAll || f.batchErr {
		return nil, errors.New("batch embedding error")
	}
	for _, t := range texts {
		if f.failTexts[t] {
			return nil, errors.New("batch embedding error")
		}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

type fakeWriter struct {
	replaced map[uuid.UUID][]*entity.ChunkVector
	err      error
}

func (f *fakeWriter) Replace(ctx context.Context, docId uuid.UUID, vectors []*entity.ChunkVector) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = map[uuid.UUID][]*entity.ChunkVector{}
	}
	f.replaced[docId] = vectors
	return nil
}

type fakeTracker struct {
	processing bool
	total      int
	progress   []float64
	completed  *entity.IngestionResult
	failedMsg  string
}

func (f *fakeTracker) MarkProcessing(ctx context.Context, docId uuid.UUID) { f.processing = true }
func (f *fakeTracker) SetTotal(ctx context.Context, docId uuid.UUID, totalChunks int) {
	f.total = totalChunks
	f.progress = append(f.progress, 10)
}
func (f *fakeTracker) Progress(ctx context.Context, docId uuid.UUID, completed int, total int) {
	f.progress = append(f.progress, 10+80*float64(completed)/float64(total))
}
func (f *fakeTracker) MarkCompleted(ctx context.Context, docId uuid.UUID, result *entity.IngestionResult) {
	f.completed = result
	f.progress = append(f.progress, 100)
}
func (f *fakeTracker) MarkFailed(ctx context.Context, docId uuid.UUID, message string) {
	f.failedMsg = message
}

func longText(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&b, "Sentence number %d carries enough words to survive chunk filters. ", i)
	}
	return b.String()
}

func newTestPipeline(ex *fakeExtractor, em *fakeEmbedder, w *fakeWriter, tr *fakeTracker) *Pipeline {
	return NewPipeline(ex, em, w, tr, nil, Config{
		ChunkSize:      200,
		ChunkOverlap:   20,
		EmbedBatchSize: 3,
	})
}

func TestRunInlineContentHappyPath(t *testing.T) {
	embedder := &fakeEmbedder{dim: 4}
	writer := &fakeWriter{}
	tracker := &fakeTracker{}
	p := newTestPipeline(&fakeExtractor{}, embedder, writer, tracker)

	docId := uuid.New()
	result, err := p.Run(context.Background(), Job{
		DocId:   docId,
		UserId:  uuid.New(),
		Name:    "notes.txt",
		DocType: "post",
		Content: longText(40),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !tracker.processing {
		t.Error("job should mark processing first")
	}
	if result.FailedChunks != 0 {
		t.Errorf("no chunk should fail, got %d", result.FailedChunks)
	}
	if result.TotalChunks != tracker.total {
		t.Errorf("tracker total %d != result total %d", tracker.total, result.TotalChunks)
	}
	if result.SuccessRate != 1.0 {
		t.Errorf("success rate = %f, want 1.0", result.SuccessRate)
	}
	if tracker.completed == nil {
		t.Fatal("job should reach completed")
	}

	vectors := writer.replaced[docId]
	if len(vectors) != result.ProcessedChunks {
		t.Fatalf("vector count %d != processed %d", len(vectors), result.ProcessedChunks)
	}
	for i, v := range vectors {
		if v.DocId != docId {
			t.Errorf("vector %d has wrong doc id", i)
		}
		if v.ChunkIndex != i {
			t.Errorf("vector %d has chunk index %d", i, v.ChunkIndex)
		}
		if v.Id == uuid.Nil {
			t.Errorf("vector %d missing fresh id", i)
		}
	}
}

func TestRunProgressMonotonic(t *testing.T) {
	tracker := &fakeTracker{}
	p := newTestPipeline(&fakeExtractor{}, &fakeEmbedder{dim: 4}, &fakeWriter{}, tracker)

	_, err := p.Run(context.Background(), Job{
		DocId:   uuid.New(),
		Content: longText(60),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := 1; i < len(tracker.progress); i++ {
		if tracker.progress[i] < tracker.progress[i-1] {
			t.Errorf("progress regressed at %d: %v", i, tracker.progress)
		}
	}
	if tracker.progress[len(tracker.progress)-1] != 100 {
		t.Errorf("final progress = %f, want 100", tracker.progress[len(tracker.progress)-1])
	}
}

func TestRunPartialEmbeddingFailureSkipsChunk(t *testing.T) {
	tracker := &fakeTracker{}
	writer := &fakeWriter{}
	embedder := &fakeEmbedder{dim: 4}
	p := newTestPipeline(&fakeExtractor{}, embedder, writer, tracker)

	text := longText(40)
	// Find a real chunk to poison: re-run the splitter config used by
	// the pipeline.
	jobId := uuid.New()
	result, err := p.Run(context.Background(), Job{DocId: jobId, Content: text})
	if err != nil {
		t.Fatalf("setup run failed: %v", err)
	}
	poisoned := writer.replaced[jobId][0].Content

	embedder.failTexts = map[string]bool{poisoned: true}
	tracker2 := &fakeTracker{}
	writer2 := &fakeWriter{}
	p2 := newTestPipeline(&fakeExtractor{}, embedder, writer2, tracker2)

	docId := uuid.New()
	result2, err := p2.Run(context.Background(), Job{DocId: docId, Content: text})
	if err != nil {
		t.Fatalf("partial failure must not abort the job: %v", err)
	}

	if result2.FailedChunks != 1 {
		t.Errorf("failed chunks = %d, want 1", result2.FailedChunks)
	}
	if result2.ProcessedChunks != result.TotalChunks-1 {
		t.Errorf("processed = %d, want %d", result2.ProcessedChunks, result.TotalChunks-1)
	}
	if result2.SuccessRate >= 1.0 {
		t.Errorf("success rate should reflect the failure, got %f", result2.SuccessRate)
	}
	if tracker2.completed == nil {
		t.Error("job with partial failures still completes")
	}
}

func TestRunAllChunksFailIsFatal(t *testing.T) {
	tracker := &fakeTracker{}
	p := newTestPipeline(&fakeExtractor{}, &fakeEmbedder{failAll: true}, &fakeWriter{}, tracker)

	_, err := p.Run(context.Background(), Job{DocId: uuid.New(), Content: longText(40)})
	if err == nil {
		t.Fatal("expected fatal error when every chunk fails")
	}
	if tracker.failedMsg == "" {
		t.Error("task record should carry the failure message")
	}
	if tracker.completed != nil {
		t.Error("failed job must not be marked completed")
	}
}

func TestRunEmptyTextIsFatal(t *testing.T) {
	tracker := &fakeTracker{}
	p := newTestPipeline(&fakeExtractor{text: "   "}, &fakeEmbedder{dim: 4}, &fakeWriter{}, tracker)

	_, err := p.Run(context.Background(), Job{DocId: uuid.New(), SourcePath: "/tmp/empty.txt"})
	if err == nil {
		t.Fatal("empty extracted text must be fatal")
	}
	if tracker.failedMsg == "" {
		t.Error("failure message missing")
	}
}

func TestRunExtractionErrorIsFatal(t *testing.T) {
	tracker := &fakeTracker{}
	p := newTestPipeline(&fakeExtractor{err: errors.New("corrupt file")}, &fakeEmbedder{dim: 4}, &fakeWriter{}, tracker)

	_, err := p.Run(context.Background(), Job{DocId: uuid.New(), SourcePath: "/tmp/broken.bin"})
	if err == nil {
		t.Fatal("extraction failure must be fatal")
	}
}

func TestRunVectorReplaceErrorIsFatal(t *testing.T) {
	tracker := &fakeTracker{}
	p := newTestPipeline(&fakeExtractor{}, &fakeEmbedder{dim: 4}, &fakeWriter{err: errors.New("db down")}, tracker)

	_, err := p.Run(context.Background(), Job{DocId: uuid.New(), Content: longText(40)})
	if err == nil {
		t.Fatal("vector replace failure must be fatal")
	}
	if !strings.Contains(tracker.failedMsg, "replace vectors") {
		t.Errorf("failure message should name the step, got %q", tracker.failedMsg)
	}
}

func TestIsRemoteURL(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"https://example.com/doc.pdf", true},
		{"http://example.com/doc.txt", true},
		{"/var/uploads/doc.txt", false},
		{"doc.txt", false},
		{"ftp://example.com/doc.txt", false},
	}
	for _, tt := range tests {
		if got := IsRemoteURL(tt.source); got != tt.want {
			t.Errorf("IsRemoteURL(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}
