// Package ingest runs the document ingestion job: resolve source text,
// chunk, embed, and swap the document's vectors in one replace step.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/pkg/chunker"
	"sparklink-ai-be/pkg/embedding"
	"sparklink-ai-be/pkg/textextract"

	"github.com/google/uuid"
)

// VectorWriter swaps a document's chunk set. Replace must be atomic
// from the searcher's point of view.
type VectorWriter interface {
	Replace(ctx context.Context, docId uuid.UUID, vectors []*entity.ChunkVector) error
}

// TaskTracker mirrors pipeline phases onto the KbDocument record.
// Implementations absorb their own persistence errors; tracking must
// never fail a job.
type TaskTracker interface {
	MarkProcessing(ctx context.Context, docId uuid.UUID)
	// SetTotal is called once after chunking; progress lands at 10%
	SetTotal(ctx context.Context, docId uuid.UUID, totalChunks int)
	// Progress advances linearly from 10% to 90% as chunks complete
	Progress(ctx context.Context, docId uuid.UUID, completed int, total int)
	MarkCompleted(ctx context.Context, docId uuid.UUID, result *entity.IngestionResult)
	MarkFailed(ctx context.Context, docId uuid.UUID, message string)
}

type Logger interface {
	Info(module string, message string, details map[string]interface{})
	Warn(module string, message string, details map[string]interface{})
}

type Config struct {
	ChunkSize       int
	ChunkOverlap    int
	MinChunkLen     int
	EmbedBatchSize  int
	DownloadDir     string
	DownloadTimeout time.Duration
}

// Job is one document to ingest. Exactly one of Content (inline) or
// SourcePath (local file or remote URL) supplies the text.
type Job struct {
	DocId      uuid.UUID
	UserId     uuid.UUID
	GroupId    *int64
	Name       string
	DocType    string
	MimeType   string
	Content    string
	SourcePath string
}

type Pipeline struct {
	extractor textextract.TextExtractor
	embedder  embedding.EmbeddingProvider
	writer    VectorWriter
	tracker   TaskTracker
	logger    Logger
	client    *http.Client
	cfg       Config
}

func NewPipeline(extractor textextract.TextExtractor, embedder embedding.EmbeddingProvider, writer VectorWriter, tracker TaskTracker, logger Logger, cfg Config) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 512
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 50
	}
	if cfg.MinChunkLen <= 0 {
		cfg.MinChunkLen = chunker.DefaultMinChunkLen
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = os.TempDir()
	}
	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		writer:    writer,
		tracker:   tracker,
		logger:    logger,
		client:    &http.Client{Timeout: cfg.DownloadTimeout},
		cfg:       cfg,
	}
}

// Run executes the job to its terminal state. The returned error
// reports the fatal cause; the task record is already marked failed
// when it is non-nil. Downloaded temp files are removed either way.
func (p *Pipeline) Run(ctx context.Context, job Job) (*entity.IngestionResult, error) {
	started := time.Now()
	p.tracker.MarkProcessing(ctx, job.DocId)

	text, cleanup, err := p.resolveText(ctx, job)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, p.fail(ctx, job.DocId, err)
	}

	chunks := chunker.SplitWithMin(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap, p.cfg.MinChunkLen)
	if len(chunks) == 0 {
		return nil, p.fail(ctx, job.DocId, fmt.Errorf("document produced no chunks"))
	}
	p.tracker.SetTotal(ctx, job.DocId, len(chunks))

	vectors, failed := p.embedChunks(ctx, job, chunks)
	if len(vectors) == 0 {
		return nil, p.fail(ctx, job.DocId, fmt.Errorf("all %d chunks failed to embed", len(chunks)))
	}

	if err := p.writer.Replace(ctx, job.DocId, vectors); err != nil {
		return nil, p.fail(ctx, job.DocId, fmt.Errorf("replace vectors: %w", err))
	}

	result := &entity.IngestionResult{
		TotalChunks:     len(chunks),
		ProcessedChunks: len(vectors),
		FailedChunks:    failed,
		SuccessRate:     float64(len(vectors)) / float64(len(chunks)),
		ElapsedSeconds:  time.Since(started).Seconds(),
	}
	p.tracker.MarkCompleted(ctx, job.DocId, result)

	if p.logger != nil {
		p.logger.Info("ingest", "document ingested", map[string]interface{}{
			"doc_id":    job.DocId.String(),
			"chunks":    len(chunks),
			"failed":    failed,
			"elapsed_s": result.ElapsedSeconds,
		})
	}
	return result, nil
}

func (p *Pipeline) fail(ctx context.Context, docId uuid.UUID, err error) error {
	p.tracker.MarkFailed(ctx, docId, err.Error())
	return err
}

// resolveText picks the text source: inline content, a remote URL
// (downloaded to a temp file), or a local path handed to extraction.
// The cleanup func removes the temp file when one was downloaded.
func (p *Pipeline) resolveText(ctx context.Context, job Job) (string, func(), error) {
	if strings.TrimSpace(job.Content) != "" {
		return job.Content, nil, nil
	}
	if job.SourcePath == "" {
		return "", nil, fmt.Errorf("job has neither content nor source path")
	}

	path := job.SourcePath
	var cleanup func()
	if IsRemoteURL(job.SourcePath) {
		downloaded, err := p.download(ctx, job.SourcePath)
		if err != nil {
			return "", nil, fmt.Errorf("download source: %w", err)
		}
		path = downloaded
		cleanup = func() {
			if err := os.Remove(downloaded); err != nil && p.logger != nil {
				p.logger.Warn("ingest", "temp file cleanup failed", map[string]interface{}{
					"path":  downloaded,
					"error": err.Error(),
				})
			}
		}
	}

	text, err := p.extractor.Extract(ctx, path, job.MimeType)
	if err != nil {
		return "", cleanup, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", cleanup, fmt.Errorf("document contains no extractable text")
	}
	return text, cleanup, nil
}

// IsRemoteURL reports whether the source path needs downloading.
func IsRemoteURL(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (p *Pipeline) download(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	ext := filepath.Ext(rawURL)
	if ext == "" || len(ext) > 8 {
		ext = ".txt"
	}
	f, err := os.CreateTemp(p.cfg.DownloadDir, "ingest-*"+ext)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// embedChunks embeds in batches, falling back to per-chunk calls when
// a batch fails so one bad chunk cannot sink its neighbors.
func (p *Pipeline) embedChunks(ctx context.Context, job Job, chunks []string) ([]*entity.ChunkVector, int) {
	var vectors []*entity.ChunkVector
	failed := 0
	completed := 0
	total := len(chunks)

	for start := 0; start < total; start += p.cfg.EmbedBatchSize {
		end := start + p.cfg.EmbedBatchSize
		if end > total {
			end = total
		}
		batch := chunks[start:end]

		embeddings, err := p.embedder.GenerateBatch(ctx, batch)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("ingest", "batch embedding failed, retrying per chunk", map[string]interface{}{
					"doc_id": job.DocId.String(),
					"batch":  start / p.cfg.EmbedBatchSize,
					"error":  err.Error(),
				})
			}
			embeddings = p.embedIndividually(ctx, batch)
		}

		for i, vec := range embeddings {
			completed++
			if vec == nil {
				failed++
				continue
			}
			vectors = append(vectors, &entity.ChunkVector{
				Id:         uuid.New(),
				DocId:      job.DocId,
				DocName:    job.Name,
				DocType:    job.DocType,
				SourcePath: job.SourcePath,
				UserId:     job.UserId,
				GroupId:    job.GroupId,
				ChunkIndex: start + i,
				Content:    batch[i],
				Embedding:  vec,
			})
		}
		p.tracker.Progress(ctx, job.DocId, completed, total)
	}
	return vectors, failed
}

// embedIndividually returns a vector per chunk with nil marking the
// ones that failed.
func (p *Pipeline) embedIndividually(ctx context.Context, batch []string) [][]float32 {
	out := make([][]float32, len(batch))
	for i, chunk := range batch {
		vec, err := p.embedder.Generate(ctx, chunk)
		if err != nil {
			continue
		}
		out[i] = vec
	}
	return out
}
