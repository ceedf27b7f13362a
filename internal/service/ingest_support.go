package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sparklink-ai-be/internal/constant"
	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/pkg/logger"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// vectorReplaceWriter swaps a document's chunk set atomically: insert
// the new batch, then delete everything outside it, in one transaction.
type vectorReplaceWriter struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewVectorReplaceWriter(uowFactory unitofwork.RepositoryFactory) *vectorReplaceWriter {
	return &vectorReplaceWriter{uowFactory: uowFactory}
}

func (w *vectorReplaceWriter) Replace(ctx context.Context, docId uuid.UUID, vectors []*entity.ChunkVector) error {
	batchId := uuid.New()
	for _, v := range vectors {
		v.BatchId = batchId
	}

	uow := w.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ChunkVectorRepository().CreateBulk(ctx, vectors); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	if err := uow.ChunkVectorRepository().DeleteByDocIdExceptBatch(ctx, docId, batchId); err != nil {
		return fmt.Errorf("drop stale chunks: %w", err)
	}

	return uow.Commit()
}

// documentTaskTracker mirrors pipeline phases onto the document record
// and pushes progress to the owner over the websocket hub. Persistence
// errors are logged, never surfaced; tracking must not fail a job.
type documentTaskTracker struct {
	uowFactory unitofwork.RepositoryFactory
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewDocumentTaskTracker(uowFactory unitofwork.RepositoryFactory, hub *websocket.Hub, log logger.ILogger) *documentTaskTracker {
	return &documentTaskTracker{
		uowFactory: uowFactory,
		hub:        hub,
		logger:     log,
	}
}

func (t *documentTaskTracker) MarkProcessing(ctx context.Context, docId uuid.UUID) {
	now := time.Now()
	t.patch(ctx, docId, map[string]interface{}{
		"status":           string(entity.DocumentStatusProcessing),
		"progress":         float64(0),
		"total_chunks":     0,
		"processed_chunks": 0,
		"started_at":       &now,
	})
}

func (t *documentTaskTracker) SetTotal(ctx context.Context, docId uuid.UUID, totalChunks int) {
	t.patch(ctx, docId, map[string]interface{}{
		"progress":     float64(10),
		"total_chunks": totalChunks,
	})
	t.notify(ctx, docId, constant.NotificationIngestProgress, map[string]interface{}{
		"doc_id":       docId.String(),
		"progress":     10,
		"total_chunks": totalChunks,
	})
}

func (t *documentTaskTracker) Progress(ctx context.Context, docId uuid.UUID, completed int, total int) {
	progress := 10 + float64(completed)*80/float64(total)
	t.patch(ctx, docId, map[string]interface{}{
		"progress":         progress,
		"processed_chunks": completed,
	})
	t.notify(ctx, docId, constant.NotificationIngestProgress, map[string]interface{}{
		"doc_id":   docId.String(),
		"progress": int(progress),
	})
}

func (t *documentTaskTracker) MarkCompleted(ctx context.Context, docId uuid.UUID, result *entity.IngestionResult) {
	now := time.Now()
	fields := map[string]interface{}{
		"status":       string(entity.DocumentStatusCompleted),
		"progress":     float64(100),
		"completed_at": &now,
	}
	if result != nil {
		fields["total_chunks"] = result.TotalChunks
		fields["processed_chunks"] = result.ProcessedChunks
		if data, err := json.Marshal(result); err == nil {
			fields["result"] = datatypes.JSON(data)
		}
	}
	t.patch(ctx, docId, fields)
	t.notify(ctx, docId, constant.NotificationIngestCompleted, map[string]interface{}{
		"doc_id":   docId.String(),
		"progress": 100,
	})
}

func (t *documentTaskTracker) MarkFailed(ctx context.Context, docId uuid.UUID, message string) {
	now := time.Now()
	t.patch(ctx, docId, map[string]interface{}{
		"status":        string(entity.DocumentStatusFailed),
		"error_message": message,
		"completed_at":  &now,
	})
	t.notify(ctx, docId, constant.NotificationIngestFailed, map[string]interface{}{
		"doc_id": docId.String(),
		"error":  message,
	})
}

func (t *documentTaskTracker) patch(ctx context.Context, docId uuid.UUID, fields map[string]interface{}) {
	uow := t.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KbDocumentRepository().UpdateFields(ctx, docId, fields); err != nil {
		t.logger.Warn("IngestTracker", "Failed to update document status", map[string]interface{}{
			"doc_id": docId.String(),
			"error":  err.Error(),
		})
	}
}

func (t *documentTaskTracker) notify(ctx context.Context, docId uuid.UUID, notifType string, data map[string]interface{}) {
	if t.hub == nil {
		return
	}

	uow := t.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.KbDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil || doc == nil {
		return
	}

	t.hub.Send(doc.UserId, websocket.Notification{
		Type:      notifType,
		Title:     doc.Name,
		Message:   notifType,
		Data:      data,
		CreatedAt: time.Now(),
	})
}
