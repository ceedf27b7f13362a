package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"sparklink-ai-be/internal/dto"
	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/contract"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/pkg/embedding"
	"sparklink-ai-be/pkg/events"

	pktNats "sparklink-ai-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeService interface {
	CreateDocument(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	CreateDocumentFromURL(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.CreateDocumentFromURLRequest) (*dto.CreateDocumentResponse, error)
	CreateDocumentFromUpload(ctx context.Context, userId uuid.UUID, groupId *int64, name string, savedPath string) (*dto.CreateDocumentResponse, error)
	GetDocument(ctx context.Context, userId uuid.UUID, docId uuid.UUID) (*dto.DocumentStatusResponse, error)
	ListDocuments(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentStatusResponse, error)
	ReprocessDocument(ctx context.Context, userId uuid.UUID, docId uuid.UUID) (*dto.CreateDocumentResponse, error)
	DeleteDocument(ctx context.Context, userId uuid.UUID, docId uuid.UUID) (*dto.DeleteDocumentResponse, error)
	Search(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.KnowledgeSearchRequest) ([]*dto.KnowledgeSearchResult, error)
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	publisherService  IPublisherService
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	defaultTopK       int
	defaultThreshold  float64
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	defaultTopK int,
	defaultThreshold float64,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:        uowFactory,
		publisherService:  publisherService,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		defaultTopK:       defaultTopK,
		defaultThreshold:  defaultThreshold,
	}
}

func (s *knowledgeService) CreateDocument(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	doc := &entity.KbDocument{
		Id:            uuid.New(),
		UserId:        userId,
		GroupId:       groupId,
		Name:          req.Name,
		DocType:       docTypeFromName(req.Name),
		Source:        entity.DocumentSourceInline,
		InlineContent: req.Content,
		Status:        entity.DocumentStatusPending,
		CreatedAt:     time.Now(),
	}
	return s.enqueue(ctx, doc)
}

func (s *knowledgeService) CreateDocumentFromURL(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.CreateDocumentFromURLRequest) (*dto.CreateDocumentResponse, error) {
	doc := &entity.KbDocument{
		Id:         uuid.New(),
		UserId:     userId,
		GroupId:    groupId,
		Name:       req.Name,
		DocType:    docTypeFromName(req.URL),
		Source:     entity.DocumentSourceURL,
		SourcePath: req.URL,
		Status:     entity.DocumentStatusPending,
		CreatedAt:  time.Now(),
	}
	return s.enqueue(ctx, doc)
}

func (s *knowledgeService) CreateDocumentFromUpload(ctx context.Context, userId uuid.UUID, groupId *int64, name string, savedPath string) (*dto.CreateDocumentResponse, error) {
	doc := &entity.KbDocument{
		Id:         uuid.New(),
		UserId:     userId,
		GroupId:    groupId,
		Name:       name,
		DocType:    docTypeFromName(savedPath),
		Source:     entity.DocumentSourceUpload,
		SourcePath: savedPath,
		Status:     entity.DocumentStatusPending,
		CreatedAt:  time.Now(),
	}
	return s.enqueue(ctx, doc)
}

// enqueue persists the pending record, then hands the document to the
// ingestion worker. Inline content travels on the record itself until
// the worker picks it up.
func (s *knowledgeService) enqueue(ctx context.Context, doc *entity.KbDocument) (*dto.CreateDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.KbDocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.publisherService.PublishIngestDocument(ctx, doc.Id); err != nil {
		return nil, err
	}

	return &dto.CreateDocumentResponse{Id: doc.Id, Status: string(doc.Status)}, nil
}

func (s *knowledgeService) GetDocument(ctx context.Context, userId uuid.UUID, docId uuid.UUID) (*dto.DocumentStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.KbDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.UserId != userId {
		return nil, fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	return toDocumentStatus(doc), nil
}

func (s *knowledgeService) ListDocuments(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.KbDocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.DocumentStatusResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentStatus(doc))
	}
	return out, nil
}

// ReprocessDocument resets a document to pending and hands it back to
// the ingestion worker. Existing chunk vectors stay queryable until the
// new run replaces them.
func (s *knowledgeService) ReprocessDocument(ctx context.Context, userId uuid.UUID, docId uuid.UUID) (*dto.CreateDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.KbDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.UserId != userId {
		return nil, fiber.NewError(fiber.StatusNotFound, "Document not found")
	}
	if doc.Status == entity.DocumentStatusProcessing {
		return nil, fiber.NewError(fiber.StatusConflict, "Document is already being processed")
	}

	err = uow.KbDocumentRepository().UpdateFields(ctx, docId, map[string]interface{}{
		"status":           string(entity.DocumentStatusPending),
		"progress":         float64(0),
		"total_chunks":     0,
		"processed_chunks": 0,
		"error_message":    "",
		"started_at":       nil,
		"completed_at":     nil,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.PublishIngestDocument(ctx, docId); err != nil {
		return nil, err
	}

	return &dto.CreateDocumentResponse{Id: docId, Status: string(entity.DocumentStatusPending)}, nil
}

// DeleteDocument removes the catalog record and every chunk vector of
// the document in one transaction.
func (s *knowledgeService) DeleteDocument(ctx context.Context, userId uuid.UUID, docId uuid.UUID) (*dto.DeleteDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.KbDocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.UserId != userId {
		return nil, fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChunkVectorRepository().DeleteByDocId(ctx, docId); err != nil {
		return nil, err
	}
	if err := uow.KbDocumentRepository().Delete(ctx, docId); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.New(events.TypeDocumentDeleted, map[string]interface{}{
			"doc_id":  docId.String(),
			"user_id": userId.String(),
		})
		_ = s.eventPublisher.Publish(ctx, evt)
	}

	return &dto.DeleteDocumentResponse{Id: docId}, nil
}

func (s *knowledgeService) Search(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.KnowledgeSearchRequest) ([]*dto.KnowledgeSearchResult, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}

	vec, err := s.embeddingProvider.Generate(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scope := contract.VectorSearchScope{UserId: userId, GroupId: groupId}
	chunks, err := uow.ChunkVectorRepository().SearchSimilarWithScore(ctx, vec, topK, threshold, scope)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.KnowledgeSearchResult, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, &dto.KnowledgeSearchResult{
			DocId:      c.DocId,
			Content:    c.Content,
			Similarity: c.Similarity,
			ChunkIndex: c.ChunkIndex,
		})
	}
	return out, nil
}

func toDocumentStatus(doc *entity.KbDocument) *dto.DocumentStatusResponse {
	res := &dto.DocumentStatusResponse{
		Id:              doc.Id,
		Name:            doc.Name,
		DocType:         doc.DocType,
		Source:          string(doc.Source),
		Status:          string(doc.Status),
		Progress:        int(doc.Progress),
		TotalChunks:     doc.TotalChunks,
		ProcessedChunks: doc.ProcessedChunks,
		Error:           doc.ErrorMessage,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	if doc.Result != nil {
		res.Result = &dto.IngestionResultDTO{
			TotalChunks:     doc.Result.TotalChunks,
			ProcessedChunks: doc.Result.ProcessedChunks,
			FailedChunks:    doc.Result.FailedChunks,
			SuccessRate:     doc.Result.SuccessRate,
			ElapsedSeconds:  doc.Result.ElapsedSeconds,
		}
	}
	return res
}

func docTypeFromName(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return "text"
	}
	return ext
}

