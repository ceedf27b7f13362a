package service

import (
	"context"
	"errors"
	"testing"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/contract"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type fakeDocRepo struct {
	docs    map[uuid.UUID]*entity.KbDocument
	patches []map[string]interface{}
}

func (f *fakeDocRepo) Create(ctx context.Context, doc *entity.KbDocument) error {
	f.docs[doc.Id] = doc
	return nil
}

func (f *fakeDocRepo) Update(ctx context.Context, doc *entity.KbDocument) error {
	f.docs[doc.Id] = doc
	return nil
}

func (f *fakeDocRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if _, ok := f.docs[id]; !ok {
		return errors.New("document not found")
	}
	f.patches = append(f.patches, fields)
	return nil
}

func (f *fakeDocRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KbDocument, error) {
	for _, sp := range specs {
		if byId, ok := sp.(specification.ByID); ok {
			return f.docs[byId.ID], nil
		}
	}
	return nil, nil
}

func (f *fakeDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbDocument, error) {
	return nil, nil
}

func (f *fakeDocRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.docs)), nil
}

type fakeDocUow struct {
	docs *fakeDocRepo
}

func (f *fakeDocUow) Begin(ctx context.Context) error { return nil }
func (f *fakeDocUow) Commit() error                   { return nil }
func (f *fakeDocUow) Rollback() error                 { return nil }

func (f *fakeDocUow) UserRepository() contract.UserRepository               { return nil }
func (f *fakeDocUow) ChatSessionRepository() contract.ChatSessionRepository { return nil }
func (f *fakeDocUow) ChatMessageRepository() contract.ChatMessageRepository { return nil }
func (f *fakeDocUow) KbDocumentRepository() contract.KbDocumentRepository   { return f.docs }
func (f *fakeDocUow) ChunkVectorRepository() contract.ChunkVectorRepository { return nil }
func (f *fakeDocUow) SearchLogRepository() contract.SearchLogRepository     { return nil }

type fakeDocFactory struct {
	uow *fakeDocUow
}

func (f *fakeDocFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeIngestPublisher struct {
	published []uuid.UUID
}

func (f *fakeIngestPublisher) PublishIngestDocument(ctx context.Context, docId uuid.UUID) error {
	f.published = append(f.published, docId)
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func newKnowledgeFixture(docs ...*entity.KbDocument) (IKnowledgeService, *fakeDocRepo, *fakeIngestPublisher) {
	repo := &fakeDocRepo{docs: map[uuid.UUID]*entity.KbDocument{}}
	for _, d := range docs {
		repo.docs[d.Id] = d
	}
	factory := &fakeDocFactory{uow: &fakeDocUow{docs: repo}}
	pub := &fakeIngestPublisher{}
	svc := NewKnowledgeService(factory, pub, nil, nil, 5, 0.7)
	return svc, repo, pub
}

func TestReprocessDocumentResetsAndRequeues(t *testing.T) {
	userId := uuid.New()
	docId := uuid.New()
	svc, repo, pub := newKnowledgeFixture(&entity.KbDocument{
		Id:              docId,
		UserId:          userId,
		Name:            "report.pdf",
		Status:          entity.DocumentStatusFailed,
		Progress:        42,
		TotalChunks:     9,
		ProcessedChunks: 4,
		ErrorMessage:    "embedding provider unavailable",
	})

	res, err := svc.ReprocessDocument(context.Background(), userId, docId)
	if err != nil {
		t.Fatalf("ReprocessDocument: %v", err)
	}
	if res.Id != docId || res.Status != string(entity.DocumentStatusPending) {
		t.Errorf("response = %+v, want pending %s", res, docId)
	}

	if len(repo.patches) != 1 {
		t.Fatalf("expected one status patch, got %d", len(repo.patches))
	}
	patch := repo.patches[0]
	if patch["status"] != string(entity.DocumentStatusPending) {
		t.Errorf("status = %v, want pending", patch["status"])
	}
	if patch["progress"] != float64(0) || patch["total_chunks"] != 0 || patch["processed_chunks"] != 0 {
		t.Errorf("counters not reset: %v", patch)
	}
	if patch["error_message"] != "" {
		t.Errorf("error_message = %v, want empty", patch["error_message"])
	}

	if len(pub.published) != 1 || pub.published[0] != docId {
		t.Errorf("published = %v, want [%s]", pub.published, docId)
	}
}

func TestReprocessDocumentNotFoundForOtherUser(t *testing.T) {
	docId := uuid.New()
	svc, _, pub := newKnowledgeFixture(&entity.KbDocument{
		Id:     docId,
		UserId: uuid.New(),
		Status: entity.DocumentStatusCompleted,
	})

	_, err := svc.ReprocessDocument(context.Background(), uuid.New(), docId)
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) || fiberErr.Code != fiber.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
	if len(pub.published) != 0 {
		t.Error("must not re-enqueue a document the caller does not own")
	}
}

func TestReprocessDocumentRejectsActiveRun(t *testing.T) {
	userId := uuid.New()
	docId := uuid.New()
	svc, repo, _ := newKnowledgeFixture(&entity.KbDocument{
		Id:     docId,
		UserId: userId,
		Status: entity.DocumentStatusProcessing,
	})

	_, err := svc.ReprocessDocument(context.Background(), userId, docId)
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) || fiberErr.Code != fiber.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}
	if len(repo.patches) != 0 {
		t.Error("must not touch a document mid-run")
	}
}

func TestTrackerPersistsChunkCounters(t *testing.T) {
	docId := uuid.New()
	repo := &fakeDocRepo{docs: map[uuid.UUID]*entity.KbDocument{
		docId: {Id: docId, UserId: uuid.New(), Status: entity.DocumentStatusProcessing},
	}}
	factory := &fakeDocFactory{uow: &fakeDocUow{docs: repo}}
	tracker := NewDocumentTaskTracker(factory, nil, noopLogger{})

	tracker.SetTotal(context.Background(), docId, 12)
	tracker.Progress(context.Background(), docId, 5, 12)

	if len(repo.patches) != 2 {
		t.Fatalf("expected two patches, got %d", len(repo.patches))
	}
	if repo.patches[0]["total_chunks"] != 12 {
		t.Errorf("total_chunks = %v, want 12", repo.patches[0]["total_chunks"])
	}
	if repo.patches[1]["processed_chunks"] != 5 {
		t.Errorf("processed_chunks = %v, want 5", repo.patches[1]["processed_chunks"])
	}
}

func TestTrackerCompletionCarriesFinalTallies(t *testing.T) {
	docId := uuid.New()
	repo := &fakeDocRepo{docs: map[uuid.UUID]*entity.KbDocument{
		docId: {Id: docId, UserId: uuid.New(), Status: entity.DocumentStatusProcessing},
	}}
	factory := &fakeDocFactory{uow: &fakeDocUow{docs: repo}}
	tracker := NewDocumentTaskTracker(factory, nil, noopLogger{})

	tracker.MarkCompleted(context.Background(), docId, &entity.IngestionResult{
		TotalChunks:     12,
		ProcessedChunks: 11,
		FailedChunks:    1,
		SuccessRate:     11.0 / 12.0,
	})

	if len(repo.patches) != 1 {
		t.Fatalf("expected one patch, got %d", len(repo.patches))
	}
	patch := repo.patches[0]
	if patch["status"] != string(entity.DocumentStatusCompleted) {
		t.Errorf("status = %v, want completed", patch["status"])
	}
	if patch["total_chunks"] != 12 || patch["processed_chunks"] != 11 {
		t.Errorf("final tallies not persisted: %v", patch)
	}
}
