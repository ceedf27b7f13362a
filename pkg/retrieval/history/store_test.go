package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/contract"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type fakeMessageRepo struct {
	messages  []*entity.ChatMessage // ascending by sequence
	findCalls int
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) CreateBulk(ctx context.Context, messages []*entity.ChatMessage) error {
	f.messages = append(f.messages, messages...)
	return nil
}

func (f *fakeMessageRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}

func (f *fakeMessageRepo) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return nil
}

func (f *fakeMessageRepo) MaxSequence(ctx context.Context, sessionId uuid.UUID) (int, error) {
	if len(f.messages) == 0 {
		return 0, nil
	}
	return f.messages[len(f.messages)-1].SequenceNumber, nil
}

func (f *fakeMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	return nil, nil
}

// FindAll honors the pagination limit the store sends, newest first.
func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	f.findCalls++
	limit := len(f.messages)
	for _, sp := range specs {
		if p, ok := sp.(specification.Pagination); ok && p.Limit > 0 && p.Limit < limit {
			limit = p.Limit
		}
	}
	out := make([]*entity.ChatMessage, 0, limit)
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.messages[i])
	}
	return out, nil
}

func (f *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.messages)), nil
}

type fakeSessionRepo struct {
	locks int
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error { return nil }
func (f *fakeSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error { return nil }
func (f *fakeSessionRepo) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	return nil
}
func (f *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeSessionRepo) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return nil
}
func (f *fakeSessionRepo) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	f.locks++
	return nil
}
func (f *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	return nil, nil
}
func (f *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return nil, nil
}
func (f *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeUow struct {
	messages *fakeMessageRepo
	sessions *fakeSessionRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }

func (f *fakeUow) UserRepository() contract.UserRepository               { return nil }
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository { return f.sessions }
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository { return f.messages }
func (f *fakeUow) KbDocumentRepository() contract.KbDocumentRepository   { return nil }
func (f *fakeUow) ChunkVectorRepository() contract.ChunkVectorRepository { return nil }
func (f *fakeUow) SearchLogRepository() contract.SearchLogRepository     { return nil }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeStoreCache struct {
	data map[string][]byte
	sets int
}

func (f *fakeStoreCache) get(ctx context.Context, key string) ([]byte, bool) {
	d, ok := f.data[key]
	return d, ok
}

func (f *fakeStoreCache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	f.sets++
	f.data[key] = data
}

func (f *fakeStoreCache) del(ctx context.Context, key string) {
	delete(f.data, key)
}

func seedMessages(sessionId uuid.UUID, n int) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, n)
	for i := range out {
		out[i] = &entity.ChatMessage{
			Id:             uuid.New(),
			ChatSessionId:  sessionId,
			Role:           entity.ChatRoleUser,
			Content:        fmt.Sprintf("message %d", i+1),
			SequenceNumber: i + 1,
		}
	}
	return out
}

func newCachedStore(repo *fakeMessageRepo, readLimit int) (*Store, *fakeStoreCache) {
	factory := &fakeFactory{uow: &fakeUow{messages: repo, sessions: &fakeSessionRepo{}}}
	s := NewStore(factory, nil, nil, Config{ReadLimit: readLimit, CacheTTL: time.Minute})
	fc := &fakeStoreCache{data: map[string][]byte{}}
	s.cache = fc
	return s, fc
}

func TestReadSmallLimitDoesNotPoisonCache(t *testing.T) {
	sessionId := uuid.New()
	repo := &fakeMessageRepo{messages: seedMessages(sessionId, 20)}
	s, fc := newCachedStore(repo, 8)

	// A narrow read must not become the cached window
	small, err := s.Read(context.Background(), sessionId, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(small) != 3 {
		t.Fatalf("small read returned %d messages", len(small))
	}
	if fc.sets != 0 {
		t.Fatal("narrow read must not be cached")
	}

	// The default read that follows still sees the full window
	full, err := s.Read(context.Background(), sessionId, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(full) != 8 {
		t.Fatalf("default read returned %d messages, want 8", len(full))
	}
	if full[0].SequenceNumber != 13 || full[7].SequenceNumber != 20 {
		t.Errorf("default read window wrong: %d..%d", full[0].SequenceNumber, full[7].SequenceNumber)
	}
	if fc.sets != 1 {
		t.Errorf("default read should populate the cache, sets = %d", fc.sets)
	}
}

func TestReadServesNarrowReadsFromCachedWindow(t *testing.T) {
	sessionId := uuid.New()
	repo := &fakeMessageRepo{messages: seedMessages(sessionId, 20)}
	s, _ := newCachedStore(repo, 8)

	if _, err := s.Read(context.Background(), sessionId, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	dbReads := repo.findCalls

	small, err := s.Read(context.Background(), sessionId, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if repo.findCalls != dbReads {
		t.Error("narrow read should be served from the cached window")
	}
	if len(small) != 3 || small[2].SequenceNumber != 20 {
		t.Errorf("cached trim wrong: %d messages, last seq %d", len(small), small[len(small)-1].SequenceNumber)
	}
}

func TestReadWiderThanWindowGoesToDatabase(t *testing.T) {
	sessionId := uuid.New()
	repo := &fakeMessageRepo{messages: seedMessages(sessionId, 20)}
	s, _ := newCachedStore(repo, 8)

	if _, err := s.Read(context.Background(), sessionId, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	dbReads := repo.findCalls

	wide, err := s.Read(context.Background(), sessionId, 15)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if repo.findCalls != dbReads+1 {
		t.Error("a read wider than the cached window must hit the database")
	}
	if len(wide) != 15 {
		t.Errorf("wide read returned %d messages, want 15", len(wide))
	}
}

func TestReadShortSessionServedFullyFromCache(t *testing.T) {
	sessionId := uuid.New()
	repo := &fakeMessageRepo{messages: seedMessages(sessionId, 5)}
	s, _ := newCachedStore(repo, 8)

	if _, err := s.Read(context.Background(), sessionId, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	dbReads := repo.findCalls

	// Fewer cached messages than the window means the session has no
	// more; even a wide read can be answered from cache.
	wide, err := s.Read(context.Background(), sessionId, 15)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if repo.findCalls != dbReads {
		t.Error("short session should be served from cache at any limit")
	}
	if len(wide) != 5 {
		t.Errorf("short session read returned %d messages, want 5", len(wide))
	}
}

func TestAppendAssignsSequencesAndInvalidates(t *testing.T) {
	sessionId := uuid.New()
	repo := &fakeMessageRepo{messages: seedMessages(sessionId, 4)}
	s, fc := newCachedStore(repo, 8)

	if _, err := s.Read(context.Background(), sessionId, 0); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(fc.data) != 1 {
		t.Fatal("expected a cached window before append")
	}

	seqs, err := s.Append(context.Background(), sessionId, []*entity.ChatMessage{
		{Role: entity.ChatRoleUser, Content: "q"},
		{Role: entity.ChatRoleAssistant, Content: "a"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 5 || seqs[1] != 6 {
		t.Errorf("sequences = %v, want [5 6]", seqs)
	}
	if len(fc.data) != 0 {
		t.Error("append must invalidate the cached window")
	}
}
