// Package history is the ordered conversation store: messages per
// session with strictly increasing sequence numbers, fronted by a
// redis cache for the hot read path.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Logger interface {
	Warn(module string, message string, details map[string]interface{})
}

type Config struct {
	// ReadLimit bounds how many recent messages Read returns by default
	ReadLimit int
	CacheTTL  time.Duration
}

// cache is the byte-level backing for the hot window. Satisfied by
// redisCache; nil disables caching.
type cache interface {
	get(ctx context.Context, key string) ([]byte, bool)
	set(ctx context.Context, key string, data []byte, ttl time.Duration)
	del(ctx context.Context, key string)
}

type redisCache struct {
	rdb    *redis.Client
	logger Logger
}

func (c *redisCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *redisCache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("history", "failed to cache session history", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (c *redisCache) del(ctx context.Context, key string) {
	if err := c.rdb.Del(ctx, key).Err(); err != nil && c.logger != nil {
		c.logger.Warn("history", "failed to invalidate history cache", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

type Store struct {
	factory unitofwork.RepositoryFactory
	cache   cache
	logger  Logger
	cfg     Config
}

func NewStore(factory unitofwork.RepositoryFactory, rdb *redis.Client, logger Logger, cfg Config) *Store {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 50
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	s := &Store{
		factory: factory,
		logger:  logger,
		cfg:     cfg,
	}
	if rdb != nil {
		s.cache = &redisCache{rdb: rdb, logger: logger}
	}
	return s
}

func cacheKey(sessionId uuid.UUID) string {
	return fmt.Sprintf("chat_history:%s", sessionId)
}

// Append writes messages in order, assigning consecutive sequence
// numbers past the session's current max. The session row lock
// serializes concurrent appends so numbers stay gapless and unique.
func (s *Store) Append(ctx context.Context, sessionId uuid.UUID, messages []*entity.ChatMessage) ([]int, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	uow := s.factory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	if err := uow.ChatSessionRepository().LockForUpdate(ctx, sessionId); err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	max, err := uow.ChatMessageRepository().MaxSequence(ctx, sessionId)
	if err != nil {
		return nil, fmt.Errorf("read max sequence: %w", err)
	}

	sequences := make([]int, len(messages))
	for i, msg := range messages {
		msg.ChatSessionId = sessionId
		msg.SequenceNumber = max + i + 1
		sequences[i] = msg.SequenceNumber
	}

	if err := uow.ChatMessageRepository().CreateBulk(ctx, messages); err != nil {
		return nil, fmt.Errorf("persist messages: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	committed = true

	s.invalidate(ctx, sessionId)
	return sequences, nil
}

// Read returns the most recent messages in ascending sequence order.
// limit <= 0 falls back to the configured default.
func (s *Store) Read(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, error) {
	if limit <= 0 {
		limit = s.cfg.ReadLimit
	}

	if cached, ok := s.readCache(ctx, sessionId, limit); ok {
		return cached, nil
	}

	repo := s.factory.NewUnitOfWork(ctx).ChatMessageRepository()
	messages, err := repo.FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "sequence_number", Desc: true},
		specification.Pagination{Limit: limit, Offset: 0},
	)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	// Descending fetch grabs the newest slice; flip back to ascending
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	// Only the default window goes to the cache. Caching a shorter
	// read would truncate the context served to later full reads.
	if limit == s.cfg.ReadLimit {
		s.writeCache(ctx, sessionId, messages)
	}
	return messages, nil
}

// readCache serves reads out of the cached default window. The cache
// only ever holds a default-limit read, so a cached slice shorter than
// the window means the session has no further messages; requests wider
// than the window still go to the database.
func (s *Store) readCache(ctx context.Context, sessionId uuid.UUID, limit int) ([]*entity.ChatMessage, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.get(ctx, cacheKey(sessionId))
	if !ok {
		return nil, false
	}
	var messages []*entity.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	if limit > s.cfg.ReadLimit && len(messages) == s.cfg.ReadLimit {
		return nil, false
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, true
}

func (s *Store) writeCache(ctx context.Context, sessionId uuid.UUID, messages []*entity.ChatMessage) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return
	}
	s.cache.set(ctx, cacheKey(sessionId), data, s.cfg.CacheTTL)
}

func (s *Store) invalidate(ctx context.Context, sessionId uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.cache.del(ctx, cacheKey(sessionId))
}
