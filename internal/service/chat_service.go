package service

import (
	"context"
	"time"

	"sparklink-ai-be/internal/dto"
	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/pkg/logger"
	"sparklink-ai-be/internal/repository/memory"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/pkg/events"
	"sparklink-ai-be/pkg/retrieval"
	"sparklink-ai-be/pkg/retrieval/decision"
	"sparklink-ai-be/pkg/retrieval/fusion"
	"sparklink-ai-be/pkg/retrieval/history"
	"sparklink-ai-be/pkg/retrieval/prompt"
	"sparklink-ai-be/pkg/retrieval/stream"

	pktNats "sparklink-ai-be/pkg/nats"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, limit int) ([]*dto.GetChatHistoryResponse, error)
	UpdateSessionTitle(ctx context.Context, userId uuid.UUID, req *dto.UpdateSessionTitleRequest) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	StreamChat(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.ChatStreamRequest, emit stream.EmitFunc) error
	SendChat(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	CancelStream(ctx context.Context, requestId string) (*dto.CancelStreamResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	historyStore   *history.Store
	engine         *decision.Engine
	ranker         *fusion.Ranker
	coordinator    *stream.Coordinator
	registry       *memory.StreamRegistry
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	topK           int
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	historyStore *history.Store,
	engine *decision.Engine,
	ranker *fusion.Ranker,
	coordinator *stream.Coordinator,
	registry *memory.StreamRegistry,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	topK int,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		historyStore:   historyStore,
		engine:         engine,
		ranker:         ranker,
		coordinator:    coordinator,
		registry:       registry,
		eventPublisher: eventPublisher,
		logger:         log,
		topK:           topK,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     req.Title,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.New(events.TypeChatSessionOpened, map[string]interface{}{
			"session_id": session.Id.String(),
			"user_id":    userId.String(),
		})
		_ = s.eventPublisher.Publish(ctx, evt)
	}

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *chatService) GetSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return out, nil
}

func (s *chatService) GetHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, limit int) ([]*dto.GetChatHistoryResponse, error) {
	if _, err := s.ownedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := s.historyStore.Read(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetChatHistoryResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, &dto.GetChatHistoryResponse{
			Id:               msg.Id,
			Role:             msg.Role,
			Content:          msg.Content,
			ThinkingProcess:  msg.ThinkingProcess,
			SequenceNumber:   int64(msg.SequenceNumber),
			KnowledgeSources: toSourceRefDTOs(msg.KnowledgeSources),
			WebSearchResults: toSourceRefDTOs(msg.WebSearchResults),
			CreatedAt:        msg.CreatedAt,
		})
	}
	return out, nil
}

func (s *chatService) UpdateSessionTitle(ctx context.Context, userId uuid.UUID, req *dto.UpdateSessionTitleRequest) error {
	if _, err := s.ownedSession(ctx, userId, req.Id); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().UpdateTitle(ctx, req.Id, req.Title)
}

// DeleteSession removes the session and its messages in one
// transaction.
func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(ctx, userId, sessionId); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatService) StreamChat(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.ChatStreamRequest, emit stream.EmitFunc) error {
	streamReq, err := s.prepare(ctx, userId, groupId, req.SessionId, req.Message, req.UseKnowledgeBase, req.UseWebSearch, req.Strategy)
	if err != nil {
		return err
	}
	return s.coordinator.Stream(ctx, *streamReq, emit)
}

// SendChat runs the same generation as StreamChat but collects the
// streamed events into a single response.
func (s *chatService) SendChat(ctx context.Context, userId uuid.UUID, groupId *int64, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	streamReq, err := s.prepare(ctx, userId, groupId, req.SessionId, req.Message, req.UseKnowledgeBase, req.UseWebSearch, req.Strategy)
	if err != nil {
		return nil, err
	}

	var content, thinking, title string
	var responseTime float64

	collect := func(ev stream.Event) error {
		switch ev.Type {
		case stream.EventContent:
			content += ev.Content
		case stream.EventThink:
			thinking += ev.Content
		case stream.EventTitle:
			title = ev.Title
		case stream.EventEnd:
			responseTime = ev.ResponseTime
		}
		return nil
	}

	if err := s.coordinator.Stream(ctx, *streamReq, collect); err != nil {
		return nil, err
	}

	if title == "" {
		if session, err := s.ownedSession(ctx, userId, streamReq.SessionId); err == nil {
			title = session.Title
		}
	}

	return &dto.SendChatResponse{
		SessionId:        streamReq.SessionId,
		SessionTitle:     title,
		Reply:            content,
		ThinkingProcess:  thinking,
		KnowledgeSources: toSourceRefDTOs(streamReq.KnowledgeSources),
		WebSearchResults: toSourceRefDTOs(streamReq.WebSearchResults),
		ResponseTime:     responseTime,
	}, nil
}

func (s *chatService) CancelStream(ctx context.Context, requestId string) (*dto.CancelStreamResponse, error) {
	if !s.registry.Cancel(requestId) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Stream not found")
	}
	return &dto.CancelStreamResponse{RequestId: requestId, Cancelled: true}, nil
}

// prepare resolves the session, runs retrieval, and assembles the
// generation request.
func (s *chatService) prepare(ctx context.Context, userId uuid.UUID, groupId *int64, sessionId *uuid.UUID, message string, useKnowledge bool, useWeb bool, strategyOverride string) (*stream.Request, error) {
	started := time.Now()

	session, firstExchange, err := s.resolveSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	strategy := decision.ResolveStrategy(useKnowledge, useWeb)
	if strategyOverride != "" {
		parsed, err := decision.ParseStrategy(strategyOverride)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown search strategy")
		}
		strategy = parsed
	}

	scope := retrieval.Scope{UserId: userId, GroupId: groupId}
	result := s.engine.DecideAndFetch(ctx, message, strategy, scope)
	fused := s.ranker.Fuse(result.KnowledgeHits, result.WebHits, s.topK)

	var knowledgeSources, webSources []entity.SourceRef
	for _, hit := range fused {
		ref := entity.SourceRef{
			Source:  hit.Source,
			Title:   hit.Title,
			Locator: hit.Locator,
			Score:   hit.Score,
			Excerpt: excerpt(hit.Content, 200),
		}
		if hit.Source == retrieval.SourceWebSearch {
			webSources = append(webSources, ref)
		} else {
			knowledgeSources = append(knowledgeSources, ref)
		}
	}

	systemPrompt := prompt.BuildSystemPrompt(fused)

	histMessages, err := s.historyStore.Read(ctx, session.Id, 0)
	if err != nil {
		return nil, err
	}
	llmHistory := prompt.HistoryFromMessages(histMessages)

	s.logSearch(ctx, userId, session.Id, message, string(strategy), result, len(fused), time.Since(started).Seconds())

	return &stream.Request{
		RequestId:        uuid.NewString(),
		SessionId:        session.Id,
		UserMessage:      message,
		Messages:         prompt.BuildMessages(systemPrompt, llmHistory, message),
		KnowledgeSources: knowledgeSources,
		WebSearchResults: webSources,
		FirstExchange:    firstExchange,
	}, nil
}

// resolveSession loads an owned session or creates a fresh one when no
// id is given. firstExchange reports whether the session has no
// messages yet, which triggers title generation downstream.
func (s *chatService) resolveSession(ctx context.Context, userId uuid.UUID, sessionId *uuid.UUID) (*entity.ChatSession, bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if sessionId == nil {
		session := &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			CreatedAt: time.Now(),
		}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			return nil, false, err
		}
		return session, true, nil
	}

	session, err := s.ownedSession(ctx, userId, *sessionId)
	if err != nil {
		return nil, false, err
	}

	count, err := uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: session.Id})
	if err != nil {
		return nil, false, err
	}
	return session, count == 0, nil
}

func (s *chatService) ownedSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != userId {
		return nil, fiber.NewError(fiber.StatusNotFound, "Chat session not found")
	}
	return session, nil
}

// logSearch is best-effort analytics; failures are logged and ignored.
func (s *chatService) logSearch(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, query string, strategy string, result *decision.Result, fusedCount int, elapsed float64) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.SearchLogRepository().Create(ctx, &entity.SearchLog{
		Id:              uuid.New(),
		UserId:          userId,
		SessionId:       sessionId,
		Query:           query,
		Strategy:        strategy,
		KnowledgeHits:   len(result.KnowledgeHits),
		WebHits:         len(result.WebHits),
		FusedResults:    fusedCount,
		Reasoning:       result.Reasoning,
		DurationSeconds: elapsed,
		CreatedAt:       time.Now(),
	})
	if err != nil {
		s.logger.Warn("ChatService", "Failed to write search log", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

func toSourceRefDTOs(refs []entity.SourceRef) []dto.SourceRefDTO {
	if len(refs) == 0 {
		return nil
	}
	out := make([]dto.SourceRefDTO, 0, len(refs))
	for _, ref := range refs {
		out = append(out, dto.SourceRefDTO{
			Source:  ref.Source,
			Title:   ref.Title,
			Locator: ref.Locator,
			Score:   ref.Score,
			Excerpt: ref.Excerpt,
		})
	}
	return out
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
