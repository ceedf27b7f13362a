// Package stream drives token-by-token chat generation: it fans LLM
// output to the client, polls for cancellation, and hands the final
// exchange to the history store.
package stream

import (
	"context"
	"strings"
	"time"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/memory"
	"sparklink-ai-be/pkg/llm"

	"github.com/google/uuid"
)

// Event types sent to the client, in order: request_id, start, then
// content/think units, an optional title, and exactly one of end or
// error.
const (
	EventRequestId = "request_id"
	EventStart     = "start"
	EventContent   = "content"
	EventThink     = "think"
	EventTitle     = "title"
	EventEnd       = "end"
	EventError     = "error"
)

type Event struct {
	Type         string  `json:"type"`
	RequestId    string  `json:"request_id,omitempty"`
	SessionId    string  `json:"session_id,omitempty"`
	Content      string  `json:"content,omitempty"`
	Title        string  `json:"title,omitempty"`
	Cancelled    bool    `json:"cancelled,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// EmitFunc delivers one event to the client. A non-nil error means the
// client is gone; the coordinator treats that like a cancellation.
type EmitFunc func(Event) error

type HistoryAppender interface {
	Append(ctx context.Context, sessionId uuid.UUID, messages []*entity.ChatMessage) ([]int, error)
}

type TitleUpdater interface {
	UpdateTitle(ctx context.Context, sessionId uuid.UUID, title string) error
}

type Logger interface {
	Warn(module string, message string, details map[string]interface{})
	Error(module string, message string, details map[string]interface{})
}

type Config struct {
	InterruptionMarker string
	FallbackReply      string
	TitleMaxLen        int
	MaxTokens          int
	Temperature        float64
	TitleTimeout       time.Duration
}

// Request is one chat turn ready for generation: the assembled prompt
// plus everything needed to persist the exchange afterwards.
type Request struct {
	RequestId        string
	SessionId        uuid.UUID
	UserMessage      string
	Messages         []llm.Message
	KnowledgeSources []entity.SourceRef
	WebSearchResults []entity.SourceRef
	// FirstExchange triggers title generation for a fresh session
	FirstExchange bool
}

type Coordinator struct {
	provider llm.LLMProvider
	registry *memory.StreamRegistry
	history  HistoryAppender
	sessions TitleUpdater
	logger   Logger
	cfg      Config
}

func NewCoordinator(provider llm.LLMProvider, registry *memory.StreamRegistry, history HistoryAppender, sessions TitleUpdater, logger Logger, cfg Config) *Coordinator {
	if cfg.InterruptionMarker == "" {
		cfg.InterruptionMarker = " [interrupted]"
	}
	if cfg.FallbackReply == "" {
		cfg.FallbackReply = "Sorry, something went wrong while generating a reply. Please try again."
	}
	if cfg.TitleMaxLen <= 0 {
		cfg.TitleMaxLen = 50
	}
	if cfg.TitleTimeout <= 0 {
		cfg.TitleTimeout = 10 * time.Second
	}
	return &Coordinator{
		provider: provider,
		registry: registry,
		history:  history,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
	}
}

// Stream runs one generation end to end. The registry entry lives
// exactly as long as this call; the deferred removal also covers
// panics in the emit path.
func (c *Coordinator) Stream(ctx context.Context, req Request, emit EmitFunc) error {
	// The provider's producer goroutine blocks on its output channel
	// until this context dies. Leaving the consume loop early
	// (cancellation, client disconnect) must release it too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	requestId := req.RequestId
	if requestId == "" {
		requestId = uuid.NewString()
	}

	handle := c.registry.Register(requestId)
	defer c.registry.Remove(requestId)

	started := time.Now()

	if err := emit(Event{Type: EventRequestId, RequestId: requestId}); err != nil {
		return err
	}
	if err := emit(Event{Type: EventStart, SessionId: req.SessionId.String()}); err != nil {
		return err
	}

	var content, think strings.Builder
	cancelled := false

	opts := []llm.Option{llm.WithTemperature(c.cfg.Temperature)}
	if c.cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(c.cfg.MaxTokens))
	}

	chunks, err := c.provider.StreamChat(ctx, req.Messages, opts...)
	if err != nil {
		// Generation never started: emit the apologetic fallback and
		// persist it as the assistant turn.
		c.logWarn("llm stream failed to start", requestId, err)
		_ = emit(Event{Type: EventContent, Content: c.cfg.FallbackReply})
		content.WriteString(c.cfg.FallbackReply)
	} else {
		for chunk := range chunks {
			if handle.Cancelled() {
				cancelled = true
				break
			}
			if chunk.Err != nil {
				c.logWarn("llm stream died mid-generation", requestId, chunk.Err)
				if content.Len() == 0 {
					_ = emit(Event{Type: EventContent, Content: c.cfg.FallbackReply})
					content.WriteString(c.cfg.FallbackReply)
				}
				break
			}

			eventType := EventContent
			if chunk.Channel == llm.ChannelThink {
				eventType = EventThink
			}
			if err := emit(Event{Type: eventType, Content: chunk.Text}); err != nil {
				// Client disconnected; stop generating
				cancelled = true
				break
			}

			if chunk.Channel == llm.ChannelThink {
				think.WriteString(chunk.Text)
			} else {
				content.WriteString(chunk.Text)
			}
		}
	}

	if cancelled {
		c.persistCancelled(ctx, req, requestId, content.String(), think.String())
		_ = emit(Event{
			Type:         EventEnd,
			Cancelled:    true,
			ResponseTime: time.Since(started).Seconds(),
		})
		return nil
	}

	c.persistCompleted(ctx, req, requestId, content.String(), think.String())

	if req.FirstExchange {
		title := c.resolveTitle(ctx, req.UserMessage)
		if err := c.sessions.UpdateTitle(ctx, req.SessionId, title); err != nil {
			c.logWarn("session title update failed", requestId, err)
		} else {
			_ = emit(Event{Type: EventTitle, Title: title})
		}
	}

	_ = emit(Event{
		Type:         EventEnd,
		ResponseTime: time.Since(started).Seconds(),
	})
	return nil
}

// persistCompleted writes the user/assistant pair through the history
// append path. Persistence failure is logged, never surfaced: the
// client already has the content.
func (c *Coordinator) persistCompleted(ctx context.Context, req Request, requestId string, content string, think string) {
	messages := []*entity.ChatMessage{
		{
			Role:             entity.ChatRoleUser,
			Content:          req.UserMessage,
			RequestId:        requestId,
			KnowledgeSources: req.KnowledgeSources,
			WebSearchResults: req.WebSearchResults,
		},
		{
			Role:            entity.ChatRoleAssistant,
			Content:         content,
			ThinkingProcess: think,
			RequestId:       requestId,
		},
	}
	if _, err := c.history.Append(ctx, req.SessionId, messages); err != nil {
		c.logError("failed to persist completed exchange", requestId, err)
	}
}

// persistCancelled stores the partial response with the interruption
// marker. With nothing accumulated it stores nothing at all.
func (c *Coordinator) persistCancelled(ctx context.Context, req Request, requestId string, content string, think string) {
	if content == "" && think == "" {
		return
	}
	messages := []*entity.ChatMessage{
		{
			Role:             entity.ChatRoleUser,
			Content:          req.UserMessage,
			RequestId:        requestId,
			KnowledgeSources: req.KnowledgeSources,
			WebSearchResults: req.WebSearchResults,
		},
		{
			Role:            entity.ChatRoleAssistant,
			Content:         content + c.cfg.InterruptionMarker,
			ThinkingProcess: think,
			RequestId:       requestId,
		},
	}
	if _, err := c.history.Append(ctx, req.SessionId, messages); err != nil {
		c.logError("failed to persist cancelled exchange", requestId, err)
	}
}

// resolveTitle asks the model for a short title and falls back to the
// truncated user message. Never fails.
func (c *Coordinator) resolveTitle(ctx context.Context, userMessage string) string {
	titleCtx, cancel := context.WithTimeout(ctx, c.cfg.TitleTimeout)
	defer cancel()

	prompt := "Write a short title (at most eight words, no quotes) for a conversation that starts with: " + userMessage
	title, err := c.provider.Generate(titleCtx, prompt, llm.WithTemperature(0.3))
	if err == nil {
		title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	}
	if err != nil || title == "" {
		title = truncateRunes(userMessage, c.cfg.TitleMaxLen)
	}
	return truncateRunes(title, c.cfg.TitleMaxLen)
}

func truncateRunes(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}

func (c *Coordinator) logWarn(message string, requestId string, err error) {
	if c.logger != nil {
		c.logger.Warn("stream", message, map[string]interface{}{
			"request_id": requestId,
			"error":      err.Error(),
		})
	}
}

func (c *Coordinator) logError(message string, requestId string, err error) {
	if c.logger != nil {
		c.logger.Error("stream", message, map[string]interface{}{
			"request_id": requestId,
			"error":      err.Error(),
		})
	}
}
