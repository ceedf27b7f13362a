package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Stream channel tags. Reasoning-capable models interleave visible
// answer text with an intermediate thinking channel.
const (
	ChannelContent = "content"
	ChannelThink   = "think"
)

// StreamChunk is one fragment of a streamed response. Err is set on the
// final chunk when the stream dies mid-generation.
type StreamChunk struct {
	Channel string
	Text    string
	Err     error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func BuildOptions(opts ...Option) *Options {
	options := &Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// StreamChat starts token-by-token generation. An error return means
	// the stream never started; errors after the first token arrive as a
	// final StreamChunk with Err set. The channel is closed when the
	// stream ends for any reason.
	StreamChat(ctx context.Context, history []Message, options ...Option) (<-chan StreamChunk, error)
}
