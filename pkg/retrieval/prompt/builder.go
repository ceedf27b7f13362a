// Package prompt assembles the system prompt from fused retrieval
// context and shapes the message list sent to the LLM.
package prompt

import (
	"fmt"
	"strings"

	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/pkg/llm"
	"sparklink-ai-be/pkg/retrieval"
)

const basePrompt = "You are SparkLink, a helpful AI assistant. " +
	"Answer in the user's language. When reference material is provided, " +
	"ground your answer in it and do not invent citations."

const (
	maxKnowledgeRefs = 5
	maxWebRefs       = 3
)

// BuildSystemPrompt folds the fused hits into the system prompt. With
// no hits it returns the bare assistant instruction.
func BuildSystemPrompt(hits []retrieval.Hit) string {
	if len(hits) == 0 {
		return basePrompt
	}

	var kb, web []retrieval.Hit
	for _, hit := range hits {
		switch hit.Source {
		case retrieval.SourceWebSearch:
			if len(web) < maxWebRefs {
				web = append(web, hit)
			}
		default:
			if len(kb) < maxKnowledgeRefs {
				kb = append(kb, hit)
			}
		}
	}

	var b strings.Builder
	b.WriteString(basePrompt)

	if len(kb) > 0 {
		b.WriteString("\n\nKnowledge base references:\n")
		for i, hit := range kb {
			b.WriteString(fmt.Sprintf("[%d] %s\n%s\n", i+1, hit.Title, hit.Content))
		}
	}
	if len(web) > 0 {
		b.WriteString("\n\nWeb search results:\n")
		for i, hit := range web {
			b.WriteString(fmt.Sprintf("[W%d] %s (%s)\n%s\n", i+1, hit.Title, hit.Locator, hit.Content))
		}
	}
	return b.String()
}

// HistoryFromMessages converts persisted history to the provider
// format. System messages are dropped; the live system prompt replaces
// them.
func HistoryFromMessages(messages []*entity.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == entity.ChatRoleSystem {
			continue
		}
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// BuildMessages produces system prompt + prior history + current user
// message in the order the chat API expects.
func BuildMessages(systemPrompt string, history []llm.Message, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})
	return messages
}
