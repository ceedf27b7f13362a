package factory

import (
	"fmt"

	"sparklink-ai-be/pkg/llm"
	"sparklink-ai-be/pkg/llm/ollama"
	"sparklink-ai-be/pkg/llm/siliconflow"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "siliconflow", "openai":
		return siliconflow.NewSiliconFlowProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
