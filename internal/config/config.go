package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Jwt       JwtConfig
	Ai        AIConfig
	Search    SearchConfig
	Knowledge KnowledgeConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type JwtConfig struct {
	Secret     string
	ExpiryHour int
}

type AIConfig struct {
	LLMProvider       string // "siliconflow", "openai" or "ollama"
	LLMModel          string // e.g. "Qwen/Qwen3-8B", "llama3"
	LLMBaseURL        string
	LLMApiKey         string
	MaxTokens         int
	Temperature       float64
	EmbeddingProvider string // "siliconflow" or "ollama"
	EmbeddingModel    string // e.g. "BAAI/bge-m3"
	EmbeddingBaseURL  string
	EmbeddingApiKey   string
	OllamaBaseURL     string
}

type SearchConfig struct {
	BochaApiKey   string
	BochaBaseURL  string
	WebMaxResults int
	TriggerWords  string // comma separated extra markers forcing web search
}

type KnowledgeConfig struct {
	ChunkSize           int
	ChunkOverlap        int
	TopK                int
	SimilarityThreshold float64
	IngestTopicName     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Jwt: JwtConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			ExpiryHour: getEnvAsInt("JWT_EXPIRY_HOUR", 72),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "siliconflow"),
			LLMModel:          getEnv("LLM_MODEL", "Qwen/Qwen3-8B"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "https://api.siliconflow.cn/v1"),
			LLMApiKey:         getEnv("LLM_API_KEY", ""),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 4096),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "siliconflow"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "BAAI/bge-m3"),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", "https://api.siliconflow.cn/v1"),
			EmbeddingApiKey:   getEnv("EMBEDDING_API_KEY", ""),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Search: SearchConfig{
			BochaApiKey:   getEnv("BOCHA_API_KEY", ""),
			BochaBaseURL:  getEnv("BOCHA_BASE_URL", "https://api.bochaai.com/v1"),
			WebMaxResults: getEnvAsInt("WEB_SEARCH_MAX_RESULTS", 5),
			TriggerWords:  getEnv("WEB_SEARCH_TRIGGER_WORDS", ""),
		},
		Knowledge: KnowledgeConfig{
			ChunkSize:           getEnvAsInt("KB_CHUNK_SIZE", 512),
			ChunkOverlap:        getEnvAsInt("KB_CHUNK_OVERLAP", 50),
			TopK:                getEnvAsInt("KB_TOP_K", 10),
			SimilarityThreshold: getEnvAsFloat("KB_SIMILARITY_THRESHOLD", 0.7),
			IngestTopicName:     getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
