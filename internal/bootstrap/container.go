package bootstrap

import (
	"context"
	"log"
	"strings"
	"time"

	"sparklink-ai-be/internal/config"
	"sparklink-ai-be/internal/controller"
	"sparklink-ai-be/internal/handler"
	"sparklink-ai-be/internal/pkg/logger"
	"sparklink-ai-be/internal/repository/memory"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/internal/service"
	"sparklink-ai-be/internal/websocket"
	"sparklink-ai-be/pkg/embedding"
	"sparklink-ai-be/pkg/ingest"
	"sparklink-ai-be/pkg/llm/factory"
	"sparklink-ai-be/pkg/retrieval/decision"
	"sparklink-ai-be/pkg/retrieval/fusion"
	"sparklink-ai-be/pkg/retrieval/history"
	"sparklink-ai-be/pkg/retrieval/stream"
	"sparklink-ai-be/pkg/textextract"
	"sparklink-ai-be/pkg/websearch"

	pktNats "sparklink-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewSiliconFlowProvider(
			cfg.Ai.EmbeddingApiKey,
			cfg.Ai.EmbeddingBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: SILICONFLOW (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL(cfg),
		cfg.Ai.LLMApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Retrieval Components
	streamRegistry := memory.NewStreamRegistry()

	historyStore := history.NewStore(uowFactory, rdb, sysLogger, history.Config{
		ReadLimit: 50,
		CacheTTL:  10 * time.Minute,
	})

	knowledgeSearcher := service.NewVectorKnowledgeSearcher(uowFactory, embeddingProvider)
	webSearcher := websearch.NewBochaProvider(cfg.Search.BochaApiKey, cfg.Search.BochaBaseURL)

	searchEngine := decision.NewEngine(knowledgeSearcher, webSearcher, sysLogger, decision.Config{
		TopK:                cfg.Knowledge.TopK,
		SimilarityThreshold: cfg.Knowledge.SimilarityThreshold,
		WebMaxResults:       cfg.Search.WebMaxResults,
		ExtraTriggerWords:   splitTriggerWords(cfg.Search.TriggerWords),
	})
	resultRanker := fusion.NewRanker(fusion.Config{})

	titleUpdater := service.NewSessionTitleUpdater(uowFactory)
	coordinator := stream.NewCoordinator(llmProvider, streamRegistry, historyStore, titleUpdater, sysLogger, stream.Config{
		MaxTokens:   cfg.Ai.MaxTokens,
		Temperature: cfg.Ai.Temperature,
	})

	// 5. Ingestion Pipeline
	vectorWriter := service.NewVectorReplaceWriter(uowFactory)
	taskTracker := service.NewDocumentTaskTracker(uowFactory, wsHub, sysLogger)
	extractor := textextract.NewPlainTextExtractor()

	pipeline := ingest.NewPipeline(extractor, embeddingProvider, vectorWriter, taskTracker, sysLogger, ingest.Config{
		ChunkSize:    cfg.Knowledge.ChunkSize,
		ChunkOverlap: cfg.Knowledge.ChunkOverlap,
		DownloadDir:  cfg.App.UploadDir,
	})

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Knowledge.IngestTopicName, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Knowledge.IngestTopicName,
		uowFactory,
		pipeline,
		natsPub,
	)

	authService := service.NewAuthService(uowFactory, cfg.Jwt, natsPub)
	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		publisherService,
		embeddingProvider,
		natsPub,
		cfg.Knowledge.TopK,
		cfg.Knowledge.SimilarityThreshold,
	)
	chatService := service.NewChatService(
		uowFactory,
		historyStore,
		searchEngine,
		resultRanker,
		coordinator,
		streamRegistry,
		natsPub,
		sysLogger,
		cfg.Knowledge.TopK,
	)

	// Event audit worker
	if natsSub != nil {
		auditService := service.NewEventAuditService(natsSub, sysLogger)
		go func() {
			if err := auditService.Start(); err != nil {
				log.Printf("[WARN] Event audit worker failed to start: %v", err)
			}
		}()
	}

	// Handler
	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	// 7. Controllers
	// Note: We return the container with public fields for the server to register
	return &Container{
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		AuthController:      controller.NewAuthController(authService),
		ChatController:      controller.NewChatController(chatService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService, cfg.App.UploadDir),

		ConsumerService: consumerService,
	}
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.LLMBaseURL
}

func splitTriggerWords(raw string) []string {
	if raw == "" {
		return nil
	}
	var words []string
	for _, w := range strings.Split(raw, ",") {
		w = strings.TrimSpace(w)
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}
