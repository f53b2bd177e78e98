package bootstrap

import (
	"context"
	stdlog "log"
	"os"

	"support-chatbot-be/internal/config"
	"support-chatbot-be/internal/controller"
	"support-chatbot-be/internal/pkg/logger"
	"support-chatbot-be/internal/pkg/mailer"
	"support-chatbot-be/internal/repository/implementation"
	"support-chatbot-be/internal/repository/unitofwork"
	"support-chatbot-be/internal/service"
	internalstore "support-chatbot-be/internal/store"
	"support-chatbot-be/internal/websocket"
	embeddingfactory "support-chatbot-be/pkg/embedding/factory"
	llmfactory "support-chatbot-be/pkg/llm/factory"
	"support-chatbot-be/pkg/rag/chain"
	"support-chatbot-be/pkg/rag/history"
	"support-chatbot-be/pkg/rag/input"
	"support-chatbot-be/pkg/rag/language"
	"support-chatbot-be/pkg/rag/retriever"
	"support-chatbot-be/pkg/rag/vision"

	pktNats "support-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController
	OpsController  controller.IOpsController

	// Background Services (Exposed for main.go to run)
	ConsumerService   service.IConsumerService
	EventAuditService service.IEventAuditService
	PublisherService  service.IPublisherService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embeddingfactory.NewEmbeddingProvider(cfg.Ai.EmbeddingProvider, embeddingfactory.Params{
		APIKey:     embeddingAPIKey(cfg),
		BaseURL:    cfg.Ai.HuggingFaceEndpoint,
		Model:      cfg.Ai.EmbeddingModel,
		Dimensions: cfg.Ai.EmbeddingDimensions,
	})
	if err != nil {
		stdlog.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	stdlog.Printf("[INFO] Using Embedding Provider: %s (%s, %d dims, images=%v)",
		cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel, cfg.Ai.EmbeddingDimensions,
		embeddingfactory.SupportsImages(embeddingProvider))

	llmProvider, err := llmfactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmAPIKey(cfg),
		llmBaseURL(cfg),
	)
	if err != nil {
		stdlog.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	stdlog.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		stdlog.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		stdlog.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		stdlog.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		stdlog.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/chat_events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 5. Retrieval Pipeline
	ragLogger := stdlog.New(os.Stdout, "[RAG] ", stdlog.LstdFlags)

	vectorStore := internalstore.NewPgVectorStore(implementation.NewKnowledgeEmbeddingRepository(db))

	languageService := language.NewService(llmProvider)
	processor := input.NewProcessor(llmProvider, languageService, cfg.Retrieval.ProductName)
	selector := history.NewSelector(embeddingProvider)
	describer := vision.NewDescriber(llmProvider, cfg.Ai.VisionModel, cfg.Retrieval.ProductName)

	ragRetriever := retriever.NewRetriever(vectorStore, embeddingProvider, retriever.Config{
		ChatbotID:      cfg.Retrieval.ChatbotID,
		TopK:           cfg.Retrieval.TopK,
		FetchK:         cfg.Retrieval.FetchK,
		ScoreThreshold: cfg.Retrieval.ScoreThreshold,
	}, ragLogger)

	chainConfig := chain.Config{
		ProductName:       cfg.Retrieval.ProductName,
		ScreenshotAltText: cfg.Retrieval.ScreenshotAltText,
		EscalateThreshold: cfg.Retrieval.EscalateThreshold,
		Multimodal:        embeddingfactory.SupportsImages(embeddingProvider),
		HistoryOptions: history.Options{
			MaxTurns:      cfg.Retrieval.HistoryMaxTurns,
			RecencyWeight: cfg.Retrieval.RecencyWeight,
		},
	}
	answerChain := chain.NewChain(processor, selector, ragRetriever, describer, llmProvider, chainConfig, ragLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	memoryService := service.NewMemoryService(uowFactory)
	embedService := service.NewEmbedService(
		uowFactory,
		embeddingProvider,
		describer,
		wsHub,
		natsPub,
		cfg.Embed,
		sysLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		memoryService,
		embedService,
		answerChain,
		embeddingProvider,
		emailService,
		wsHub,
		natsPub,
		cfg,
		sysLogger,
	)

	var eventAuditService service.IEventAuditService
	if natsSub != nil {
		eventAuditService = service.NewEventAuditService(natsSub, wsLogger)
	}

	// 7. Controllers
	return &Container{
		ChatController: controller.NewChatController(chatService, embedService, wsHub),
		OpsController:  controller.NewOpsController(sysLogger),

		ConsumerService:   consumerService,
		EventAuditService: eventAuditService,
		PublisherService:  publisherService,

		WebSocketHub: wsHub,
	}
}

func embeddingAPIKey(cfg *config.Config) string {
	switch cfg.Ai.EmbeddingProvider {
	case "cohere":
		return cfg.Ai.CohereAPIKey
	case "huggingface":
		return cfg.Ai.HuggingFaceAPIKey
	case "jina":
		return cfg.Ai.JinaAPIKey
	default:
		return cfg.Ai.OpenAIAPIKey
	}
}

func llmAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "huggingface":
		return cfg.Ai.HuggingFaceAPIKey
	case "ollama":
		return ""
	default:
		return cfg.Ai.OpenAIAPIKey
	}
}

func llmBaseURL(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "huggingface":
		return cfg.Ai.HuggingFaceEndpoint
	case "ollama":
		return cfg.Ai.OllamaBaseURL
	default:
		return ""
	}
}
