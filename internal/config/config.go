package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
	Embed     EmbedSessionConfig
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
	JWTSecret          string
	FeedbackAlertEmail string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

// AIConfig selects the embedding and chat providers. EmbeddingDimensions must
// match what the configured provider actually returns; the factory verifies it
// on first use.
type AIConfig struct {
	EmbeddingProvider    string // "openai", "cohere", "huggingface", "jina"
	EmbeddingModel       string
	EmbeddingDimensions  int
	OpenAIAPIKey         string
	CohereAPIKey         string
	HuggingFaceAPIKey    string
	JinaAPIKey           string
	LLMProvider          string // "openai", "huggingface", "ollama"
	LLMModel             string
	VisionModel          string
	OllamaBaseURL        string
	HuggingFaceEndpoint  string
}

type RetrievalConfig struct {
	ChatbotID          string
	ProductName        string
	ScreenshotAltText  string
	TopK               int
	FetchK             int
	ScoreThreshold     float64
	EscalateThreshold  float64
	StreamTokenDelayMs int
	HistoryMaxTurns    int
	RecencyWeight      float64
}

type EmbedSessionConfig struct {
	Keyword    string
	SessionTTL time.Duration
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
			JWTSecret:          getEnv("JWT_SECRET", ""),
			FeedbackAlertEmail: getEnv("FEEDBACK_ALERT_EMAIL", ""),
			IngestTopic:        getEnv("EMBED_KNOWLEDGE_DOCUMENT_TOPIC_NAME", "EMBED_KNOWLEDGE_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Support Chatbot"),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 3072),
			OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
			CohereAPIKey:        getEnv("COHERE_API_KEY", ""),
			HuggingFaceAPIKey:   getEnv("HUGGINGFACE_API_KEY", ""),
			JinaAPIKey:          getEnv("JINA_API_KEY", ""),
			LLMProvider:         getEnv("LLM_PROVIDER", "openai"),
			LLMModel:            getEnv("LLM_MODEL", "gpt-4o"),
			VisionModel:         getEnv("VISION_MODEL", "gpt-4o"),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceEndpoint: getEnv("HUGGINGFACE_ENDPOINT", "https://api-inference.huggingface.co"),
		},
		Retrieval: RetrievalConfig{
			ChatbotID:          getEnv("CHATBOT_ID", "default"),
			ProductName:        getEnv("PRODUCT_NAME", "the product"),
			ScreenshotAltText:  getEnv("SCREENSHOT_ALT_TEXT", "Product screenshot"),
			TopK:               getEnvAsInt("RETRIEVAL_TOP_K", 8),
			FetchK:             getEnvAsInt("RETRIEVAL_FETCH_K", 15),
			ScoreThreshold:     getEnvAsFloat("RETRIEVAL_SCORE_THRESHOLD", 0.35),
			EscalateThreshold:  getEnvAsFloat("VISION_ESCALATE_THRESHOLD", 0.53),
			StreamTokenDelayMs: getEnvAsInt("STREAM_TOKEN_DELAY_MS", 30),
			HistoryMaxTurns:    getEnvAsInt("HISTORY_MAX_TURNS", 3),
			RecencyWeight:      getEnvAsFloat("HISTORY_RECENCY_WEIGHT", 0.7),
		},
		Embed: EmbedSessionConfig{
			Keyword:    getEnv("EMBED_SESSION_KEYWORD", "embed-4831-embed-4831"),
			SessionTTL: time.Duration(getEnvAsInt("EMBED_SESSION_TTL_HOURS", 24)) * time.Hour,
		},
	}
}

// CorsOrigins splits the configured allow-list.
func (c *Config) CorsOrigins() []string {
	return strings.Split(c.App.CorsAllowedOrigins, ",")
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
