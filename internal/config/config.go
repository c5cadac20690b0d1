package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Triage   TriageConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	AuditTopic         string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type APIKeys struct {
	GoogleGemini string
	JWTSecret    string
}

type AIConfig struct {
	Provider          string
	OllamaBaseURL     string
	OllamaModel       string
	GeminiModel       string
	EmbeddingProvider string
	EmbeddingModel    string
}

// TriageConfig carries the tunables of the conversation pipeline.
type TriageConfig struct {
	ConfidenceThreshold   float64
	MaxClarificationLoops int
	MaxContextMessages    int
	RetrievalK            int
	ScoreThreshold        float64
	LLMTimeoutSeconds     int
	SearchTimeoutSeconds  int
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8080"),
			Environment:        getEnv("APP_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			AuditTopic:         getEnv("AUDIT_TOPIC", "TRIAGE_AUDIT"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "legal_triage"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GEMINI_API_KEY", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			Provider:          getEnv("AI_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_MODEL", "llama3.1:8b"),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Triage: TriageConfig{
			ConfidenceThreshold:   getEnvAsFloat("TRIAGE_CONFIDENCE_THRESHOLD", 0.7),
			MaxClarificationLoops: getEnvAsInt("TRIAGE_MAX_CLARIFICATIONS", 15),
			MaxContextMessages:    getEnvAsInt("TRIAGE_MAX_CONTEXT_MESSAGES", 10),
			RetrievalK:            getEnvAsInt("TRIAGE_RETRIEVAL_K", 5),
			ScoreThreshold:        getEnvAsFloat("TRIAGE_SCORE_THRESHOLD", 0.5),
			LLMTimeoutSeconds:     getEnvAsInt("TRIAGE_LLM_TIMEOUT_SECONDS", 60),
			SearchTimeoutSeconds:  getEnvAsInt("TRIAGE_SEARCH_TIMEOUT_SECONDS", 15),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
