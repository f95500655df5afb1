package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMProvider   string // "gemini" or "openai"
	DatabaseURL   string
	HTTPPort      string
	LogLevel      string
	AdminToken    string
	ShopTokens    string // comma-separated
	ChunkWindow   int
	ChunkOverlap  int
	TopK          int
	WatchDir      string // empty disables the drop-folder watcher
	WatchNS       string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		LLMProvider:   getEnv("LLM_PROVIDER", "gemini"),
		DatabaseURL:   getEnv("DATABASE_URL", "msme_platform.db"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		AdminToken:    getEnv("ADMIN_TOKEN", ""),
		ShopTokens:    getEnv("SHOP_TOKENS", ""),
		ChunkWindow:   getEnvAsInt("CHUNK_WINDOW", 1000),
		ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 100),
		TopK:          getEnvAsInt("TOP_K", 3),
		WatchDir:      getEnv("WATCH_DIR", ""),
		WatchNS:       getEnv("WATCH_NAMESPACE", "shop"),
	}

	switch AppConfig.LLMProvider {
	case "gemini":
		if AppConfig.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required")
		}
	case "openai":
		if AppConfig.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER=openai")
		}
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (expected \"gemini\" or \"openai\")", AppConfig.LLMProvider)
	}

	if AppConfig.AdminToken == "" {
		log.Fatal("ADMIN_TOKEN environment variable is required")
	}

	if AppConfig.ShopTokens == "" {
		log.Fatal("SHOP_TOKENS environment variable is required")
	}

	if AppConfig.ChunkOverlap < 0 {
		log.Fatalf("CHUNK_OVERLAP (%d) must not be negative", AppConfig.ChunkOverlap)
	}

	if AppConfig.ChunkWindow <= AppConfig.ChunkOverlap {
		log.Fatalf("CHUNK_WINDOW (%d) must be greater than CHUNK_OVERLAP (%d)", AppConfig.ChunkWindow, AppConfig.ChunkOverlap)
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
