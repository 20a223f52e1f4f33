package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ThreadStoreKind selects the conversation state backend at startup.
// There is no runtime re-selection; an unknown value is a startup error.
type ThreadStoreKind string

const (
	ThreadStoreMemory ThreadStoreKind = "memory"
	ThreadStoreSQLite ThreadStoreKind = "sqlite"
	ThreadStoreRedis  ThreadStoreKind = "redis"
)

type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	DatabaseURL      string
	ThreadStore      ThreadStoreKind
	ThreadDatabase   string
	RedisAddr        string
	HTTPPort         string
	LogLevel         string
	JWTSecret        string
	JWTRefreshSecret string
	AccessTTLMinutes int
	RefreshTTLDays   int
	GatewayBaseURL   string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		DatabaseURL:      getEnv("DATABASE_URL", "gateready.db"),
		ThreadStore:      ThreadStoreKind(getEnv("THREAD_STORE", string(ThreadStoreSQLite))),
		ThreadDatabase:   getEnv("THREAD_DATABASE_URL", "gateready_threads.db"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", ""),
		AccessTTLMinutes: getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTTLDays:   getEnvAsInt("REFRESH_TOKEN_TTL_DAYS", 7),
	}
	AppConfig.GatewayBaseURL = getEnv("GATEWAY_BASE_URL", fmt.Sprintf("http://127.0.0.1:%s", AppConfig.HTTPPort))

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	if AppConfig.JWTRefreshSecret == "" {
		log.Fatal("JWT_REFRESH_SECRET environment variable is required")
	}
	if AppConfig.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY not set; LLM features disabled, deterministic fallbacks only")
	}

	switch AppConfig.ThreadStore {
	case ThreadStoreMemory, ThreadStoreSQLite, ThreadStoreRedis:
	default:
		log.Fatalf("Unknown THREAD_STORE %q (expected memory, sqlite or redis)", AppConfig.ThreadStore)
	}
}

func getEnv(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
