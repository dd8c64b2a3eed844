package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Events  EventsConfig
	Gemini  GeminiConfig
	Auth    AuthConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SocketLogFilePath  string
	CorsAllowedOrigins string
	FrontendURL        string
}

type StorageConfig struct {
	Driver       string // "memory", "redis" or "postgres"
	RedisURL     string
	Connection   string
	WorkspaceTTL time.Duration
}

type EventsConfig struct {
	Bus     string // "gochannel" or "nats"
	NatsURL string
	// SocketCluster fans websocket frames out to other instances through Redis.
	SocketCluster bool
}

type GeminiConfig struct {
	APIKey        string
	BaseURL       string
	AnalysisModel string
	ChatModel     string
	TTSModel      string
	Voice         string
	Timeout       time.Duration
	RPM           int
	MaxRetries    int
	RetryBase     time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	ClientTokenTTL     time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SocketLogFilePath:  getEnv("SOCKET_LOG_FILE_PATH", "logs/socket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Storage: StorageConfig{
			Driver:       getEnv("STORAGE_DRIVER", "memory"),
			RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			WorkspaceTTL: time.Duration(getEnvAsInt("WORKSPACE_TTL_MINUTES", 60)) * time.Minute,
		},
		Events: EventsConfig{
			Bus:           getEnv("EVENT_BUS", "gochannel"),
			NatsURL:       getEnv("NATS_URL", "nats://localhost:4222"),
			SocketCluster: getEnvAsBool("SOCKET_CLUSTER_ENABLED", false),
		},
		Gemini: GeminiConfig{
			APIKey:        getEnv("GOOGLE_GEMINI_API_KEY", ""),
			BaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			AnalysisModel: getEnv("GEMINI_ANALYSIS_MODEL", "gemini-2.5-flash"),
			ChatModel:     getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
			TTSModel:      getEnv("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
			Voice:         getEnv("GEMINI_TTS_VOICE", "Kore"),
			Timeout:       time.Duration(getEnvAsInt("GEMINI_TIMEOUT_SECONDS", 90)) * time.Second,
			RPM:           getEnvAsInt("GEMINI_RPM", 60),
			MaxRetries:    getEnvAsInt("GEMINI_MAX_RETRIES", 3),
			RetryBase:     time.Duration(getEnvAsFloat("GEMINI_RETRY_BASE_SECONDS", 1) * float64(time.Second)),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			ClientTokenTTL:     time.Duration(getEnvAsInt("CLIENT_TOKEN_TTL_HOURS", 24*30)) * time.Hour,
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
