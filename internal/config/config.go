package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// OpenAI (used for Whisper word-level transcription)
	OpenAIKey    string
	WhisperModel string // OpenAI transcription model identifier

	// Stock media providers — any subset may be configured; the resolver
	// skips tiers whose key is missing
	SerperKey   string
	UnsplashKey string
	PexelsKey   string

	// Media resolution
	MediaCacheDir          string
	ProviderTimeoutSeconds int

	// Rendering
	TempDir         string
	OutputDir       string
	AssetsDir       string // music tracks + generated end cards live under here
	RenderWidth     int
	RenderHeight    int
	RenderFPS       int
	ProfileOverride string // optional YAML file overriding render profiles

	// Worker
	MaxConcurrentJobs  int
	TaskTimeoutMinutes int // hard deadline for one render task
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:                getEnv("API_PORT", "8080"),
		WorkerEnabled:          getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:          getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:     getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379"),
		OpenAIKey:              getEnv("OPENAI_API_KEY", ""),
		WhisperModel:           getEnv("WHISPER_MODEL", "whisper-1"),
		SerperKey:              getEnv("SERPER_API_KEY", ""),
		UnsplashKey:            getEnv("UNSPLASH_ACCESS_KEY", ""),
		PexelsKey:              getEnv("PEXELS_API_KEY", ""),
		MediaCacheDir:          getEnv("MEDIA_CACHE_DIR", "data/media"),
		ProviderTimeoutSeconds: getEnvInt("PROVIDER_TIMEOUT_SECONDS", 15),
		TempDir:                getEnv("RENDER_TEMP_DIR", "/tmp/aivideogen"),
		OutputDir:              getEnv("VIDEO_OUTPUT_DIR", "data/videos"),
		AssetsDir:              getEnv("ASSETS_DIR", "assets"),
		RenderWidth:            getEnvInt("RENDER_WIDTH", 1080),
		RenderHeight:           getEnvInt("RENDER_HEIGHT", 1920),
		RenderFPS:              getEnvInt("RENDER_FPS", 30),
		ProfileOverride:        getEnv("RENDER_PROFILE_FILE", ""),
		MaxConcurrentJobs:      getEnvInt("MAX_CONCURRENT_JOBS", 2),
		TaskTimeoutMinutes:     getEnvInt("TASK_TIMEOUT_MINUTES", 30),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for word-level transcription")
	}

	if cfg.RenderWidth <= 0 || cfg.RenderHeight <= 0 {
		return nil, fmt.Errorf("RENDER_WIDTH and RENDER_HEIGHT must be positive")
	}

	if cfg.RenderFPS <= 0 {
		return nil, fmt.Errorf("RENDER_FPS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
