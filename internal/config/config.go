package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ignatij/goreport/internal/log"
)

// Settings holds the process-wide configuration resolved once at start.
// Missing optional keys degrade the related feature rather than failing.
type Settings struct {
	DatabaseURL string
	OllamaHost  string
	LLMModel    string
	LLMTimeout  time.Duration
	HTTPPort    string
}

// Load reads .env if present, then the environment.
func Load() Settings {
	if err := godotenv.Load(); err != nil {
		log.GetLogger().Debugf("No .env file found or failed to load: %v. Proceeding with environment variables.", err)
	}

	s := Settings{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		OllamaHost:  getEnv("OLLAMA_HOST", "http://localhost:11434"),
		LLMModel:    getEnv("LLM_MODEL", "phi:latest"),
		LLMTimeout:  60 * time.Second,
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
	}
	if raw := os.Getenv("LLM_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			s.LLMTimeout = d
		} else {
			log.GetLogger().Warnf("Invalid LLM_TIMEOUT %q: %v. Using default.", raw, err)
		}
	}
	return s
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
