package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	ServerURL      string
	CSRFToken      string
	LogLevel       string
	LogFormat      string
	LogFile        string
	TranscriptDir  string
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults. It loads a .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerURL:      getEnv("GUIDEE_SERVER_URL", "http://localhost:5000"),
		CSRFToken:      getEnv("GUIDEE_CSRF_TOKEN", ""),
		LogLevel:       getEnv("GUIDEE_LOG_LEVEL", "info"),
		LogFormat:      getEnv("GUIDEE_LOG_FORMAT", "json"),
		LogFile:        getEnv("GUIDEE_LOG_FILE", defaultLogFile()),
		TranscriptDir:  getEnv("GUIDEE_TRANSCRIPT_DIR", defaultTranscriptDir()),
		RequestTimeout: time.Duration(getEnvInt("GUIDEE_HTTP_TIMEOUT_SECONDS", 0)) * time.Second,
	}
}

func defaultTranscriptDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".guidee"
	}
	return filepath.Join(home, ".guidee", "transcripts")
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "guidee.log"
	}
	return filepath.Join(home, ".guidee", "guidee.log")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
