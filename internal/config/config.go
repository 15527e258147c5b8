package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	// StorageBackend: "memory", "sqlite" or "firestore".
	StorageBackend string
	SQLitePath     string

	// CompletionBackend: "mock", "gemini" or "openai".
	CompletionBackend string

	GCPProjectID string
	GCPLocation  string
	ModelName    string
	OpenAIAPIKey string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads all env vars and builds the config. In local mode a .env file
// next to the binary is honored if present.
func Load() *Config {
	// Missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	modeStr := getEnv("INTERVIEW_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	defaultCompletion := "mock"
	if mode == ModeGCP {
		defaultCompletion = "gemini"
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("INTERVIEW_PORT", "8080"),

		StorageBackend: getEnv("INTERVIEW_STORAGE_BACKEND", "memory"),
		SQLitePath:     getEnv("INTERVIEW_SQLITE_PATH", "interviews.db"),

		CompletionBackend: getEnv("INTERVIEW_COMPLETION_BACKEND", defaultCompletion),

		GCPProjectID: getEnv("INTERVIEW_GCP_PROJECT", ""),
		GCPLocation:  getEnv("INTERVIEW_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("INTERVIEW_MODEL_NAME", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}

	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("INTERVIEW_GCP_PROJECT must be set in gcp mode")
	}
	if cfg.CompletionBackend == "openai" && cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY must be set for the openai completion backend")
	}

	return cfg
}
