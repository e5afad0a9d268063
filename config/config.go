// Package config loads process configuration from the environment (with
// optional .env file) and the engine settings document from disk.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds process-level settings: where to listen, where state
// lives, how much to accept. Engine tunables live in the settings
// document, not here.
type AppConfig struct {
	Addr           string
	DatabasePath   string
	SettingsPath   string
	LogLevel       string
	MaxUploadBytes int64
}

// Load reads the environment, falling back to a .env file when present.
func Load() *AppConfig {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: .env file could not be read: %v", err)
		}
	}

	return &AppConfig{
		Addr:           getEnv("ADDR", ":8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./surety.db"),
		SettingsPath:   getEnv("SETTINGS_PATH", "./settings.json"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_SIZE_BYTES", 50*1024*1024),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("invalid integer for %s (%q), using default %d", key, v, fallback)
		return fallback
	}
	return n
}
