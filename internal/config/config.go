// Package config loads the process configuration from the environment,
// with optional .env support for development shells.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// S3 holds the optional S3-compatible backup target.
type S3 struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config is everything cmd/serenity needs to assemble the process.
type Config struct {
	Port      string
	DBPath    string
	DataDir   string // fallback store + legacy flat keys + local backups
	LogLevel  string
	LogFormat string

	// Default fitness lookback window when no preference is stored.
	ScoreTimeframe int

	Backup S3

	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present; real environment variables win.
func Load() Config {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:           envOr("SERENITY_PORT", "4747"),
		DBPath:         envOr("SERENITY_DB_PATH", "serenity.db"),
		DataDir:        envOr("SERENITY_DATA_DIR", "serenity-data"),
		LogLevel:       envOr("SERENITY_LOG_LEVEL", "info"),
		LogFormat:      envOr("SERENITY_LOG_FORMAT", "text"),
		ScoreTimeframe: envIntOr("SERENITY_SCORE_TIMEFRAME", 30),
		Backup: S3{
			Endpoint:  os.Getenv("SERENITY_S3_ENDPOINT"),
			Bucket:    os.Getenv("SERENITY_S3_BUCKET"),
			Region:    envOr("SERENITY_S3_REGION", "auto"),
			AccessKey: os.Getenv("SERENITY_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SERENITY_S3_SECRET_KEY"),
		},
		VAPIDPublicKey:  os.Getenv("SERENITY_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("SERENITY_VAPID_PRIVATE_KEY"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
