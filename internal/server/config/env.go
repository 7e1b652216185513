package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the environment. A .env file in
// the working directory is loaded first when present; a missing file is not
// an error.
//
// Recognized variables: ADDRESS, DATABASE_DSN, SYNC_CODE_TTL_MINUTES.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		cfg.EndpointAddr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("SYNC_CODE_TTL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			cfg.SyncCodeTTL = time.Duration(minutes) * time.Minute
		}
	}
}
