// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and
// command-line flags.
package config

import "time"

// Config holds runtime settings for the food scheduler server.
//
// Fields:
//   - EndpointAddr: bind address for the REST endpoint.
//   - DatabaseDSN: either a PostgreSQL DSN (pgx) or a path to a SQLite file.
//     The repository manager picks the driver from the "postgres://" prefix.
//   - SyncCodeTTL: validity window of a pairing code.
type Config struct {
	EndpointAddr string
	DatabaseDSN  string
	SyncCodeTTL  time.Duration
}

// LoadDefaults populates Config with development defaults: a local SQLite
// file so the server runs without external services.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = "foodscheduler.db"
	c.SyncCodeTTL = 10 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (.env supported) and finally
// command-line flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
