// Package config handles configuration for the client component,
// including defaults, JSON overlay and command-line flags.
package config

import (
	"os"
	"path/filepath"
)

// Config holds runtime settings for the food scheduler client.
//
// Fields:
//   - ServerBaseURL: base URL of the REST façade (e.g. "http://127.0.0.1:8080").
//   - DataDir: directory holding the on-device slots (meals blob, device id,
//     last-sync marker).
type Config struct {
	ServerBaseURL string
	DataDir       string
}

// LoadDefaults populates c with sensible defaults. The data directory lives
// under the user config dir when resolvable, falling back to the working
// directory.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	c.DataDir = filepath.Join(dir, "foodscheduler")
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
