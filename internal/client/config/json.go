package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/foodscheduler/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerBaseURL string `json:"server_base_url"`
	DataDir       string `json:"data_dir"`
}

// parseJson overlays Config with values loaded from a JSON file resolved
// via the -c/-config flags. When no path is given nothing is loaded.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
}
