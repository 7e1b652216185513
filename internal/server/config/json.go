package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Duration
// values are given as integer minutes.
type JsonConfig struct {
	EndpointAddr       string `json:"endpoint_addr"`
	DatabaseDSN        string `json:"database_dsn"`
	SyncCodeTTLMinutes int    `json:"sync_code_ttl_minutes"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path is resolved from the -c/-config flags; when absent, nothing is
// loaded. Read or unmarshal errors panic, matching the flag layer.
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

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.SyncCodeTTLMinutes > 0 {
		cfg.SyncCodeTTL = time.Duration(jc.SyncCodeTTLMinutes) * time.Minute
	}
}
