package config

import (
	"encoding/json"
	"os"

	"github.com/avolkov/paperstand/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerBaseURL string `json:"server_base_url"`
	StateDir      string `json:"state_dir"`
}

// parseJson overlays Config with values loaded from a JSON file named via
// the -c or -config flags. Absent flags mean no JSON is loaded. Empty JSON
// fields keep the earlier value.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.StateDir != "" {
		cfg.StateDir = jc.StateDir
	}
}
