package config

import "strings"

// Config holds runtime settings for the Paperstand CLI.
type Config struct {
	// ServerBaseURL is the http(s) base URL of the backend API.
	ServerBaseURL string
	// StateDir is where the CLI keeps its saved session.
	StateDir string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.StateDir = ".paperstand"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// WSURL derives the realtime endpoint from the API base URL.
func (c *Config) WSURL() string {
	base := strings.TrimSuffix(c.ServerBaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws"
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws"
	default:
		return "ws://" + base + "/ws"
	}
}
