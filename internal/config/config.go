// Package config loads the demo host's own bootstrap configuration
// (signaling URL, token) the same way the teacher does: optional .env
// file via godotenv, required values from the environment. Config
// *shape* for the engine itself (domain.EngineConfig,
// domain.ConnectOptions, domain.RoomOptions) lives in internal/domain —
// loading is a host concern, shape is an engine concern, the same split
// the teacher draws between internal/config and internal/domain.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the demo host's bootstrap configuration.
type Config struct {
	URL   string
	Token string
}

// Load reads configuration from a .env file (if present) and environment
// variables. Environment variables take precedence over .env values.
func Load() (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	url := os.Getenv("SESSION_ENGINE_URL")
	if url == "" {
		return nil, fmt.Errorf("SESSION_ENGINE_URL environment variable is required")
	}

	token := os.Getenv("SESSION_ENGINE_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("SESSION_ENGINE_TOKEN environment variable is required")
	}

	return &Config{URL: url, Token: token}, nil
}
