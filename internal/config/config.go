// Package config loads process configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full runtime configuration.
type Config struct {
	// APIBaseURL is the base URL of the biometric authority.
	APIBaseURL string `env:"BIOACCESS_API_URL,   default=http://localhost:8001"`
	// StatePath is the bolt file holding the persisted session. Empty
	// means the default under the user config directory.
	StatePath string `env:"BIOACCESS_STATE_PATH"`
	// CameraDir, when set, points a directory-backed capture device at a
	// folder of image frames.
	CameraDir string `env:"BIOACCESS_CAMERA_DIR"`
	LogLevel  string `env:"BIOACCESS_LOG_LEVEL, default=info"`
	LogPretty bool   `env:"BIOACCESS_LOG_PRETTY, default=true"`

	Mock MockConfig
}

// MockConfig configures the bundled stand-in authority server.
type MockConfig struct {
	Addr      string `env:"BIOACCESS_MOCK_ADDR,   default=:8001"`
	JWTSecret string `env:"BIOACCESS_MOCK_SECRET, default=dev-only-secret"`
}

// Load reads configuration from the environment, filling defaults.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.StatePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving state path: %w", err)
		}
		cfg.StatePath = filepath.Join(dir, "bioaccess", "state.db")
	}
	return &cfg, nil
}
