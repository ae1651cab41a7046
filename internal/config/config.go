package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`

	// API Configuration. An empty base URL falls back to the local
	// fixture server address, since a terminal process has no document
	// origin to resolve a relative base against.
	APIBaseURL   string `env:"PEOPLE_API_BASE_URL"`
	APITimeoutMS int    `env:"PEOPLE_API_TIMEOUT_MS" envDefault:"15000"`

	// Logging Configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// Fixture server Configuration
	MockAPIPort string `env:"MOCK_API_PORT" envDefault:"8780"`
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	// Load .env file if it exists. godotenv never overwrites variables
	// that are already set, so real environment wins.
	envLocations := []string{".env"}
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}
	for _, loc := range envLocations {
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "http://localhost:" + cfg.MockAPIPort
	}

	if cfg.LogFile == "" {
		cfg.LogFile = "~/.peoplecatalog/client.log"
	}

	return cfg, nil
}

// APITimeout returns the request timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMS) * time.Millisecond
}
