// Package config loads runtime configuration: an optional YAML file for
// paths, URLs and intervals, and environment variables for secrets.
// Secrets are fail-fast — a command that needs the Telegram token exits at
// startup when it is missing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration.
type Config struct {
	App    AppConfig    `yaml:"app"`
	Scrape ScrapeConfig `yaml:"scrape"`
}

// AppConfig covers storage locations and the query-layer knobs.
type AppConfig struct {
	DataDir      string        `yaml:"data_dir"`
	UsersFile    string        `yaml:"users_file"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	MessageLimit int           `yaml:"message_limit"`
}

// ScrapeConfig covers the listing page fetch and the update schedule.
type ScrapeConfig struct {
	URL       string        `yaml:"url"`
	Interval  time.Duration `yaml:"interval"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// Load reads the YAML file at path when it exists and fills in defaults for
// everything left unset. A missing file is not an error — the defaults
// describe the standard deployment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.App.DataDir == "" {
		c.App.DataDir = "./data"
	}
	if c.App.UsersFile == "" {
		c.App.UsersFile = filepath.Join(c.App.DataDir, "usuarios_bot.json")
	}
	if c.App.CacheTTL == 0 {
		c.App.CacheTTL = 60 * time.Second
	}
	if c.App.MessageLimit == 0 {
		c.App.MessageLimit = 4000
	}
	if c.Scrape.URL == "" {
		c.Scrape.URL = "https://www.ipea.gov.br/portal/bolsas-de-pesquisa"
	}
	if c.Scrape.Interval == 0 {
		c.Scrape.Interval = 6 * time.Hour
	}
	if c.Scrape.Timeout == 0 {
		c.Scrape.Timeout = 120 * time.Second
	}
	if c.Scrape.UserAgent == "" {
		c.Scrape.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
}

// TelegramToken reads TELEGRAM_TOKEN from the environment. Required by the
// bot command.
func TelegramToken() (string, error) {
	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		return "", fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return token, nil
}

// RedisURL reads the optional REDIS_URL. When set, subscriptions live in
// Redis instead of the JSON file.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}
