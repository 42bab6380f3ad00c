package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Mailbox credentials
	EmailAddress  string `env:"EMAIL_ADDRESS,required"`
	EmailPassword string `env:"EMAIL_PASSWORD,required"`

	// Notion integration
	NotionToken      string `env:"NOTION_TOKEN,required"`
	NotionDatabaseID string `env:"NOTION_DATABASE_ID,required"`
	NotionBaseURL    string `env:"NOTION_BASE_URL" envDefault:"https://api.notion.com"`

	// IMAP
	IMAPServer      string        `env:"IMAP_SERVER"` // e.g., imap.gmail.com:993; resolved from the address when empty
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"5m"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/inbox2notion.db"`
	LastRunPath  string `env:"LAST_RUN_PATH" envDefault:"./data/last_run.txt"`
	ConfigDir    string `env:"CONFIG_DIR" envDefault:"./config"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
	LogFile       string `env:"LOG_FILE" envDefault:"./logs/inbox2notion.log"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if !strings.Contains(cfg.EmailAddress, "@") {
		return nil, fmt.Errorf("EMAIL_ADDRESS %q is not an email address", cfg.EmailAddress)
	}
	if cfg.IMAPDialTimeout <= 0 {
		return nil, fmt.Errorf("IMAP_DIAL_TIMEOUT must be positive, got %s", cfg.IMAPDialTimeout)
	}

	return cfg, nil
}
