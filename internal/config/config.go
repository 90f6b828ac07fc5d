// Package config loads runtime configuration from config.yaml with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// MarketplaceConfig configures the surprise-bag marketplace client.
type MarketplaceConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
}

// EmailConfig configures the transactional email provider.
type EmailConfig struct {
	APIURL      string `yaml:"api_url"`
	APIKey      string `yaml:"api_key"`
	SenderName  string `yaml:"sender_name"`
	SenderEmail string `yaml:"sender_email"`
}

// Config holds all configuration knobs for the daemon.
type Config struct {
	Addr                string            `yaml:"addr"`
	DBPath              string            `yaml:"db_path"`
	ServerURL           string            `yaml:"server_url"`
	PollIntervalMinutes int               `yaml:"poll_interval_minutes"`
	CheckTimeoutSeconds int               `yaml:"check_timeout_seconds"`
	EncryptionKey       string            `yaml:"encryption_key"`
	Marketplace         MarketplaceConfig `yaml:"marketplace"`
	Email               EmailConfig       `yaml:"email"`
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMinutes) * time.Minute
}

// CheckTimeout returns the per-user check timeout as a duration.
func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.CheckTimeoutSeconds) * time.Second
}

// Load reads configuration from the given YAML file (optional — defaults are
// used when the file does not exist), then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:                ":8080",
		DBPath:              "tgtg_monitor.sqlite3",
		ServerURL:           "http://localhost:8080",
		PollIntervalMinutes: 5,
		CheckTimeoutSeconds: 60,
		Marketplace: MarketplaceConfig{
			BaseURL:   "https://apptoogoodtogo.com/api",
			UserAgent: "TGTG/24.11.0 Dalvik/2.1.0",
		},
		Email: EmailConfig{
			APIURL:     "https://api.brevo.com/v3/smtp/email",
			SenderName: "TooGoodToGo Terminal",
		},
	}

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	overrideFromEnv(cfg)

	if cfg.PollIntervalMinutes <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", cfg.PollIntervalMinutes)
	}
	if cfg.CheckTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("check timeout must be positive, got %d", cfg.CheckTimeoutSeconds)
	}

	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if url := os.Getenv("SERVER_URL"); url != "" {
		cfg.ServerURL = url
	}
	if minutes := os.Getenv("POLL_INTERVAL_MINUTES"); minutes != "" {
		if m, err := strconv.Atoi(minutes); err == nil {
			cfg.PollIntervalMinutes = m
		}
	}
	if seconds := os.Getenv("CHECK_TIMEOUT_SECONDS"); seconds != "" {
		if s, err := strconv.Atoi(seconds); err == nil {
			cfg.CheckTimeoutSeconds = s
		}
	}
	if key := os.Getenv("ENCRYPTION_KEY"); key != "" {
		cfg.EncryptionKey = key
	}
	if url := os.Getenv("MARKETPLACE_BASE_URL"); url != "" {
		cfg.Marketplace.BaseURL = url
	}
	if key := os.Getenv("SENDINBLUE_API_KEY"); key != "" {
		cfg.Email.APIKey = key
	}
	if sender := os.Getenv("EMAIL_SENDER"); sender != "" {
		cfg.Email.SenderEmail = sender
	}
	if name := os.Getenv("EMAIL_SENDER_NAME"); name != "" {
		cfg.Email.SenderName = name
	}
}
