package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the full runtime configuration, loaded from environment
// variables with an optional .env file on top.
type Config struct {
	Server   ServerConfig
	Slack    SlackConfig
	NewRelic NewRelicConfig
	Storage  StorageConfig
	Debug    bool
}

type ServerConfig struct {
	Host string
	Port int
}

type SlackConfig struct {
	// BotToken authenticates calls to the Slack Web API (views.publish etc).
	BotToken string
	// SigningSecret verifies inbound request signatures. When empty,
	// verification is skipped; only do that in local development.
	SigningSecret string
}

type NewRelicConfig struct {
	// RestBaseURL and InsightsBaseURL exist so tests can point the clients
	// at local servers. Production values are the defaults.
	RestBaseURL     string
	InsightsBaseURL string
}

type StorageConfig struct {
	DataDir string
	// HistoryRetentionDays prunes query-history files untouched for this
	// many days. Zero disables the sweep.
	HistoryRetentionDays int
}

func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", ""),
			Port: getEnvInt("SERVER_PORT", 3000),
		},
		Slack: SlackConfig{
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		},
		NewRelic: NewRelicConfig{
			RestBaseURL:     getEnv("NEW_RELIC_API_BASE", "https://api.newrelic.com/v2"),
			InsightsBaseURL: getEnv("NEW_RELIC_INSIGHTS_BASE", "https://insights-api.newrelic.com/v1"),
		},
		Storage: StorageConfig{
			DataDir:              getEnv("DATA_DIR", "tmp"),
			HistoryRetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 0),
		},
		Debug: os.Getenv("DEBUG") == "1",
	}

	if cfg.Slack.BotToken == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
