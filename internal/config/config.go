package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Log    LogConfig
	Store  StoreConfig
	AI     AIConfig
	Export ExportConfig
	Notion NotionConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// StoreConfig selects and configures the transaction store backend.
type StoreConfig struct {
	Backend  string // memory | bigquery | postgres
	BigQuery BigQueryConfig
	Postgres PostgresConfig
}

// BigQueryConfig holds BigQuery backend settings.
type BigQueryConfig struct {
	ProjectID string
	Dataset   string
}

// PostgresConfig holds Postgres backend settings.
type PostgresConfig struct {
	URL string
}

// AIConfig holds inference gateway settings.
type AIConfig struct {
	APIKey  string
	Model   string
	Retries int
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	Bucket string
}

// NotionConfig holds Notion sync settings.
type NotionConfig struct {
	Token      string
	DatabaseID string
}

// Load reads configuration from file and env. Env var overrides use prefix UANGKU_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("log.level", "info")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.bigquery.projectid", "")
	v.SetDefault("store.bigquery.dataset", "uangku")
	v.SetDefault("store.postgres.url", "")
	v.SetDefault("ai.apikey", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.retries", 0)
	v.SetDefault("export.bucket", "")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.databaseid", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("UANGKU_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "uangku"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("UANGKU")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// GEMINI_API_KEY is the conventional env var for the genai SDK; honor it
	// when no key was configured explicitly.
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return c, nil
}
