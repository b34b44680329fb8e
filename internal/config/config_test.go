package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("UANGKU_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("GEMINI_API_KEY", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Store.Backend != "memory" {
		t.Errorf("default store backend = %q, want memory", c.Store.Backend)
	}
	if c.AI.Model != "gemini-2.0-flash" {
		t.Errorf("default model = %q, want gemini-2.0-flash", c.AI.Model)
	}
	if c.AI.Retries != 0 {
		t.Errorf("default retries = %d, want 0", c.AI.Retries)
	}
	if c.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", c.Log.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("UANGKU_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("UANGKU_STORE_BACKEND", "postgres")
	t.Setenv("UANGKU_STORE_POSTGRES_URL", "postgres://localhost/uangku")
	t.Setenv("UANGKU_AI_MODEL", "gemini-2.5-pro")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Store.Backend != "postgres" {
		t.Errorf("store backend = %q, want postgres", c.Store.Backend)
	}
	if c.Store.Postgres.URL != "postgres://localhost/uangku" {
		t.Errorf("postgres url = %q", c.Store.Postgres.URL)
	}
	if c.AI.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q, want gemini-2.5-pro", c.AI.Model)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[store]\nbackend = \"bigquery\"\n\n[store.bigquery]\nprojectid = \"my-project\"\ndataset = \"finance\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UANGKU_CONFIG", path)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.Store.Backend != "bigquery" {
		t.Errorf("store backend = %q, want bigquery", c.Store.Backend)
	}
	if c.Store.BigQuery.ProjectID != "my-project" {
		t.Errorf("project id = %q, want my-project", c.Store.BigQuery.ProjectID)
	}
	if c.Store.BigQuery.Dataset != "finance" {
		t.Errorf("dataset = %q, want finance", c.Store.BigQuery.Dataset)
	}
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	t.Setenv("UANGKU_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("GEMINI_API_KEY", "from-env")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.AI.APIKey != "from-env" {
		t.Errorf("api key = %q, want from-env", c.AI.APIKey)
	}
}
