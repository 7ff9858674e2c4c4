package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
llm:
  api_key: test-gemini-key
search:
  api_key: test-serper-key
database:
  postgres:
    host: localhost
    database: health
    user: health
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "domain_rag", cfg.Pipeline.Strategy)
	assert.Equal(t, "system_instruction", cfg.Pipeline.PersonaDelivery)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, cfg.LLM.Model, cfg.LLM.ExtractionModel)
	assert.Equal(t, "serper", cfg.Search.Provider)
	assert.Equal(t, "https://google.serper.dev", cfg.Search.BaseURL)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "feedback:ratings", cfg.Feedback.CountersKey)
	assert.False(t, cfg.Database.Redis.Enabled())
	assert.Zero(t, cfg.Pipeline.MaxHistoryTurns, "history trimming is opt-in")
}

func TestLoadFromFile_KeepsHistoryLimit(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`pipeline:
  max_history_turns: 6
`))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Pipeline.MaxHistoryTurns)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("HEALTH_TEST_DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`    password: ${HEALTH_TEST_DB_PASSWORD}
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_EnvFallbacks(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := LoadFromFile(writeConfig(t, `
search:
  api_key: test-serper-key
database:
  postgres:
    host: localhost
    database: health
    user: health
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			LLM:    LLMConfig{APIKey: "k"},
			Search: SearchConfig{APIKey: "s"},
			Database: DatabaseConfig{
				Postgres: PostgresConfig{Host: "h", Database: "d", User: "u"},
			},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Pipeline.Strategy = "agentic" },
			wantErr: "pipeline.strategy",
		},
		{
			name:    "unknown persona delivery",
			mutate:  func(c *Config) { c.Pipeline.PersonaDelivery = "prepend" },
			wantErr: "pipeline.persona_delivery",
		},
		{
			name:    "missing llm key",
			mutate:  func(c *Config) { c.LLM.APIKey = "" },
			wantErr: "llm.api_key",
		},
		{
			name:    "serper without key",
			mutate:  func(c *Config) { c.Search.APIKey = "" },
			wantErr: "search.api_key",
		},
		{
			name: "completion strategy does not need search",
			mutate: func(c *Config) {
				c.Pipeline.Strategy = "completion"
				c.Search.APIKey = ""
			},
		},
		{
			name:    "elasticsearch without addresses",
			mutate:  func(c *Config) { c.Search.Provider = "elasticsearch" },
			wantErr: "database.elasticsearch.addresses",
		},
		{
			name:    "negative history limit",
			mutate:  func(c *Config) { c.Pipeline.MaxHistoryTurns = -2 },
			wantErr: "pipeline.max_history_turns",
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
