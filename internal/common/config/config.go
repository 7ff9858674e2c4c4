package config

import "fmt"

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Database DatabaseConfig `mapstructure:"database"`
	Feedback FeedbackConfig `mapstructure:"feedback"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	RequestTimeout  int      `mapstructure:"request_timeout"`  // milliseconds, whole /chat budget
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	BodyLimit       string   `mapstructure:"body_limit"`
}

type PipelineConfig struct {
	Strategy        string `mapstructure:"strategy"`         // completion | rag | keyword_rag | domain_rag
	OutputMode      string `mapstructure:"output_mode"`      // empty picks the strategy default
	PersonaDelivery string `mapstructure:"persona_delivery"` // system_instruction | legacy_turns
	MaxHistoryTurns int    `mapstructure:"max_history_turns"` // 0 sends the full history
	MaxDomains      int    `mapstructure:"max_domains"`
}

type LLMConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Model             string  `mapstructure:"model"`
	ExtractionModel   string  `mapstructure:"extraction_model"`
	Timeout           int     `mapstructure:"timeout"`            // milliseconds
	ExtractionTimeout int     `mapstructure:"extraction_timeout"` // milliseconds
	Temperature       float64 `mapstructure:"temperature"`
	MaxRetries        int     `mapstructure:"max_retries"`
}

type SearchConfig struct {
	Provider     string `mapstructure:"provider"` // serper | elasticsearch
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
	MaxResults   int    `mapstructure:"max_results"`
	Index        string `mapstructure:"index"`
	RegistryPath string `mapstructure:"registry_path"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // milliseconds
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// Enabled is false when no address is configured; rating counters are
// then skipped.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type FeedbackConfig struct {
	Table         string `mapstructure:"table"`
	CountersKey   string `mapstructure:"counters_key"`
	InsertTimeout int    `mapstructure:"insert_timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
