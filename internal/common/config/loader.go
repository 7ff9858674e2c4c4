package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	validStrategies = map[string]bool{
		"completion":  true,
		"rag":         true,
		"keyword_rag": true,
		"domain_rag":  true,
	}
	validDeliveries = map[string]bool{
		"system_instruction": true,
		"legacy_turns":       true,
	}
	validOutputModes = map[string]bool{
		"":                    true,
		"structured_json":     true,
		"free_text_two_block": true,
	}
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on
// top and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile reads a single config file without environment merging.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setIfEmpty(&cfg.Search.APIKey, "SERPER_API_KEY")

	setIfEmpty(&cfg.Database.Postgres.Host, "DB_HOST")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Postgres.Database, "DB_NAME")
	setIfEmpty(&cfg.Database.Redis.Address, "REDIS_ADDRESS")
}

func setIfEmpty(field *string, envKey string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "health-assistant"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 45000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.BodyLimit == "" {
		cfg.Server.BodyLimit = "1M"
	}

	if cfg.Pipeline.Strategy == "" {
		cfg.Pipeline.Strategy = "domain_rag"
	}
	if cfg.Pipeline.PersonaDelivery == "" {
		cfg.Pipeline.PersonaDelivery = "system_instruction"
	}
	if cfg.Pipeline.MaxDomains == 0 {
		cfg.Pipeline.MaxDomains = 8
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.ExtractionModel == "" {
		cfg.LLM.ExtractionModel = cfg.LLM.Model
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30000
	}
	if cfg.LLM.ExtractionTimeout == 0 {
		cfg.LLM.ExtractionTimeout = 8000
	}

	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "serper"
	}
	if cfg.Search.BaseURL == "" && cfg.Search.Provider == "serper" {
		cfg.Search.BaseURL = "https://google.serper.dev"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 5000
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.Index == "" {
		cfg.Search.Index = "health_articles"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.ConnectTimeout == 0 {
		cfg.Database.Postgres.ConnectTimeout = 5000
	}
	if cfg.Database.Redis.Timeout == 0 {
		cfg.Database.Redis.Timeout = 2000
	}

	if cfg.Feedback.Table == "" {
		cfg.Feedback.Table = "feedback"
	}
	if cfg.Feedback.CountersKey == "" {
		cfg.Feedback.CountersKey = "feedback:ratings"
	}
	if cfg.Feedback.InsertTimeout == 0 {
		cfg.Feedback.InsertTimeout = 5000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

func validateConfig(cfg *Config) error {
	if !validStrategies[cfg.Pipeline.Strategy] {
		return fmt.Errorf("pipeline.strategy %q is not supported", cfg.Pipeline.Strategy)
	}
	if !validDeliveries[cfg.Pipeline.PersonaDelivery] {
		return fmt.Errorf("pipeline.persona_delivery %q is not supported", cfg.Pipeline.PersonaDelivery)
	}
	if !validOutputModes[strings.ToLower(cfg.Pipeline.OutputMode)] {
		return fmt.Errorf("pipeline.output_mode %q is not supported", cfg.Pipeline.OutputMode)
	}

	if cfg.Pipeline.MaxHistoryTurns < 0 {
		return fmt.Errorf("pipeline.max_history_turns must not be negative")
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}

	if cfg.Pipeline.Strategy != "completion" {
		switch cfg.Search.Provider {
		case "serper":
			if cfg.Search.APIKey == "" {
				return fmt.Errorf("search.api_key is required for the serper provider")
			}
		case "elasticsearch":
			if len(cfg.Database.Elasticsearch.Addresses) == 0 {
				return fmt.Errorf("database.elasticsearch.addresses is required for the elasticsearch provider")
			}
		default:
			return fmt.Errorf("search.provider %q is not supported", cfg.Search.Provider)
		}
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
