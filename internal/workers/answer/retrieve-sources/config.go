package retrievesources

import "time"

type Config struct {
	Provider       string
	BaseURL        string
	APIKey         string
	Index          string
	Timeout        time.Duration
	MaxResults     int
	TrustedDomains []string
}

func LoadConfig() *Config {
	return &Config{
		Provider:   "serper",
		BaseURL:    "https://google.serper.dev",
		Timeout:    5 * time.Second,
		MaxResults: 5,
	}
}
