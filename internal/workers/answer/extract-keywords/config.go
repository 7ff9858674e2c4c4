package extractkeywords

import "time"

type Config struct {
	Model      string
	Timeout    time.Duration
	MaxDomains int
	// TrustedDomains are offered to the model as the menu it picks from.
	TrustedDomains []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    8 * time.Second,
		MaxDomains: 8,
	}
}
