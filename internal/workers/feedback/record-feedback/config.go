package recordfeedback

import "time"

type Config struct {
	Table             string
	CountersKey       string
	InsertTimeout     time.Duration
	MaxFeedbackLength int
}

func LoadConfig() *Config {
	return &Config{
		Table:             "feedback",
		CountersKey:       "feedback:ratings",
		InsertTimeout:     5 * time.Second,
		MaxFeedbackLength: 2000,
	}
}
