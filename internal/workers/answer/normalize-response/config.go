package normalizeresponse

import generateanswer "health-assistant/internal/workers/answer/generate-answer"

type Config struct {
	Persona generateanswer.Persona
	// RepairTwoBlock enables the structural check of free-text answers.
	RepairTwoBlock bool
	// MaxLoggedRawLength caps how much of a malformed output is logged.
	MaxLoggedRawLength int
}

func LoadConfig() *Config {
	return &Config{
		Persona:            generateanswer.DefaultPersona(),
		RepairTwoBlock:     true,
		MaxLoggedRawLength: 2000,
	}
}
