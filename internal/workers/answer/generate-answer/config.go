package generateanswer

import "time"

type PersonaDelivery string

const (
	DeliverySystemInstruction PersonaDelivery = "system_instruction"
	// DeliveryLegacyTurns injects the persona as a fake first exchange.
	// Deprecated: kept for providers without system instructions.
	DeliveryLegacyTurns PersonaDelivery = "legacy_turns"
)

type Config struct {
	Model           string
	Timeout         time.Duration
	Temperature     *float32
	PersonaDelivery PersonaDelivery
	// MaxHistoryTurns caps the history sent to the model; 0 sends all of it.
	MaxHistoryTurns int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		PersonaDelivery: DeliverySystemInstruction,
	}
}
