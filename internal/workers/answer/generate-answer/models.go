package generateanswer

import "health-assistant/internal/models"

type GenerationRequest struct {
	Persona  Persona
	History  []models.Turn
	UserTurn string
	Mode     models.OutputMode
}
