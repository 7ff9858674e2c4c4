package normalizeresponse

import "health-assistant/internal/models"

type Input struct {
	RawText string
	// Links is the list produced by context assembly, in citation order.
	// nil means no retrieval ran for this request.
	Links []string
	Mode  models.OutputMode
}

type Output struct {
	Payload models.AnswerPayload
	// Fallback is set when the apology replaced the model output.
	Fallback bool
	Refusal  bool
	// Repairs lists the fixes applied to a free-text answer.
	Repairs []string
}

// structuredAnswer mirrors the JSON object requested in STRUCTURED_JSON mode.
type structuredAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
