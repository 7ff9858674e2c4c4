package models

import "encoding/json"

type OutputMode string

const (
	OutputModeStructuredJSON   OutputMode = "STRUCTURED_JSON"
	OutputModeFreeTextTwoBlock OutputMode = "FREE_TEXT_TWO_BLOCK"
)

// AnswerPayload is what every /chat response carries. Sources is never
// serialized as null.
type AnswerPayload struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func NewAnswerPayload(answer string, sources []string) AnswerPayload {
	out := make([]string, len(sources))
	copy(out, sources)
	return AnswerPayload{Answer: answer, Sources: out}
}

func (p AnswerPayload) MarshalJSON() ([]byte, error) {
	type alias AnswerPayload
	if p.Sources == nil {
		p.Sources = []string{}
	}
	return json.Marshal(alias(p))
}
