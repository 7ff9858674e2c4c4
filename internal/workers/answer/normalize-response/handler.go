package normalizeresponse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/metrics"
	"health-assistant/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

const Stage = "normalize-response"

const (
	RepairDanglingCitation  = "dangling_citation"
	RepairCitationInTrailer = "citation_in_disclaimer"
	RepairMissingDisclaimer = "missing_disclaimer"
)

var (
	codeFence      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
	citationMarker = regexp.MustCompile(`[ \t]?\[Fonte (\d+)\]`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

var answerSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"answer": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"sources": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required": []interface{}{"answer"},
}

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"stage": Stage,
		}),
	}
}

// Normalize turns raw model text into the external answer contract. It
// never fails; unusable output becomes the generic apology.
func (h *Handler) Normalize(input *Input) *Output {
	if input.Mode == models.OutputModeStructuredJSON {
		return h.normalizeStructured(input.RawText, input.Links)
	}
	return h.normalizeFreeText(input.RawText, input.Links)
}

// normalizeStructured takes the answer from the model's JSON. When
// retrieval ran, links replaces the model's own sources list so that the
// payload cites exactly the retrieved pages in rank order.
func (h *Handler) normalizeStructured(raw string, links []string) *Output {
	parsed, err := h.parseStructured(raw)
	if err != nil {
		return h.fallback(raw, apperrors.NewMalformedOutputError(err))
	}

	answer := strings.TrimSpace(parsed.Answer)
	if h.config.Persona.IsRefusal(answer) {
		return &Output{Payload: models.NewAnswerPayload(answer, nil), Refusal: true}
	}

	if links != nil {
		return &Output{Payload: models.NewAnswerPayload(answer, links)}
	}

	sources := make([]string, 0, len(parsed.Sources))
	for _, s := range parsed.Sources {
		if s = strings.TrimSpace(s); s != "" {
			sources = append(sources, s)
		}
	}
	return &Output{Payload: models.NewAnswerPayload(answer, sources)}
}

func (h *Handler) parseStructured(raw string) (*structuredAnswer, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("empty output")
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(answerSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("answer validation failed: %v", errs)
	}

	var parsed structuredAnswer
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return nil, fmt.Errorf("blank answer")
	}
	return &parsed, nil
}

func (h *Handler) normalizeFreeText(raw string, links []string) *Output {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return h.fallback(raw, apperrors.NewEmptyOutputError())
	}

	if h.config.Persona.IsRefusal(answer) {
		return &Output{Payload: models.NewAnswerPayload(answer, nil), Refusal: true}
	}

	var repairs []string
	if h.config.RepairTwoBlock {
		answer, repairs = RepairTwoBlock(answer, len(links), h.config.Persona.Disclaimer)
		for _, r := range repairs {
			metrics.StageFallbacks.WithLabelValues(Stage, r).Inc()
		}
		if len(repairs) > 0 {
			h.logger.Warn("free-text answer repaired", map[string]interface{}{
				"repairs": repairs,
			})
		}
	}

	return &Output{
		Payload: models.NewAnswerPayload(answer, links),
		Repairs: repairs,
	}
}

func (h *Handler) fallback(raw string, cause *apperrors.StandardError) *Output {
	metrics.StageFallbacks.WithLabelValues(Stage, string(cause.Code)).Inc()

	h.logger.Error("model output replaced with apology", map[string]interface{}{
		"errorCode": string(cause.Code),
		"details":   cause.Details,
		"rawText":   truncateRunes(raw, h.config.MaxLoggedRawLength),
	})

	return &Output{
		Payload:  models.NewAnswerPayload(apperrors.GenericApology, nil),
		Fallback: true,
	}
}

// truncateRunes cuts s to at most limit runes; limit <= 0 keeps it whole.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func stripCodeFence(text string) string {
	if m := codeFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// RepairTwoBlock enforces the answer-then-disclaimer layout: citation
// markers must point at one of the n sources and may not appear in the
// closing paragraph, which must exist.
func RepairTwoBlock(answer string, n int, disclaimer string) (string, []string) {
	var repairs []string

	cleaned := citationMarker.ReplaceAllStringFunc(answer, func(m string) string {
		sub := citationMarker.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 1 || idx > n {
			return ""
		}
		return m
	})
	if cleaned != answer {
		repairs = append(repairs, RepairDanglingCitation)
		answer = cleaned
	}

	locs := paragraphBreak.FindAllStringIndex(answer, -1)
	if len(locs) == 0 {
		if disclaimer != "" {
			answer = answer + "\n\n" + disclaimer
			repairs = append(repairs, RepairMissingDisclaimer)
		}
		return answer, repairs
	}

	last := locs[len(locs)-1]
	body, trailer := answer[:last[1]], answer[last[1]:]
	if stripped := citationMarker.ReplaceAllString(trailer, ""); stripped != trailer {
		answer = body + stripped
		repairs = append(repairs, RepairCitationInTrailer)
	}
	return answer, repairs
}
