package extractkeywords

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/llm"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/metrics"
	"health-assistant/internal/models"
	"health-assistant/pkg/registry"
)

const (
	Stage = "extract-keywords"

	// outOfScopeMarker is what the model is told to answer for questions
	// that are not about health or wellness.
	outOfScopeMarker = "NONE"
)

var (
	ErrExtractionTimeout = errors.New("EXTRACTION_TIMEOUT")
	ErrExtractionFailed  = errors.New("EXTRACTION_FAILED")
	ErrEmptyExtraction   = errors.New("EXTRACTION_EMPTY")
)

const keywordPrompt = `Extraia as principais palavras-chave da seguinte pergunta sobre saúde e bem-estar.
Responda apenas com uma lista separada por vírgulas.
Se a pergunta não for sobre saúde ou bem-estar, responda apenas %s.
Pergunta: "%s"`

const domainPrompt = `Escolha, entre os sites confiáveis abaixo, os mais relevantes para responder à seguinte pergunta sobre saúde e bem-estar.
Responda apenas com os domínios escolhidos, separados por vírgulas, no máximo %d.
Se a pergunta não for sobre saúde ou bem-estar, responda apenas %s.
Sites confiáveis: %s
Pergunta: "%s"`

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

type Handler struct {
	config *Config
	client llm.Client
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{
			"stage": Stage,
		}),
	}
}

// ExtractKeywords never fails: any problem yields an empty result and the
// caller falls back to the raw question.
func (h *Handler) ExtractKeywords(ctx context.Context, input *Input) *KeywordsOutput {
	raw, err := h.complete(ctx, fmt.Sprintf(keywordPrompt, outOfScopeMarker, input.Question))
	if err != nil {
		return &KeywordsOutput{Err: h.fallback("keywords", err)}
	}
	if isOutOfScope(raw) {
		h.logger.Info("question classified as out of scope", nil)
		return &KeywordsOutput{OutOfScope: true}
	}

	tokens := parseList(raw)
	if len(tokens) == 0 {
		return &KeywordsOutput{Err: h.fallback("keywords", ErrEmptyExtraction)}
	}

	keywords := strings.Join(tokens, ", ")
	h.logger.Info("keywords extracted", map[string]interface{}{
		"keywords": keywords,
	})
	return &KeywordsOutput{Keywords: keywords}
}

// SuggestDomains asks the model for the trusted sites most relevant to the
// question. Suggestions that do not look like a host are dropped; an empty
// result means "use the whole trusted set".
func (h *Handler) SuggestDomains(ctx context.Context, input *Input) *DomainsOutput {
	prompt := fmt.Sprintf(domainPrompt, h.config.MaxDomains, outOfScopeMarker,
		strings.Join(h.config.TrustedDomains, ", "), input.Question)

	raw, err := h.complete(ctx, prompt)
	if err != nil {
		return &DomainsOutput{Domains: []string{}, Err: h.fallback("domains", err)}
	}
	if isOutOfScope(raw) {
		h.logger.Info("question classified as out of scope", nil)
		return &DomainsOutput{Domains: []string{}, OutOfScope: true}
	}

	domains := h.filterDomains(parseList(raw))
	if len(domains) == 0 {
		return &DomainsOutput{Domains: []string{}, Err: h.fallback("domains", ErrEmptyExtraction)}
	}

	h.logger.Info("domains suggested", map[string]interface{}{
		"domains": domains,
	})
	return &DomainsOutput{Domains: domains}
}

func (h *Handler) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	resp, err := h.client.Generate(ctx, &llm.Request{
		Model:       h.config.Model,
		Turns:       []models.Turn{{Role: models.RoleUser, Text: prompt}},
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) || ctx.Err() != nil {
			return "", ErrExtractionTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if resp.Blocked() {
		return "", fmt.Errorf("%w: blocked: %s", ErrExtractionFailed, resp.BlockReason)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyExtraction
	}
	return text, nil
}

func (h *Handler) fallback(kind string, err error) *apperrors.StandardError {
	reason := "failed"
	switch {
	case errors.Is(err, ErrExtractionTimeout):
		reason = "timeout"
	case errors.Is(err, ErrEmptyExtraction):
		reason = "empty"
	}
	metrics.StageFallbacks.WithLabelValues(Stage, reason).Inc()

	stdErr := apperrors.NewExtractionFailureError(err).
		WithMetadata("kind", kind).
		WithMetadata("reason", reason)
	if h.config.Model != "" {
		stdErr.WithMetadata("model", h.config.Model)
	}

	h.logger.Warn("extraction failed, falling back to raw question", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"kind":      kind,
		"reason":    reason,
		"error":     err.Error(),
	})
	return stdErr
}

// filterDomains normalizes suggestions, drops invalid or repeated ones and
// caps the list. When a trusted set is configured only its members (or
// their subpaths) are kept.
func (h *Handler) filterDomains(candidates []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(candidates))

	for _, c := range candidates {
		d := registry.NormalizeDomain(c)
		if !registry.IsValidDomain(d) || seen[d] {
			continue
		}
		if len(h.config.TrustedDomains) > 0 && !isTrusted(d, h.config.TrustedDomains) {
			continue
		}
		seen[d] = true
		out = append(out, d)
		if h.config.MaxDomains > 0 && len(out) == h.config.MaxDomains {
			break
		}
	}
	return out
}

func isTrusted(domain string, trusted []string) bool {
	for _, t := range trusted {
		if domain == t || strings.HasPrefix(domain, t+"/") || strings.HasSuffix(domain, "."+t) {
			return true
		}
	}
	return false
}

func isOutOfScope(raw string) bool {
	return strings.EqualFold(strings.Trim(strings.TrimSpace(raw), ".\"'"), outOfScopeMarker)
}

// parseList splits a comma or newline separated model answer into clean
// tokens.
func parseList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = listMarker.ReplaceAllString(strings.TrimSpace(f), "")
		f = strings.Trim(f, "\"'` ")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
