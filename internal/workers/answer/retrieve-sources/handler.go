package retrievesources

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/metrics"
	"health-assistant/internal/models"
)

const Stage = "retrieve-sources"

var (
	ErrSearchTimeout = errors.New("SEARCH_TIMEOUT")
	ErrSearchFailed  = errors.New("SEARCH_FAILED")
)

type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]models.SourceRecord, error)
}

type Handler struct {
	config   *Config
	provider Provider
	logger   logger.Logger
}

func NewHandler(config *Config, provider Provider, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		provider: provider,
		logger: log.With(map[string]interface{}{
			"stage":    Stage,
			"provider": provider.Name(),
		}),
	}
}

// Retrieve performs exactly one provider call restricted to input.Domains,
// or to the trusted set when none are given. It never returns an error:
// failures degrade to an empty list.
func (h *Handler) Retrieve(ctx context.Context, input *Input) *Output {
	domains := input.Domains
	if len(domains) == 0 {
		domains = h.config.TrustedDomains
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	records, err := h.provider.Search(ctx, Query{
		Text:    input.Query,
		Domains: domains,
		Num:     h.config.MaxResults,
	})
	if err != nil {
		return &Output{Sources: []models.SourceRecord{}, Err: h.degrade(ctx, err)}
	}

	sources := h.clean(records)
	metrics.RetrievedSources.Observe(float64(len(sources)))

	if len(sources) == 0 {
		metrics.StageFallbacks.WithLabelValues(Stage, "no_results").Inc()
		h.logger.Warn("search returned no results", map[string]interface{}{
			"query":   input.Query,
			"domains": len(domains),
		})
		return &Output{Sources: sources}
	}

	h.logger.Info("sources retrieved", map[string]interface{}{
		"query":       input.Query,
		"domains":     len(domains),
		"resultCount": len(sources),
		"durationMs":  time.Since(start).Milliseconds(),
	})
	return &Output{Sources: sources}
}

// degrade records a failed search as RETRIEVAL_FAILURE, keeping the
// provider level code as its cause.
func (h *Handler) degrade(ctx context.Context, err error) *apperrors.StandardError {
	reason := "failed"
	cause := apperrors.NewSearchRequestFailedError(h.provider.Name(), err)
	if errors.Is(err, ErrSearchTimeout) || ctx.Err() == context.DeadlineExceeded {
		reason = "timeout"
		cause = apperrors.NewSearchTimeoutError(h.provider.Name())
	}
	metrics.StageFallbacks.WithLabelValues(Stage, reason).Inc()

	stdErr := apperrors.NewRetrievalFailureError(err).
		WithMetadata("provider", h.provider.Name()).
		WithMetadata("cause", string(cause.Code))

	h.logger.Warn("search failed, continuing without sources", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"cause":     string(cause.Code),
		"provider":  h.provider.Name(),
		"error":     err.Error(),
	})
	return stdErr
}

// clean drops records without a link and truncates to the configured
// top-K, keeping provider order.
func (h *Handler) clean(records []models.SourceRecord) []models.SourceRecord {
	out := make([]models.SourceRecord, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Link) == "" {
			continue
		}
		out = append(out, models.SourceRecord{
			Title:   strings.TrimSpace(r.Title),
			Snippet: strings.TrimSpace(r.Snippet),
			Link:    strings.TrimSpace(r.Link),
		})
		if h.config.MaxResults > 0 && len(out) == h.config.MaxResults {
			break
		}
	}
	return out
}
