package recordfeedback

import (
	"context"
	"errors"
	"strconv"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/metrics"
	"health-assistant/internal/models"

	"github.com/google/uuid"
)

const Stage = "record-feedback"

var ErrConnection = errors.New("DATABASE_CONNECTION_FAILED")

type Handler struct {
	config   *Config
	store    models.FeedbackRepository
	counters *Counters
	logger   logger.Logger
	now      func() time.Time
}

// NewHandler builds the feedback handler. counters may be nil, in which
// case summaries are computed from the store.
func NewHandler(config *Config, store models.FeedbackRepository, counters *Counters, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		counters: counters,
		logger: log.With(map[string]interface{}{
			"stage": Stage,
		}),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and stores one submission and returns the stored record.
func (h *Handler) Record(ctx context.Context, body map[string]interface{}) (*models.Feedback, error) {
	submission, err := Migrate(body, h.config.MaxFeedbackLength)
	if err != nil {
		return nil, err
	}

	record := &models.Feedback{
		ID:            uuid.New().String(),
		Rate:          submission.Rate,
		Feedback:      submission.Feedback,
		SchemaVersion: submission.SchemaVersion,
		CreatedAt:     h.now(),
	}

	insertCtx, cancel := context.WithTimeout(ctx, h.config.InsertTimeout)
	defer cancel()

	if err := h.store.Insert(insertCtx, record); err != nil {
		if errors.Is(err, ErrConnection) {
			return nil, apperrors.NewDatabaseConnectionFailedError(err)
		}
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	metrics.FeedbackSubmissions.WithLabelValues(
		strconv.Itoa(record.Rate),
		strconv.Itoa(record.SchemaVersion),
	).Inc()

	if h.counters != nil {
		if err := h.counters.Increment(ctx, record.Rate); err != nil {
			h.logger.Warn("failed to update rating counter", map[string]interface{}{
				"error": err,
				"rate":  record.Rate,
			})
		}
	}

	h.logger.Info("feedback recorded", map[string]interface{}{
		"feedbackId":    record.ID,
		"rate":          record.Rate,
		"schemaVersion": record.SchemaVersion,
		"hasComment":    record.Feedback != nil,
	})
	return record, nil
}

// Summary returns rating counts, from Redis when available and from the
// store otherwise or when Redis fails.
func (h *Handler) Summary(ctx context.Context) (*models.RatingSummary, error) {
	if h.counters != nil {
		counts, err := h.counters.Load(ctx)
		if err == nil {
			return newSummary(counts), nil
		}
		h.logger.Warn("failed to read rating counters, falling back to database", map[string]interface{}{
			"error": err,
		})
	}

	counts, err := h.store.CountByRate(ctx)
	if err != nil {
		if errors.Is(err, ErrConnection) {
			return nil, apperrors.NewDatabaseConnectionFailedError(err)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return newSummary(counts), nil
}

func newSummary(counts map[int]int64) *models.RatingSummary {
	summary := &models.RatingSummary{Counts: make(map[int]int64, len(counts))}
	for rate, n := range counts {
		summary.Counts[rate] = n
		summary.Total += n
	}
	return summary
}
