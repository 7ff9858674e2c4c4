package recordfeedback

import (
	"strings"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/validation"
	"health-assistant/internal/models"
)

const (
	likeRate    = 5
	dislikeRate = 1
)

// Migrate validates a decoded body and maps it onto the rate schema.
// Bodies carrying "rate" are current. Bodies carrying only "like" are the
// first schema: true becomes 5, false becomes 1, and a numeric like is
// read as a rate.
func Migrate(body map[string]interface{}, maxLength int) (*Submission, error) {
	if body == nil {
		return nil, apperrors.NewValidationError("rate is required", "empty body")
	}

	_, hasRate := body["rate"]
	like, hasLike := body["like"]

	switch {
	case hasRate:
		if err := check(body, rateSchema(maxLength)); err != nil {
			return nil, err
		}
		return &Submission{
			Rate:          int(body["rate"].(float64)),
			Feedback:      feedbackText(body),
			SchemaVersion: models.FeedbackSchemaRate,
		}, nil

	case hasLike:
		if n, ok := like.(float64); ok {
			shimmed := make(map[string]interface{}, len(body))
			for k, v := range body {
				shimmed[k] = v
			}
			delete(shimmed, "like")
			shimmed["rate"] = n
			if err := check(shimmed, rateSchema(maxLength)); err != nil {
				return nil, err
			}
			return &Submission{
				Rate:          int(n),
				Feedback:      feedbackText(body),
				SchemaVersion: models.FeedbackSchemaLike,
			}, nil
		}

		if err := check(body, likeSchema(maxLength)); err != nil {
			return nil, err
		}
		rate := dislikeRate
		if like.(bool) {
			rate = likeRate
		}
		return &Submission{
			Rate:          rate,
			Feedback:      feedbackText(body),
			SchemaVersion: models.FeedbackSchemaLike,
		}, nil
	}

	return nil, apperrors.NewValidationError("rate is required", "body has neither rate nor like")
}

func check(body map[string]interface{}, schema validation.JSONSchema) error {
	result := validation.ValidateInput(body, schema)
	if result.Valid {
		return nil
	}
	return apperrors.NewValidationError("invalid feedback", strings.Join(result.GetErrorMessages(), "; "))
}

// feedbackText returns the trimmed comment, or nil when absent or blank.
func feedbackText(body map[string]interface{}) *string {
	s, ok := body["feedback"].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
