package retrievesources

import (
	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/models"
)

type Input struct {
	Query string `json:"query"`
	// Domains overrides the trusted set when non-empty.
	Domains []string `json:"domains,omitempty"`
}

type Output struct {
	Sources []models.SourceRecord `json:"sources"`
	// Err is the absorbed RETRIEVAL_FAILURE when the provider call failed.
	Err *apperrors.StandardError `json:"-"`
}

// Query is what a provider receives: the free text and the site
// restriction kept apart so each backend can express it natively.
type Query struct {
	Text    string
	Domains []string
	Num     int
}
