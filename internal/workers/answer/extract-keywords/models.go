package extractkeywords

import apperrors "health-assistant/internal/common/errors"

type Input struct {
	Question string `json:"question"`
}

type KeywordsOutput struct {
	Keywords   string `json:"keywords"`
	OutOfScope bool   `json:"outOfScope"`
	// Err is the absorbed EXTRACTION_FAILURE, if any.
	Err *apperrors.StandardError `json:"-"`
}

type DomainsOutput struct {
	Domains    []string                 `json:"domains"`
	OutOfScope bool                     `json:"outOfScope"`
	Err        *apperrors.StandardError `json:"-"`
}
