package pipeline

import (
	"fmt"
	"strings"

	"health-assistant/internal/models"
)

// Strategy selects which stages run for a chat request.
type Strategy string

const (
	// StrategyCompletion answers from the model alone.
	StrategyCompletion Strategy = "completion"
	// StrategyRAG searches the raw question.
	StrategyRAG Strategy = "rag"
	// StrategyKeywordRAG searches the question enriched with extracted keywords.
	StrategyKeywordRAG Strategy = "keyword_rag"
	// StrategyDomainRAG restricts the search to model-suggested trusted domains.
	StrategyDomainRAG Strategy = "domain_rag"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyCompletion, StrategyRAG, StrategyKeywordRAG, StrategyDomainRAG:
		return st, nil
	case "":
		return StrategyDomainRAG, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

func (s Strategy) Retrieves() bool {
	return s != StrategyCompletion
}

// DefaultOutputMode is JSON for plain completion and two-block free text
// whenever sources are retrieved.
func (s Strategy) DefaultOutputMode() models.OutputMode {
	if s == StrategyCompletion {
		return models.OutputModeStructuredJSON
	}
	return models.OutputModeFreeTextTwoBlock
}

func ParseOutputMode(s string) (models.OutputMode, error) {
	switch mode := models.OutputMode(strings.ToUpper(strings.TrimSpace(s))); mode {
	case models.OutputModeStructuredJSON, models.OutputModeFreeTextTwoBlock, "":
		return mode, nil
	default:
		return "", fmt.Errorf("unknown output mode %q", s)
	}
}
