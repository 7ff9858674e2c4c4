package pipeline

import (
	"context"
	"strings"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/metrics"
	"health-assistant/internal/models"
	assemblecontext "health-assistant/internal/workers/answer/assemble-context"
	composequery "health-assistant/internal/workers/answer/compose-query"
	extractkeywords "health-assistant/internal/workers/answer/extract-keywords"
	generateanswer "health-assistant/internal/workers/answer/generate-answer"
	normalizeresponse "health-assistant/internal/workers/answer/normalize-response"
	retrievesources "health-assistant/internal/workers/answer/retrieve-sources"
)

type Config struct {
	Strategy Strategy
	// OutputMode overrides the strategy default when set.
	OutputMode models.OutputMode
	Persona    generateanswer.Persona
}

func (c *Config) mode() models.OutputMode {
	if c.OutputMode != "" {
		return c.OutputMode
	}
	return c.Strategy.DefaultOutputMode()
}

type Request struct {
	Message string
	History []models.Turn
}

type Result struct {
	Payload     models.AnswerPayload
	Strategy    Strategy
	Mode        models.OutputMode
	SourceCount int
	OutOfScope  bool
	Refusal     bool
	Fallback    bool
}

// Pipeline runs the answer stages for one chat request. Stages run
// sequentially since each consumes the previous one's output.
type Pipeline struct {
	config     *Config
	extractor  *extractkeywords.Handler
	retriever  *retrievesources.Handler
	generator  *generateanswer.Handler
	normalizer *normalizeresponse.Handler
	logger     logger.Logger
}

// New wires the stages. extractor and retriever may be nil for the
// completion strategy.
func New(
	config *Config,
	extractor *extractkeywords.Handler,
	retriever *retrievesources.Handler,
	generator *generateanswer.Handler,
	normalizer *normalizeresponse.Handler,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		config:     config,
		extractor:  extractor,
		retriever:  retriever,
		generator:  generator,
		normalizer: normalizer,
		logger: log.With(map[string]interface{}{
			"strategy": string(config.Strategy),
		}),
	}
}

func (p *Pipeline) Strategy() Strategy {
	return p.config.Strategy
}

// Answer returns a normalized payload, or a StandardError when generation
// itself failed. Retrieval and extraction problems never surface here.
func (p *Pipeline) Answer(ctx context.Context, req *Request) (*Result, error) {
	metrics.ChatInFlight.Inc()
	defer metrics.ChatInFlight.Dec()

	start := time.Now()
	result, err := p.answer(ctx, req)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = string(apperrors.Normalize(err).Code)
	case result.Fallback:
		outcome = "fallback"
	case result.Refusal:
		outcome = "refusal"
	}
	metrics.ChatRequests.WithLabelValues(string(p.config.Strategy), outcome).Inc()

	fields := map[string]interface{}{
		"outcome":      outcome,
		"historyTurns": len(req.History),
		"durationMs":   time.Since(start).Milliseconds(),
	}
	if result != nil {
		fields["sourceCount"] = result.SourceCount
	}
	p.logger.Info("chat request answered", fields)

	return result, err
}

func (p *Pipeline) answer(ctx context.Context, req *Request) (*Result, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", "empty message")
	}
	if err := generateanswer.ValidateHistory(req.History); err != nil {
		return nil, apperrors.NewValidationError("conversation history is invalid", err.Error())
	}

	mode := p.config.mode()
	result := &Result{Strategy: p.config.Strategy, Mode: mode}

	userTurn := message
	var links []string

	if p.config.Strategy.Retrieves() {
		input, outOfScope := p.retrievalInput(ctx, message)
		result.OutOfScope = outOfScope
		if !outOfScope {
			retrieved := p.retriever.Retrieve(ctx, input)
			assembled := assemblecontext.Assemble(retrieved.Sources)
			userTurn = generateanswer.BuildRAGUserTurn(message, assembled.ContextBlock)
			links = assembled.Links
		}
	}

	raw, err := p.generator.Generate(ctx, &generateanswer.GenerationRequest{
		Persona:  p.config.Persona,
		History:  req.History,
		UserTurn: userTurn,
		Mode:     mode,
	})
	if err != nil {
		return nil, err
	}

	normalized := p.normalizer.Normalize(&normalizeresponse.Input{
		RawText: raw,
		Links:   links,
		Mode:    mode,
	})
	result.Payload = normalized.Payload
	result.Refusal = normalized.Refusal
	result.Fallback = normalized.Fallback
	result.SourceCount = len(normalized.Payload.Sources)
	return result, nil
}

// retrievalInput builds the search input for the configured strategy. The
// boolean is true when the extractor judged the question out of scope, in
// which case nothing should be searched.
func (p *Pipeline) retrievalInput(ctx context.Context, message string) (*retrievesources.Input, bool) {
	switch p.config.Strategy {
	case StrategyKeywordRAG:
		out := p.extractor.ExtractKeywords(ctx, &extractkeywords.Input{Question: message})
		if out.OutOfScope {
			return nil, true
		}
		return &retrievesources.Input{Query: composequery.WithKeywords(message, out.Keywords)}, false

	case StrategyDomainRAG:
		out := p.extractor.SuggestDomains(ctx, &extractkeywords.Input{Question: message})
		if out.OutOfScope {
			return nil, true
		}
		return &retrievesources.Input{Query: message, Domains: out.Domains}, false

	default:
		return &retrievesources.Input{Query: message}, false
	}
}
