package generateanswer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/llm"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/metrics"
	"health-assistant/internal/models"
)

const Stage = "generate-answer"

// AnswerSchema is the structured output shape requested in JSON mode.
var AnswerSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"answer": {
			Type:        llm.TypeString,
			Description: "Resposta completa ao usuário",
		},
		"sources": {
			Type:        llm.TypeArray,
			Description: "Fontes ou princípios em que a resposta se baseou",
			Items:       &llm.Schema{Type: llm.TypeString},
		},
	},
	Required: []string{"answer", "sources"},
}

type Handler struct {
	config *Config
	client llm.Client
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{
			"stage": Stage,
		}),
	}
	if config.PersonaDelivery == DeliveryLegacyTurns {
		h.logger.Warn("legacy persona delivery is deprecated, prefer system_instruction", nil)
	}
	return h
}

// Generate sends persona, history and the user turn to the model and
// returns the raw text. Failures are StandardErrors: VALIDATION_ERROR for
// a malformed conversation, GENERATION_BLOCKED, GENERATION_INCOMPLETE,
// EMPTY_OUTPUT, or LLM_TIMEOUT / LLM_REQUEST_FAILED.
func (h *Handler) Generate(ctx context.Context, req *GenerationRequest) (string, error) {
	if strings.TrimSpace(req.UserTurn) == "" {
		return "", apperrors.NewValidationError("message is required", "empty user turn")
	}
	if err := ValidateHistory(req.History); err != nil {
		return "", apperrors.NewValidationError("conversation history is invalid", err.Error())
	}

	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(Stage).Observe(time.Since(start).Seconds())
	}()

	history := TrimHistory(req.History, h.config.MaxHistoryTurns)
	llmReq := h.buildRequest(req, history)

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	resp, err := h.client.Generate(ctx, llmReq)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperrors.NewLLMTimeoutError(h.config.Timeout).WithMetadata("stage", Stage)
		}
		return "", apperrors.NewLLMRequestFailedError(err).WithMetadata("stage", Stage)
	}

	if resp.Blocked() {
		h.logger.Warn("prompt blocked by provider", map[string]interface{}{
			"blockReason": resp.BlockReason,
		})
		return "", apperrors.NewGenerationBlockedError(resp.BlockReason).WithMetadata("stage", Stage)
	}
	if !resp.Complete() {
		h.logger.Warn("generation interrupted", map[string]interface{}{
			"finishReason": resp.FinishReason,
			"textLength":   len(resp.Text),
		})
		return "", apperrors.NewGenerationIncompleteError(resp.FinishReason).WithMetadata("stage", Stage)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", apperrors.NewEmptyOutputError().WithMetadata("stage", Stage)
	}

	h.logger.Info("answer generated", map[string]interface{}{
		"mode":         string(req.Mode),
		"historyTurns": len(history),
		"textLength":   len(resp.Text),
	})
	return resp.Text, nil
}

func (h *Handler) buildRequest(req *GenerationRequest, history []models.Turn) *llm.Request {
	instruction := req.Persona.Instruction(req.Mode)

	turns := make([]models.Turn, 0, len(history)+3)
	llmReq := &llm.Request{
		Model:       h.config.Model,
		Temperature: h.config.Temperature,
	}

	if h.config.PersonaDelivery == DeliveryLegacyTurns {
		turns = append(turns,
			models.Turn{Role: models.RoleUser, Text: instruction},
			models.Turn{Role: models.RoleModel, Text: req.Persona.Acknowledgment(req.Mode)},
		)
	} else {
		llmReq.SystemInstruction = instruction
	}

	turns = append(turns, history...)
	turns = append(turns, models.Turn{Role: models.RoleUser, Text: req.UserTurn})
	llmReq.Turns = turns

	if req.Mode == models.OutputModeStructuredJSON {
		llmReq.ResponseSchema = AnswerSchema
	}
	return llmReq
}

// ValidateHistory checks that history starts with a user turn, alternates
// roles and ends with a model turn, so that appending the current user
// message keeps the conversation alternating.
func ValidateHistory(history []models.Turn) error {
	for i, turn := range history {
		if !turn.Role.Valid() {
			return fmt.Errorf("history[%d]: unknown role %q", i, turn.Role)
		}
		if strings.TrimSpace(turn.Text) == "" {
			return fmt.Errorf("history[%d]: empty message", i)
		}
		expected := models.RoleUser
		if i%2 == 1 {
			expected = models.RoleModel
		}
		if turn.Role != expected {
			return fmt.Errorf("history[%d]: expected role %q, got %q", i, expected, turn.Role)
		}
	}
	if len(history)%2 == 1 {
		return fmt.Errorf("history must end with a %q turn", models.RoleModel)
	}
	return nil
}

// TrimHistory keeps at most max most recent turns, dropping whole
// user/model pairs from the front. max <= 0 disables trimming.
func TrimHistory(history []models.Turn, max int) []models.Turn {
	if max <= 0 || len(history) <= max {
		return history
	}
	drop := len(history) - max
	if drop%2 == 1 {
		drop++
	}
	return history[drop:]
}
