package api

import (
	"context"
	"net/http"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/models"
	"health-assistant/internal/pipeline"

	"github.com/labstack/echo/v4"
)

type chatRequest struct {
	Message string        `json:"message"`
	History []models.Turn `json:"history"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return s.writeError(c, apperrors.NewValidationError("invalid request body", err.Error()))
	}

	ctx := c.Request().Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	result, err := s.chat.Answer(ctx, &pipeline.Request{
		Message: req.Message,
		History: req.History,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, result.Payload)
}

func (s *Server) writeError(c echo.Context, err error) error {
	status, body := s.errors.Resolve(c.Path(), err)
	return c.JSON(status, body)
}
