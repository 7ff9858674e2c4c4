package api

import (
	"net/http"

	apperrors "health-assistant/internal/common/errors"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleFeedback(c echo.Context) error {
	var body map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return s.writeError(c, apperrors.NewValidationError("invalid request body", err.Error()))
	}

	record, err := s.feedback.Record(c.Request().Context(), body)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (s *Server) handleFeedbackSummary(c echo.Context) error {
	summary, err := s.feedback.Summary(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
