package api

import (
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if s.obs != nil {
				status := c.Response().Status
				if err != nil {
					if he, ok := err.(*echo.HTTPError); ok {
						status = he.Code
					}
				}
				s.obs.RecordRequest(c.Request().Context(), c.Path(), status, time.Since(start))
			}
			return err
		}
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			fields := map[string]interface{}{
				"method":     req.Method,
				"path":       c.Path(),
				"status":     c.Response().Status,
				"durationMs": time.Since(start).Milliseconds(),
				"requestId":  c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if c.Path() == "/health" || c.Path() == "/metrics" {
				s.logger.Debug("request served", fields)
			} else {
				s.logger.Info("request served", fields)
			}
			return err
		}
	}
}
