package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

// LoggingMiddleware ログミドルウェア
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger.Debug(req.Context(), "HTTP request started", map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"remote_addr": req.RemoteAddr,
				"user_agent":  req.UserAgent(),
			})

			err := next(c)

			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"query":       req.URL.RawQuery,
				"status_code": c.Response().Status,
				"bytes_out":   c.Response().Size,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
			}

			if err != nil {
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			} else {
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
