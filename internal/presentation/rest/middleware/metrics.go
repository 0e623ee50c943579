package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()

			metrics.RecordRequest(ctx, c.Request().Method, c.Path())

			err := next(c)

			// レスポンス時間を記録（秒単位）
			duration := time.Since(start).Seconds()
			metrics.RecordResponseTime(ctx, c.Request().Method, c.Path(), duration)

			// エラーレスポンスはErrorHandlerMiddlewareで書き込み済みのため、ステータスで判定
			statusCode := c.Response().Status
			if err != nil && statusCode < http.StatusBadRequest {
				statusCode = http.StatusInternalServerError
			}
			if statusCode >= http.StatusBadRequest {
				errorType := "client_error"
				if statusCode >= http.StatusInternalServerError {
					errorType = "server_error"
				}
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}
