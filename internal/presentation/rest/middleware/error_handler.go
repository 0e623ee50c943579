package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-mock/internal/domain/resource"
	otelinfra "marketplace-mock/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// domainErrors ドメインエラーとHTTPステータスの対応
var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{resource.ErrResourceNotFound, http.StatusNotFound, "resource_not_found"},
	{resource.ErrRecordNotFound, http.StatusNotFound, "record_not_found"},
	{resource.ErrDuplicateID, http.StatusConflict, "duplicate_id"},
	{resource.ErrInvalidRecord, http.StatusBadRequest, "invalid_record"},
	{resource.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"},
	{resource.ErrReadOnly, http.StatusForbidden, "read_only"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// HTTPErrorHandler ミドルウェアの外側で発生したエラー用のハンドラー
func HTTPErrorHandler(logger *otelinfra.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		_ = handleError(c, err, logger)
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// ドメインエラーの判定と処理
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			logger.Warn(ctx, "Request rejected", map[string]interface{}{
				"error": err.Error(),
				"code":  de.code,
			})
			return c.JSON(de.status, ErrorResponse{
				Error:   de.code,
				Message: err.Error(),
			})
		}
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
