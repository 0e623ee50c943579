package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace-mock/internal/domain/resource"
)

// ReadOnlyMiddleware 有効な場合、GET/HEAD/OPTIONS以外のリクエストを拒否
func ReadOnlyMiddleware(enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !enabled {
			return next
		}
		return func(c echo.Context) error {
			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}
			return fmt.Errorf("%w: %s %s", resource.ErrReadOnly, c.Request().Method, c.Request().URL.Path)
		}
	}
}
