package middleware

import "github.com/labstack/echo/v4"

// NoCacheMiddleware レスポンスをキャッシュさせないヘッダーを付与
func NoCacheMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderCacheControl, "no-cache")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "-1")
			return next(c)
		}
	}
}
