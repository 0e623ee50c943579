package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

// DelayMiddleware レスポンスを指定時間遅延させる
//
// クライアントが切断した場合は待たずに次へ進む。
func DelayMiddleware(delay time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if delay <= 0 {
			return next
		}
		return func(c echo.Context) error {
			timer := time.NewTimer(delay)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-c.Request().Context().Done():
			}
			return next(c)
		}
	}
}
