package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware_SuccessfulRequest(t *testing.T) {
	logger, logs := newObservedLogger(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/posts?_page=2", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := LoggingMiddleware(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	completed := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, completed, 1)
	fields := completed[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/posts", fields["path"])
	assert.Equal(t, "_page=2", fields["query"])
	assert.EqualValues(t, http.StatusOK, fields["status_code"])

	assert.Equal(t, 1, logs.FilterMessage("HTTP request started").Len())
}

func TestLoggingMiddleware_FailedRequest(t *testing.T) {
	logger, logs := newObservedLogger(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	testErr := errors.New("test error")
	handler := LoggingMiddleware(logger)(func(c echo.Context) error {
		return testErr
	})

	err := handler(c)
	assert.Equal(t, testErr, err)

	failed := logs.FilterMessage("HTTP request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "test error", failed[0].ContextMap()["error"])
}
