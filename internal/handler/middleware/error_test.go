//go:build unit

package middleware_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/pkg/errs"
	"checkout-core/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(logs *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(logs, nil))

	engine := gin.New()
	engine.Use(middleware.CustomRecovery(logger))
	engine.Use(middleware.LoggingMiddleware(logger))
	engine.Use(middleware.ErrorHandler(logger))
	return engine
}

func TestErrorHandler(t *testing.T) {
	var logs bytes.Buffer
	engine := newEngine(&logs)
	engine.GET("/conflict", func(c *gin.Context) {
		httperr.Abort(c, errs.ErrOrderNotCancellable, httperr.Problem{
			Status:  http.StatusConflict,
			Code:    "order_not_cancellable",
			Message: "Order cannot be cancelled",
		})
	})
	engine.GET("/store-down", func(c *gin.Context) {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("connection reset by peer"), "Internal server error", nil)
	})
	engine.GET("/silent", func(c *gin.Context) {
		_ = c.Error(errors.New("dropped on the floor"))
	})
	engine.GET("/panic", func(c *gin.Context) {
		panic("nil cart")
	})

	t.Run("envelope carries code and request id", func(t *testing.T) {
		logs.Reset()
		rec := httptest.PerformRequest(t, engine, http.MethodGet, "/conflict", nil, "",
			httptest.WithHeader(middleware.HeaderRequestID, "req-42"))

		env := httptest.AssertErrorResponse(t, rec, http.StatusConflict, "cannot be cancelled")
		assert.Equal(t, "order_not_cancellable", env.Code)
		assert.Equal(t, "req-42", env.RequestID)
		httptest.AssertHeaders(t, rec, map[string]string{middleware.HeaderRequestID: "req-42"})
		assert.NotContains(t, logs.String(), "request failed", "4xx is not logged as a failure")
	})

	t.Run("5xx logs the wrapped cause", func(t *testing.T) {
		logs.Reset()
		rec := httptest.PerformRequest(t, engine, http.MethodGet, "/store-down", nil, "")

		httptest.AssertErrorResponse(t, rec, http.StatusInternalServerError, "Internal server error")
		assert.NotContains(t, rec.Body.String(), "connection reset")
		assert.Contains(t, logs.String(), "request failed")
		assert.Contains(t, logs.String(), "connection reset by peer")
	})

	t.Run("private error without a response", func(t *testing.T) {
		rec := httptest.PerformRequest(t, engine, http.MethodGet, "/silent", nil, "")
		env := httptest.AssertErrorResponse(t, rec, http.StatusInternalServerError, "Internal server error")
		assert.Equal(t, "internal", env.Code)
	})

	t.Run("panic becomes a 500", func(t *testing.T) {
		logs.Reset()
		rec := httptest.PerformRequest(t, engine, http.MethodGet, "/panic", nil, "")

		env := httptest.AssertErrorResponse(t, rec, http.StatusInternalServerError, "Internal server error")
		assert.NotEmpty(t, env.RequestID)
		assert.Contains(t, logs.String(), "recovered from panic")
	})
}
