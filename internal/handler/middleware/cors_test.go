//go:build unit

package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/pkg/config"
	"checkout-core/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const origin = "http://localhost:3000"

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// Operator config that forgot the checkout headers.
	cfg := config.CORSConfig{
		AllowOrigins:  []string{origin},
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{"Origin", "content-type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        time.Hour,
	}
	engine := gin.New()
	engine.Use(middleware.NewCORSMiddleware(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))
	engine.GET("/api/cart", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("preflight allows the idempotency key", func(t *testing.T) {
		rec := httptest.PerformRequest(t, engine, http.MethodOptions, "/api/cart", nil, "",
			httptest.WithHeader("Origin", origin),
			httptest.WithHeader("Access-Control-Request-Method", http.MethodPost))

		allowed := strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Contains(t, allowed, "idempotency-key")
		assert.Contains(t, allowed, "authorization")
		assert.Equal(t, 1, strings.Count(allowed, "content-type"))
	})

	t.Run("responses expose replay and back-off headers", func(t *testing.T) {
		rec := httptest.PerformRequest(t, engine, http.MethodGet, "/api/cart", nil, "",
			httptest.WithHeader("Origin", origin))

		exposed := strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers"))
		for _, h := range []string{"content-length", "idempotent-replayed", "retry-after", "x-request-id"} {
			assert.Contains(t, exposed, h)
		}
	})
}

func TestCORSMiddleware_EmptyConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("zero value falls back to any origin", func(t *testing.T) {
		var handler gin.HandlerFunc
		assert.NotPanics(t, func() {
			handler = middleware.NewCORSMiddleware(config.CORSConfig{}, logger)
		})
		engine := gin.New()
		engine.Use(handler)
		engine.GET("/api/cart", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.PerformRequest(t, engine, http.MethodGet, "/api/cart", nil, "",
			httptest.WithHeader("Origin", "https://shop.example.com"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("test config builds a usable middleware", func(t *testing.T) {
		cfg := config.NewTestConfig()
		assert.NotEmpty(t, cfg.CORS.AllowOrigins)
		assert.NotPanics(t, func() {
			middleware.NewCORSMiddleware(cfg.CORS, logger)
		})
	})
}
