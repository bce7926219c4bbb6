//go:build unit

package api_test

import (
	"io"
	"log/slog"
	"net/http"

	"checkout-core/internal/handler/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const bearerToken = "bearer-token"

// fakeAuth stands in for RequireAuth: any Authorization header maps to userID.
func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		middleware.SetUserID(c, userID)
		c.Next()
	}
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return engine
}
