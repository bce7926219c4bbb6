package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/pkg/cookie"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ctxUserIDKey = "user_id"

var (
	errMissingToken = errs.New("access token required")
	errInvalidToken = errs.New("invalid or expired token")
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
	logger         *slog.Logger
}

func NewAuthMiddleware(tokenValidator usecase.TokenValidator, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
		logger:         logger,
	}
}

// RequireAuth accepts the access token cookie or a Bearer header. Tokens are
// issued elsewhere; only the subject is read here.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.GetAccessToken(c)
		if token == "" {
			token = bearerToken(c.GetHeader("Authorization"))
		}

		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingToken, "Access token required", nil)
			return
		}

		userID, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			m.logger.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, errs.Mark(err, errInvalidToken), "Invalid or expired token", nil)
			return
		}

		SetUserID(c, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

func SetUserID(c *gin.Context, userID uuid.UUID) {
	c.Set(ctxUserIDKey, userID)
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(ctxUserIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}
