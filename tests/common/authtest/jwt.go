//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"checkout-core/internal/pkg/config"
	"checkout-core/internal/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// JWTHelper mints tokens the way the auth service does, for requests in tests.
type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return h.sign(t, userID, time.Now().Add(time.Hour))
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return h.sign(t, userID, time.Now().Add(-time.Minute))
}

func (h *JWTHelper) sign(t *testing.T, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.Claims{
		UserID: userID,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    h.cfg.Issuer,
			Subject:   userID.String(),
			IssuedAt:  gojwt.NewNumericDate(expiresAt.Add(-time.Hour)),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.Secret))
	require.NoError(t, err)
	return token
}
