package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"checkout-core/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Browsers must be able to send the key and read the replay and back-off hints.
var (
	requiredAllowHeaders  = []string{"Authorization", "Content-Type", "Idempotency-Key"}
	requiredExposeHeaders = []string{"Idempotent-Replayed", "Retry-After", HeaderRequestID}
)

// defaultAllowMethods applies when the configured list is empty.
var defaultAllowMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// NewCORSMiddleware builds the gin-contrib/cors handler. With no origins
// configured it allows any origin without credentials; cors.New panics on an
// empty origin list.
func NewCORSMiddleware(cfg config.CORSConfig, logger *slog.Logger) gin.HandlerFunc {
	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = defaultAllowMethods
	}
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     methods,
		AllowHeaders:     withHeaders(cfg.AllowHeaders, requiredAllowHeaders),
		ExposeHeaders:    withHeaders(cfg.ExposeHeaders, requiredExposeHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		logger.Warn("CORS origins not configured, allowing all origins without credentials")
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	logger.Info("CORS middleware initialized",
		"allow_origins", corsCfg.AllowOrigins,
		"expose_headers", corsCfg.ExposeHeaders)
	return cors.New(corsCfg)
}

// withHeaders appends the required names that configured is missing.
func withHeaders(configured, required []string) []string {
	out := slices.Clone(configured)
	for _, h := range required {
		want := http.CanonicalHeaderKey(h)
		if !slices.ContainsFunc(out, func(have string) bool { return http.CanonicalHeaderKey(have) == want }) {
			out = append(out, h)
		}
	}
	return out
}
