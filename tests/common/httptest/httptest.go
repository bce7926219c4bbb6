//go:build unit || e2e

package httptest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// RequestOption adjusts a request before it is served.
type RequestOption func(*http.Request)

func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithIdempotencyKey is a no-op for an empty key.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

// PerformRequest sends body as JSON, with a bearer token when authToken is set.
func PerformRequest(t *testing.T, router *gin.Engine, method, path string, body any, authToken string, opts ...RequestOption) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err, "Failed to encode request body to JSON")
	}
	if authToken != "" {
		opts = append([]RequestOption{WithHeader("Authorization", "Bearer "+authToken)}, opts...)
	}
	return serve(router, method, path, payload, body != nil, opts)
}

// PerformRaw sends payload byte for byte. Signed webhooks need this.
func PerformRaw(t *testing.T, router *gin.Engine, method, path string, payload []byte, opts ...RequestOption) *httptest.ResponseRecorder {
	t.Helper()
	return serve(router, method, path, payload, true, opts)
}

func serve(router *gin.Engine, method, path string, payload []byte, isJSON bool, opts []RequestOption) *httptest.ResponseRecorder {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, body)
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
