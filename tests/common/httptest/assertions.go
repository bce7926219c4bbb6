//go:build unit || e2e

package httptest

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorEnvelope is the decoded error body. Detail stays raw until a test
// asks for it in a concrete shape.
type ErrorEnvelope struct {
	Message   string
	Code      string
	RequestID string
	Detail    json.RawMessage
}

// DecodeDetail fails the test when the response carried no detail.
func (e ErrorEnvelope) DecodeDetail(t *testing.T, target any) {
	t.Helper()
	require.NotEmpty(t, e.Detail, "error response has no detail")
	require.NoError(t, json.Unmarshal(e.Detail, target), "detail: %s", e.Detail)
}

func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()

	if !assert.Equal(t, expectedStatus, w.Code, "unexpected status, body: %s", w.Body.String()) {
		return
	}
	if target == nil || expectedStatus < 200 || expectedStatus >= 300 {
		return
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "decode body: %s", w.Body.String())
}

// AssertErrorResponse checks the status and, when msgContains is set, the
// message. The decoded envelope is returned for further checks.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, msgContains string) ErrorEnvelope {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "unexpected status, body: %s", w.Body.String())

	var body struct {
		Error struct {
			Message   string `json:"message"`
			Code      string `json:"code"`
			RequestID string `json:"requestId"`
		} `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if !assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "decode error body: %s", w.Body.String()) {
		return ErrorEnvelope{}
	}
	if msgContains != "" {
		assert.Contains(t, body.Error.Message, msgContains)
	}
	return ErrorEnvelope{
		Message:   body.Error.Message,
		Code:      body.Error.Code,
		RequestID: body.Error.RequestID,
		Detail:    body.Detail,
	}
}

func AssertHeaders(t *testing.T, w *httptest.ResponseRecorder, expected map[string]string) {
	t.Helper()
	for k, v := range expected {
		assert.Equal(t, v, w.Header().Get(k), "header %s", k)
	}
}
