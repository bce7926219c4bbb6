//go:build unit

package otp_test

import (
	"testing"
	"time"

	"checkout-core/internal/domain/otp"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxAttempts = 3

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func issue(t *testing.T) (*otp.CancellationOTP, string) {
	t.Helper()
	o, code, err := otp.Issue(uuid.New(), uuid.New(), now, 5*time.Minute)
	require.NoError(t, err)
	return o, code
}

func wrongCode(code string) string {
	if code == "999999" {
		return "100000"
	}
	return "999999"
}

func TestIssue(t *testing.T) {
	o, code := issue(t)

	assert.Regexp(t, `^[1-9][0-9]{5}$`, code)
	assert.NotEqual(t, code, o.CodeHash(), "only the hash is kept")
	assert.Equal(t, now.Add(5*time.Minute), o.ExpiresAt())
	assert.Equal(t, 5*time.Minute, o.RemainingValidity(now))
	assert.Zero(t, o.Attempts())
}

func TestVerify(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		o, code := issue(t)
		assert.Equal(t, otp.OutcomeMatched, o.Verify(code, now.Add(time.Minute), maxAttempts))
	})

	t.Run("expiry is checked first", func(t *testing.T) {
		o, code := issue(t)
		assert.Equal(t, otp.OutcomeExpired, o.Verify(code, now.Add(5*time.Minute), maxAttempts))
		assert.Zero(t, o.RemainingValidity(now.Add(6*time.Minute)))
	})

	t.Run("three misses exhaust the code", func(t *testing.T) {
		o, code := issue(t)
		bad := wrongCode(code)

		assert.Equal(t, otp.OutcomeMismatch, o.Verify(bad, now, maxAttempts))
		assert.Equal(t, 2, o.RemainingAttempts(maxAttempts))
		assert.Equal(t, otp.OutcomeMismatch, o.Verify(bad, now, maxAttempts))
		assert.Equal(t, otp.OutcomeExhausted, o.Verify(bad, now, maxAttempts))
		assert.Zero(t, o.RemainingAttempts(maxAttempts))

		// even the right code is refused once exhausted
		assert.Equal(t, otp.OutcomeExhausted, o.Verify(code, now, maxAttempts))
	})

	t.Run("reconstructed attempts carry over", func(t *testing.T) {
		issued, code := issue(t)
		o := otp.Reconstruct(issued.OrderID(), issued.UserID(), issued.CodeHash(), issued.ExpiresAt(), 2)
		assert.Equal(t, otp.OutcomeExhausted, o.Verify(wrongCode(code), now, maxAttempts))
	})
}
