package otp

import (
	"time"

	"checkout-core/internal/pkg/passcode"

	"github.com/google/uuid"
)

type Outcome int

const (
	OutcomeMatched Outcome = iota
	OutcomeMismatch
	OutcomeExhausted
	OutcomeExpired
)

// CancellationOTP gates a user-initiated cancellation. Only the code hash is kept.
type CancellationOTP struct {
	orderID   uuid.UUID
	userID    uuid.UUID
	codeHash  string
	expiresAt time.Time
	attempts  int
}

// Issue creates a fresh OTP and returns it with the plain code for delivery.
func Issue(orderID, userID uuid.UUID, now time.Time, ttl time.Duration) (*CancellationOTP, string, error) {
	code, err := passcode.Generate()
	if err != nil {
		return nil, "", err
	}
	hash, err := passcode.Hash(code)
	if err != nil {
		return nil, "", err
	}
	return &CancellationOTP{
		orderID:   orderID,
		userID:    userID,
		codeHash:  hash,
		expiresAt: now.Add(ttl),
	}, code, nil
}

func Reconstruct(orderID, userID uuid.UUID, codeHash string, expiresAt time.Time, attempts int) *CancellationOTP {
	return &CancellationOTP{
		orderID:   orderID,
		userID:    userID,
		codeHash:  codeHash,
		expiresAt: expiresAt,
		attempts:  attempts,
	}
}

func (o *CancellationOTP) IsExpiredAt(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

func (o *CancellationOTP) RemainingValidity(now time.Time) time.Duration {
	if o.IsExpiredAt(now) {
		return 0
	}
	return o.expiresAt.Sub(now)
}

func (o *CancellationOTP) RemainingAttempts(maxAttempts int) int {
	if r := maxAttempts - o.attempts; r > 0 {
		return r
	}
	return 0
}

// Verify checks code and counts a failed attempt. Expired and Exhausted
// outcomes mean the record must be discarded.
func (o *CancellationOTP) Verify(code string, now time.Time, maxAttempts int) Outcome {
	if o.IsExpiredAt(now) {
		return OutcomeExpired
	}
	if o.attempts >= maxAttempts {
		return OutcomeExhausted
	}
	if passcode.Matches(o.codeHash, code) {
		return OutcomeMatched
	}
	o.attempts++
	if o.attempts >= maxAttempts {
		return OutcomeExhausted
	}
	return OutcomeMismatch
}

func (o *CancellationOTP) OrderID() uuid.UUID   { return o.orderID }
func (o *CancellationOTP) UserID() uuid.UUID    { return o.userID }
func (o *CancellationOTP) CodeHash() string     { return o.codeHash }
func (o *CancellationOTP) ExpiresAt() time.Time { return o.expiresAt }
func (o *CancellationOTP) Attempts() int        { return o.attempts }
