package errs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsufficientStockError names the first line that could not be reserved.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// CouponRejectedError carries the first coupon rule that failed.
type CouponRejectedError struct {
	Reason error
}

func (e *CouponRejectedError) Error() string {
	return e.Reason.Error()
}

func (e *CouponRejectedError) Is(target error) bool {
	return target == ErrCouponRejected
}

func (e *CouponRejectedError) Unwrap() error {
	return e.Reason
}

type OTPMismatchError struct {
	RemainingAttempts int
}

func (e *OTPMismatchError) Error() string {
	return fmt.Sprintf("invalid otp, %d attempt(s) remaining", e.RemainingAttempts)
}

func (e *OTPMismatchError) Is(target error) bool {
	return target == ErrOTPMismatch
}

type OTPAlreadyIssuedError struct {
	RetryAfter time.Duration
}

func (e *OTPAlreadyIssuedError) Error() string {
	return fmt.Sprintf("otp already issued, retry after %ds", e.RetryAfterSeconds())
}

func (e *OTPAlreadyIssuedError) Is(target error) bool {
	return target == ErrOTPAlreadyIssued
}

// RetryAfterSeconds rounds up so clients never retry early.
func (e *OTPAlreadyIssuedError) RetryAfterSeconds() int {
	secs := int(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}
