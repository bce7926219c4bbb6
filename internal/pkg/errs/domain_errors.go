package errs

import "errors"

// Error taxonomy shared by the usecase and handler layers
var (
	// Validation errors
	ErrValidation = errors.New("validation error")

	// Inventory errors
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")

	// Coupon errors
	ErrCouponRejected = errors.New("coupon rejected")

	// Order errors
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")

	// Payment errors
	ErrPaymentProvider         = errors.New("payment provider error")
	ErrWebhookSignatureInvalid = errors.New("webhook signature invalid")

	// Cancellation OTP errors
	ErrOTPExpired          = errors.New("otp expired or not found")
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrOTPMismatch         = errors.New("otp mismatch")
	ErrOTPAlreadyIssued    = errors.New("otp already issued")

	// Idempotency errors
	ErrIdempotencyInProgress = errors.New("idempotency in progress")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
