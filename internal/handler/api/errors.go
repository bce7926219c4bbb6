package api

import (
	"errors"
	"net/http"
	"strconv"

	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

var (
	errUnauthenticated       = errs.New("unauthenticated request")
	errInvalidIdempotencyKey = errs.New("invalid idempotency key")
	errInvalidLimit          = errs.New("invalid limit")
	errInvalidProductID      = errs.New("invalid product id")
	errMissingSignature      = errs.New("missing signature header")
)

type stockDetail struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type otpMismatchDetail struct {
	RemainingAttempts int `json:"remainingAttempts"`
}

type retryDetail struct {
	RetryAfterSeconds int `json:"retryAfterSeconds"`
}

// respondError maps the usecase error taxonomy onto a status code. Detail
// errors are checked before their sentinels so the payload is not lost.
func respondError(c *gin.Context, err error) {
	var stockErr *errs.InsufficientStockError
	var couponErr *errs.CouponRejectedError
	var mismatchErr *errs.OTPMismatchError
	var issuedErr *errs.OTPAlreadyIssuedError

	var p httperr.Problem
	switch {
	case errors.As(err, &stockErr):
		p = httperr.Problem{Status: http.StatusConflict, Code: "insufficient_stock", Message: "Insufficient stock",
			Detail: stockDetail{
				ProductID: stockErr.ProductID.String(),
				Requested: stockErr.Requested,
				Available: stockErr.Available,
			}}
	case errors.As(err, &couponErr):
		p = httperr.Problem{Status: http.StatusUnprocessableEntity, Code: "coupon_rejected", Message: couponErr.Error()}
	case errors.As(err, &mismatchErr):
		p = httperr.Problem{Status: http.StatusBadRequest, Code: "otp_mismatch", Message: "Invalid OTP",
			Detail: otpMismatchDetail{RemainingAttempts: mismatchErr.RemainingAttempts}}
	case errors.As(err, &issuedErr):
		c.Header("Retry-After", strconv.Itoa(issuedErr.RetryAfterSeconds()))
		p = httperr.Problem{Status: http.StatusTooManyRequests, Code: "otp_already_issued", Message: "OTP already sent",
			Detail: retryDetail{RetryAfterSeconds: issuedErr.RetryAfterSeconds()}}
	case errs.Is(err, errs.ErrOTPExpired):
		p = httperr.Problem{Status: http.StatusGone, Code: "otp_expired", Message: "OTP expired or not found"}
	case errs.Is(err, errs.ErrOTPAttemptsExceeded):
		p = httperr.Problem{Status: http.StatusTooManyRequests, Code: "otp_attempts_exceeded", Message: "Too many OTP attempts"}
	case errs.Is(err, errs.ErrOrderNotFound):
		p = httperr.Problem{Status: http.StatusNotFound, Code: "order_not_found", Message: "Order not found"}
	case errs.Is(err, errs.ErrOrderNotCancellable):
		p = httperr.Problem{Status: http.StatusConflict, Code: "order_not_cancellable", Message: "Order cannot be cancelled"}
	case errs.Is(err, errs.ErrIdempotencyInProgress):
		p = httperr.Problem{Status: http.StatusConflict, Code: "request_in_progress", Message: "Request is already being processed"}
	case errs.Is(err, errs.ErrWebhookSignatureInvalid):
		p = httperr.Problem{Status: http.StatusBadRequest, Code: "invalid_signature", Message: "Invalid signature"}
	case errs.Is(err, errs.ErrPaymentProvider):
		p = httperr.Problem{Status: http.StatusBadGateway, Code: "payment_provider_unavailable", Message: "Payment provider unavailable"}
	case errs.Is(err, errs.ErrProductNotFound):
		p = httperr.Problem{Status: http.StatusBadRequest, Code: "product_not_found", Message: "Product not found"}
	case errs.Is(err, errs.ErrValidation):
		p = httperr.Problem{Status: http.StatusBadRequest, Code: "validation_failed", Message: validationMessage(err)}
	default:
		p = httperr.Problem{Status: http.StatusInternalServerError, Code: "internal", Message: "Internal server error"}
	}
	httperr.Abort(c, err, p)
}

// validationMessage surfaces the innermost message, which is the domain rule
// that failed.
func validationMessage(err error) string {
	return errs.Cause(err).Error()
}
