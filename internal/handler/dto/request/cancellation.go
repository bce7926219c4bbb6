package request

type ConfirmCancelOTPRequest struct {
	OTP string `json:"otp" binding:"required,len=6,numeric"`
}
