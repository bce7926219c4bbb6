package api

import (
	"io"
	"net/http"

	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	headerStripeSignature = "Stripe-Signature"
	maxWebhookBodyBytes   = 1 << 20
)

type WebhookHandler struct {
	cmds commands.PaymentCommands
}

func NewWebhookHandler(cmds commands.PaymentCommands) *WebhookHandler {
	return &WebhookHandler{cmds: cmds}
}

// @Summary Payment webhook
// @Description Signed payment provider events. The body is verified byte for byte.
// @Tags payment
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "t=<unix>,v1=<hex hmac>"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} httperr.Response
// @Router /payment-webhook [post]
func (h *WebhookHandler) Handle(c *gin.Context) {
	signature := c.GetHeader(headerStripeSignature)
	if signature == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errMissingSignature, "Missing signature", nil)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Unreadable body", nil)
		return
	}

	if err := h.cmds.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
