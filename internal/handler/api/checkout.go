package api

import (
	"net/http"
	"strings"

	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

type CheckoutHandler struct {
	cmds commands.CheckoutCommands
}

func NewCheckoutHandler(cmds commands.CheckoutCommands) *CheckoutHandler {
	return &CheckoutHandler{cmds: cmds}
}

// @Summary Checkout
// @Description Turn the cart into an order and open a payment session
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Replays the first result for a repeated key"
// @Param request body reqdto.CheckoutRequest true "Checkout request"
// @Success 201 {object} resdto.CheckoutResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	key := strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		httperr.AbortWithError(c, http.StatusBadRequest, errInvalidIdempotencyKey, "Idempotency key too long", nil)
		return
	}

	var req reqdto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	result, err := h.cmds.Checkout(c.Request.Context(), req, userID, key)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		c.Header(headerReplayed, "true")
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCheckoutResult(result))
}
