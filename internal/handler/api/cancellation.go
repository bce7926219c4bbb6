package api

import (
	"net/http"

	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type CancellationHandler struct {
	cmds commands.CancellationCommands
}

func NewCancellationHandler(cmds commands.CancellationCommands) *CancellationHandler {
	return &CancellationHandler{cmds: cmds}
}

// @Summary Request cancellation OTP
// @Description Email a one-time code that authorizes cancelling the order
// @Tags cancellation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order code"
// @Success 200 {object} resdto.CancelOTPResponse
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Router /orders/{id}/cancel/request-otp [post]
func (h *CancellationHandler) RequestOTP(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	issued, err := h.cmds.RequestCancelOTP(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromOTPIssued(issued))
}

// @Summary Confirm cancellation
// @Description Cancel the order with the emailed code
// @Tags cancellation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order code"
// @Param request body reqdto.ConfirmCancelOTPRequest true "OTP"
// @Success 200 {object} resdto.CancelledResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 410 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Router /orders/{id}/cancel/confirm-otp [post]
func (h *CancellationHandler) ConfirmOTP(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.ConfirmCancelOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	cancelled, err := h.cmds.ConfirmCancelOTP(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCancelledOrder(cancelled))
}
