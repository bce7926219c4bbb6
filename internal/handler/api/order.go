package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders  queries.OrderQueries
	pricing queries.PricingQueries
	carts   queries.CartQueries
	cartCmd commands.CartCommands
}

func NewOrderHandler(
	orders queries.OrderQueries,
	pricing queries.PricingQueries,
	carts queries.CartQueries,
	cartCmd commands.CartCommands,
) *OrderHandler {
	return &OrderHandler{orders: orders, pricing: pricing, carts: carts, cartCmd: cartCmd}
}

// @Summary List my orders
// @Description Orders of the current user, newest first
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param after query string false "Cursor from a previous page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} resdto.OrderListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httperr.AbortWithError(c, http.StatusBadRequest, errInvalidLimit, "Invalid limit", nil)
			return
		}
		limit = n
	}
	var after *queries.Cursor
	if raw := c.Query("after"); raw != "" {
		after = &queries.Cursor{After: raw}
	}

	items, next, err := h.orders.ListByUser(c.Request.Context(), userID, after, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := resdto.FromOrderList(items, next)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Track order
// @Description Current status and tracking history, newest first
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order code"
// @Success 200 {object} resdto.TrackingResponse
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /orders/{id}/track [get]
func (h *OrderHandler) Track(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	view, err := h.orders.Track(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := resdto.FromTrackingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Preview total
// @Description Price the current cart without reserving stock
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.PreviewTotalRequest false "Optional coupon"
// @Success 200 {object} resdto.PriceResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /orders/preview-total [post]
func (h *OrderHandler) PreviewTotal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	// An empty body prices the cart without a coupon.
	var req reqdto.PreviewTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	view, err := h.pricing.PreviewTotal(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Reorder
// @Description Copy the items of a past order into the cart
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order code"
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /orders/{id}/reorder [post]
func (h *OrderHandler) Reorder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}

	if _, err := h.cartCmd.Reorder(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	view, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}
