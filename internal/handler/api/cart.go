package api

import (
	"net/http"

	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/handler/httperr"
	"checkout-core/internal/handler/middleware"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct {
	cmds commands.CartCommands
	q    queries.CartQueries
}

func NewCartHandler(cmds commands.CartCommands, q queries.CartQueries) *CartHandler {
	return &CartHandler{cmds: cmds, q: q}
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.CartResponse
// @Failure 401 {object} httperr.Response
// @Router /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	h.respondCart(c, userID)
}

// @Summary Add cart item
// @Description Add a product to the cart or raise its quantity
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.AddCartItemRequest true "Item"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if _, err := h.cmds.AddItem(c.Request.Context(), userID, req); err != nil {
		respondError(c, err)
		return
	}
	h.respondCart(c, userID)
}

// @Summary Remove cart item
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Router /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, errInvalidProductID, "Invalid product id", nil)
		return
	}
	if _, err := h.cmds.RemoveItem(c.Request.Context(), userID, productID); err != nil {
		respondError(c, err)
		return
	}
	h.respondCart(c, userID)
}

// @Summary Apply coupon
// @Description Validate a coupon against the cart and keep it for checkout
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.ApplyCouponRequest true "Coupon"
// @Success 200 {object} resdto.CartResponse
// @Failure 400 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /cart/coupon [put]
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if _, err := h.cmds.ApplyCoupon(c.Request.Context(), userID, req); err != nil {
		respondError(c, err)
		return
	}
	h.respondCart(c, userID)
}

// @Summary Remove coupon
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} resdto.CartResponse
// @Router /cart/coupon [delete]
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	if _, err := h.cmds.RemoveCoupon(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	h.respondCart(c, userID)
}

func (h *CartHandler) respondCart(c *gin.Context, userID uuid.UUID) {
	view, err := h.q.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromCartView(view))
}
