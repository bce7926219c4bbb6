//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"checkout-core/internal/handler/api"
	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/usecase/queries"
	"checkout-core/tests/common/httptest"
	commandsmock "checkout-core/tests/mock/commands"
	queriesmock "checkout-core/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OrderHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockOrders  *queriesmock.MockOrderQueries
	mockPricing *queriesmock.MockPricingQueries
	mockCarts   *queriesmock.MockCartQueries
	mockCartCmd *commandsmock.MockCartCommands
	userID      uuid.UUID
}

func (s *OrderHandlerTestSuite) SetupTest() {
	s.router = newTestEngine()
	s.mockCtrl = gomock.NewController(s.T())
	s.mockOrders = queriesmock.NewMockOrderQueries(s.mockCtrl)
	s.mockPricing = queriesmock.NewMockPricingQueries(s.mockCtrl)
	s.mockCarts = queriesmock.NewMockCartQueries(s.mockCtrl)
	s.mockCartCmd = commandsmock.NewMockCartCommands(s.mockCtrl)
	s.userID = uuid.New()

	handler := api.NewOrderHandler(s.mockOrders, s.mockPricing, s.mockCarts, s.mockCartCmd)
	group := s.router.Group("/api/orders", fakeAuth(s.userID))
	group.GET("", handler.List)
	group.POST("/preview-total", handler.PreviewTotal)
	group.GET("/:id/track", handler.Track)
	group.POST("/:id/reorder", handler.Reorder)
}

func (s *OrderHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestOrderHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrderHandlerTestSuite))
}

func (s *OrderHandlerTestSuite) TestList() {
	placed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	productID := uuid.New()
	items := []*queries.OrderListItem{{
		ID:            uuid.New(),
		OrderID:       "ORD-00A1B2",
		Status:        "Paid",
		PaymentStatus: "Paid",
		FinalTotal:    decimal.RequireFromString("1072.00"),
		Items: []queries.OrderItemView{{
			ProductID: productID,
			Title:     "Kettle",
			Category:  "kitchen",
			UnitPrice: decimal.RequireFromString("499.00"),
			Quantity:  2,
		}},
		PlacedOn:         placed,
		ExpectedDelivery: placed.Add(72 * time.Hour),
	}}

	s.Run("success: first page with next cursor", func() {
		next := &queries.Cursor{After: "djE6MTIz"}
		s.mockOrders.EXPECT().
			ListByUser(gomock.Any(), s.userID, (*queries.Cursor)(nil), 1).
			Return(items, next, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders?limit=1", nil, bearerToken)

		var body resdto.OrderListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Orders, 1)
		s.Equal("ORD-00A1B2", body.Orders[0].OrderID)
		s.Require().Len(body.Orders[0].Items, 1)
		s.Equal(productID.String(), body.Orders[0].Items[0].ProductID)
		s.Require().NotNil(body.NextCursor)
		s.Equal("djE6MTIz", *body.NextCursor)
	})

	s.Run("success: after cursor is forwarded, last page has no cursor", func() {
		s.mockOrders.EXPECT().
			ListByUser(gomock.Any(), s.userID, &queries.Cursor{After: "djE6MTIz"}, 0).
			Return([]*queries.OrderListItem{}, nil, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders?after=djE6MTIz", nil, bearerToken)

		var body resdto.OrderListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Empty(body.Orders)
		s.Nil(body.NextCursor)
	})

	s.Run("error: 400 on invalid limit", func() {
		for _, raw := range []string{"0", "-3", "ten"} {
			rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders?limit="+raw, nil, bearerToken)
			httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid limit")
		}
	})

	s.Run("error: 400 on malformed cursor", func() {
		s.mockOrders.EXPECT().
			ListByUser(gomock.Any(), s.userID, gomock.Any(), 0).
			Return(nil, nil, errs.Mark(errs.New("invalid cursor encoding"), errs.ErrValidation)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders?after=bogus", nil, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "invalid cursor")
	})
}

func (s *OrderHandlerTestSuite) TestTrack() {
	placed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	s.Run("success: history newest first", func() {
		view := &queries.TrackingView{
			OrderID:          "ORD-00A1B2",
			Status:           "Shipped",
			PlacedOn:         placed,
			ExpectedDelivery: placed.Add(72 * time.Hour),
			Tracking: []queries.TrackingEntryView{
				{Status: "Shipped", Location: "Hub", Note: "Left the warehouse", Timestamp: placed.Add(2 * time.Hour)},
				{Status: "Processing", Location: "Warehouse", Note: "Order received", Timestamp: placed},
			},
		}
		s.mockOrders.EXPECT().Track(gomock.Any(), s.userID, "ORD-00A1B2").Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders/ORD-00A1B2/track", nil, bearerToken)

		var body resdto.TrackingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("Shipped", body.Status)
		s.Require().Len(body.Tracking, 2)
		s.Equal("Shipped", body.Tracking[0].Status)
		s.Equal("Processing", body.Tracking[1].Status)
	})

	s.Run("error: 404 for unknown or foreign order", func() {
		s.mockOrders.EXPECT().Track(gomock.Any(), s.userID, "ORD-FFFFFF").Return(nil, errs.ErrOrderNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/orders/ORD-FFFFFF/track", nil, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Order not found")
	})
}

func (s *OrderHandlerTestSuite) TestPreviewTotal() {
	view := &queries.PriceView{
		Subtotal:   decimal.RequireFromString("998.00"),
		TaxRate:    decimal.RequireFromString("0.12"),
		Tax:        decimal.RequireFromString("119.76"),
		Shipping:   decimal.RequireFromString("54.24"),
		GrandTotal: decimal.RequireFromString("1172.00"),
		Discount:   decimal.Zero,
		FinalTotal: decimal.RequireFromString("1172.00"),
	}

	s.Run("success: empty body prices without coupon", func() {
		s.mockPricing.EXPECT().
			PreviewTotal(gomock.Any(), s.userID, reqdto.PreviewTotalRequest{}).
			Return(view, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/orders/preview-total", nil, bearerToken)

		var body resdto.PriceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.True(body.FinalTotal.Equal(decimal.RequireFromString("1172")))
	})

	s.Run("success: streamed body without a length still binds the coupon", func() {
		code := "SAVE10"
		s.mockPricing.EXPECT().
			PreviewTotal(gomock.Any(), s.userID, reqdto.PreviewTotalRequest{CouponCode: &code}).
			Return(view, nil).Times(1)

		rec := httptest.PerformRaw(s.T(), s.router, http.MethodPost, "/api/orders/preview-total",
			[]byte(`{"couponCode":"SAVE10"}`),
			httptest.WithHeader("Authorization", "Bearer "+bearerToken),
			func(r *http.Request) { r.ContentLength = -1 })
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 on malformed JSON", func() {
		rec := httptest.PerformRaw(s.T(), s.router, http.MethodPost, "/api/orders/preview-total",
			[]byte(`{"couponCode":`),
			httptest.WithHeader("Authorization", "Bearer "+bearerToken))
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: 422 when the coupon is rejected", func() {
		code := "EXPIRED"
		s.mockPricing.EXPECT().
			PreviewTotal(gomock.Any(), s.userID, reqdto.PreviewTotalRequest{CouponCode: &code}).
			Return(nil, &errs.CouponRejectedError{Reason: errs.New("coupon has expired")}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/orders/preview-total",
			reqdto.PreviewTotalRequest{CouponCode: &code}, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "coupon has expired")
	})
}

func (s *OrderHandlerTestSuite) TestReorder() {
	s.Run("success: returns the refreshed cart", func() {
		productID := uuid.New()
		s.mockCartCmd.EXPECT().Reorder(gomock.Any(), s.userID, "ORD-00A1B2").Return(nil, nil).Times(1)
		s.mockCarts.EXPECT().Get(gomock.Any(), s.userID).Return(&queries.CartView{
			Lines:     []queries.CartLineView{{ProductID: productID, Title: "Kettle", Quantity: 2, InStock: true}},
			ItemCount: 2,
		}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/orders/ORD-00A1B2/reorder", nil, bearerToken)

		var body resdto.CartResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(2, body.ItemCount)
		s.Require().Len(body.Lines, 1)
		s.Equal(productID, body.Lines[0].ProductID)
	})

	s.Run("error: 404 for unknown order", func() {
		s.mockCartCmd.EXPECT().Reorder(gomock.Any(), s.userID, "ORD-FFFFFF").Return(nil, errs.ErrOrderNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/orders/ORD-FFFFFF/reorder", nil, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Order not found")
	})
}
