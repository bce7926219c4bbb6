//go:build unit

package api_test

import (
	"net/http"
	"testing"

	"checkout-core/internal/handler/api"
	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/usecase/queries"
	"checkout-core/tests/common/httptest"
	"checkout-core/tests/common/testutil"
	commandsmock "checkout-core/tests/mock/commands"
	queriesmock "checkout-core/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const cartURL = "/api/cart"

type CartHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockCartCommands
	mockQueries  *queriesmock.MockCartQueries
	userID       uuid.UUID
}

func (s *CartHandlerTestSuite) SetupTest() {
	s.router = newTestEngine()
	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockCartCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockCartQueries(s.mockCtrl)
	s.userID = uuid.New()

	handler := api.NewCartHandler(s.mockCommands, s.mockQueries)
	group := s.router.Group(cartURL, fakeAuth(s.userID))
	group.GET("", handler.Get)
	group.POST("/items", handler.AddItem)
	group.DELETE("/items/:productId", handler.RemoveItem)
	group.PUT("/coupon", handler.ApplyCoupon)
	group.DELETE("/coupon", handler.RemoveCoupon)
}

func (s *CartHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestCartHandlerSuite(t *testing.T) {
	suite.Run(t, new(CartHandlerTestSuite))
}

func (s *CartHandlerTestSuite) expectView(lines ...queries.CartLineView) {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	s.mockQueries.EXPECT().Get(gomock.Any(), s.userID).
		Return(&queries.CartView{Lines: lines, ItemCount: count}, nil).Times(1)
}

func (s *CartHandlerTestSuite) TestGet() {
	s.Run("success: empty cart renders an empty list", func() {
		s.expectView()

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, cartURL, nil, bearerToken)

		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		s.Contains(rec.Body.String(), `"lines":[]`)
	})
}

func (s *CartHandlerTestSuite) TestAddItem() {
	productID := uuid.New()
	req := reqdto.AddCartItemRequest{ProductID: productID, Quantity: 2}

	s.Run("success", func() {
		s.mockCommands.EXPECT().AddItem(gomock.Any(), s.userID, req).Return(nil, nil).Times(1)
		s.expectView(queries.CartLineView{ProductID: productID, Quantity: 2, InStock: true})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, cartURL+"/items", req, bearerToken)

		var body resdto.CartResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(2, body.ItemCount)
	})

	s.Run("error: 400 on validation errors", func() {
		cases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "zero quantity", mutate: testutil.Field("quantity", 0)},
			{name: "missing productId", mutate: testutil.Field("productId", nil)},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), req, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, cartURL+"/items", body, bearerToken)
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
			})
		}
	})

	s.Run("error: 400 for unknown product", func() {
		s.mockCommands.EXPECT().AddItem(gomock.Any(), s.userID, req).
			Return(nil, errs.Mark(errs.ErrProductNotFound, errs.ErrValidation)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, cartURL+"/items", req, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Product not found")
	})
}

func (s *CartHandlerTestSuite) TestRemoveItem() {
	s.Run("success", func() {
		productID := uuid.New()
		s.mockCommands.EXPECT().RemoveItem(gomock.Any(), s.userID, productID).Return(nil, nil).Times(1)
		s.expectView()

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, cartURL+"/items/"+productID.String(), nil, bearerToken)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 400 on malformed product id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, cartURL+"/items/not-a-uuid", nil, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})
}

func (s *CartHandlerTestSuite) TestCoupon() {
	req := reqdto.ApplyCouponRequest{Code: "SAVE10"}

	s.Run("success: apply", func() {
		s.mockCommands.EXPECT().ApplyCoupon(gomock.Any(), s.userID, req).Return(nil, nil).Times(1)
		s.expectView()

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, cartURL+"/coupon", req, bearerToken)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 422 when the coupon is rejected", func() {
		s.mockCommands.EXPECT().ApplyCoupon(gomock.Any(), s.userID, req).
			Return(nil, &errs.CouponRejectedError{Reason: errs.New("minimum purchase not met")}).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, cartURL+"/coupon", req, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "minimum purchase not met")
	})

	s.Run("error: 400 without a code", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, cartURL+"/coupon", map[string]any{}, bearerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "")
	})

	s.Run("success: remove", func() {
		s.mockCommands.EXPECT().RemoveCoupon(gomock.Any(), s.userID).Return(nil, nil).Times(1)
		s.expectView()

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, cartURL+"/coupon", nil, bearerToken)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})
}
