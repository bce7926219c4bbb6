//go:build e2e

package checkout_test

import (
	"fmt"
	"net/http"
	nethttptest "net/http/httptest"
	"testing"
	"time"

	reqdto "checkout-core/internal/handler/dto/request"
	resdto "checkout-core/internal/handler/dto/response"
	"checkout-core/internal/infra/stripe"
	"checkout-core/tests/common/authtest"
	"checkout-core/tests/common/builder"
	"checkout-core/tests/common/dbtest"
	"checkout-core/tests/common/httptest"
	"checkout-core/tests/e2e"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	cartItemsURL = "/api/cart/items"
	checkoutURL  = "/api/checkout"
	previewURL   = "/api/orders/preview-total"
	webhookURL   = "/api/payment-webhook"
)

type checkoutSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func TestCheckoutSuite(t *testing.T) {
	suite.Run(t, new(checkoutSuite))
}

func (s *checkoutSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

// shopper seeds a user with one product in the cart and returns a token.
func (s *checkoutSuite) shopper(stock, quantity int) (uuid.UUID, uuid.UUID, string) {
	userID := dbtest.CreateTestUser(s.T(), s.DB, "Asha Rao", fmt.Sprintf("asha+%s@example.com", uuid.NewString()[:8]))
	productID := dbtest.CreateTestProduct(s.T(), s.DB, dbtest.ProductFixture{
		Title: "Steel Kettle", Price: "499.00", Stock: stock, Category: "kitchen",
	})
	token := s.jwt.GenerateToken(s.T(), userID)

	rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, cartItemsURL,
		reqdto.AddCartItemRequest{ProductID: productID, Quantity: quantity}, token)
	httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	return userID, productID, token
}

func (s *checkoutSuite) postCheckout(token, idempotencyKey string) *nethttptest.ResponseRecorder {
	return httptest.PerformRequest(s.T(), s.Router, http.MethodPost, checkoutURL,
		builder.NewCheckoutBuilder().BuildRequestDTO(), token, httptest.WithIdempotencyKey(idempotencyKey))
}

func (s *checkoutSuite) postWebhook(payload []byte, secret string) *nethttptest.ResponseRecorder {
	return httptest.PerformRaw(s.T(), s.Router, http.MethodPost, webhookURL, payload,
		httptest.WithHeader("Stripe-Signature", stripe.Sign(secret, payload, time.Now())))
}

func (s *checkoutSuite) TestCheckoutToPaid() {
	s.Run("preview, checkout, replay and payment confirmation", func() {
		_, productID, token := s.shopper(5, 2)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, previewURL, nil, token)
		var preview resdto.PriceResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &preview)
		s.True(preview.Subtotal.Equal(decimal.RequireFromString("998")))

		rec = s.postCheckout(token, "e2e-key-1")
		var placed resdto.CheckoutResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &placed)
		s.NotEmpty(placed.OrderID)
		s.NotEmpty(placed.PaymentURL)
		s.True(preview.FinalTotal.Equal(placed.FinalTotal), "preview and checkout must agree")
		s.Equal(3, dbtest.ProductStock(s.T(), s.DB, productID))
		sessions := s.Provider.SessionsCreated()

		rec = s.postCheckout(token, "e2e-key-1")
		var replayed resdto.CheckoutResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &replayed)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Idempotent-Replayed": "true"})
		s.Equal(placed.OrderID, replayed.OrderID)
		s.Equal(3, dbtest.ProductStock(s.T(), s.DB, productID), "replay must not reserve again")
		s.Equal(sessions, s.Provider.SessionsCreated())

		sessionID := fmt.Sprintf("cs_test_%d", sessions)
		event := []byte(fmt.Sprintf(
			`{"id":"evt_%s","type":"checkout.session.completed","data":{"object":{"id":"%s","payment_intent":"pi_1"}}}`,
			uuid.NewString(), sessionID))
		rec = s.postWebhook(event, s.Config.Payment.WebhookSecret)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)

		// redelivery is acknowledged without a second transition
		rec = s.postWebhook(event, s.Config.Payment.WebhookSecret)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/orders/"+placed.OrderID+"/track", nil, token)
		var tracking resdto.TrackingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &tracking)
		s.Equal("Paid", tracking.Status)
		s.Require().NotEmpty(tracking.Tracking)
		s.Equal("Paid", tracking.Tracking[0].Status)
	})
}

func (s *checkoutSuite) TestCheckoutFailures() {
	s.Run("insufficient stock leaves inventory untouched", func() {
		_, productID, token := s.shopper(1, 2)

		rec := s.postCheckout(token, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "Insufficient stock")
		s.Equal(1, dbtest.ProductStock(s.T(), s.DB, productID))
	})

	s.Run("expired token is turned away before any reservation", func() {
		userID, productID, _ := s.shopper(2, 1)

		rec := s.postCheckout(s.jwt.CreateExpiredToken(s.T(), userID), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Invalid or expired token")
		s.Equal(2, dbtest.ProductStock(s.T(), s.DB, productID))
	})

	s.Run("provider outage returns 502 and leaves the order reserved", func() {
		_, productID, token := s.shopper(4, 1)
		s.Provider.SetFailing(true)

		rec := s.postCheckout(token, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadGateway, "Payment provider")
		// The Processing order keeps its units until a webhook or support settles it.
		s.Equal(3, dbtest.ProductStock(s.T(), s.DB, productID))
	})

	s.Run("tampered webhook is rejected", func() {
		payload := []byte(`{"id":"evt_x","type":"checkout.session.completed","data":{"object":{"id":"cs_x"}}}`)
		rec := s.postWebhook(payload, "whsec_wrong")
		env := httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid signature")
		s.Equal("invalid_signature", env.Code)
	})

	s.Run("coupon cap of one admits a single checkout", func() {
		dbtest.CreatePercentCoupon(s.T(), s.DB, "ONCE10", "10", 1)

		_, _, first := s.shopper(5, 1)
		_, _, second := s.shopper(5, 1)

		for _, token := range []string{first, second} {
			rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPut, "/api/cart/coupon",
				reqdto.ApplyCouponRequest{Code: "ONCE10"}, token)
			httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
		}

		rec := s.postCheckout(first, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, nil)

		rec = s.postCheckout(second, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnprocessableEntity, "")
	})
}
