// Package stripe adapts the Stripe Go SDK to the payment ports.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"checkout-core/internal/domain/payment"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/coupon"
)

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	StatusCode int
	Type       string
	Message    string
	cause      error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment provider returned %d", e.StatusCode)
	}
	return fmt.Sprintf("payment provider returned %d: %s (%s)", e.StatusCode, e.Message, e.Type)
}

func (e *ProviderError) Unwrap() error { return e.cause }

// Client opens hosted checkout sessions through the SDK. The backend URL is
// configurable so tests and sandboxes can point it at a local server.
type Client struct {
	sessions *session.Client
	coupons  *coupon.Client
	logger   *slog.Logger
}

func NewClient(baseURL, secretKey string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse payment url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("payment url must be absolute")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:        stripego.String(parsed.String()),
		HTTPClient: &http.Client{Timeout: timeout},
		// The order already exists when a session is opened; a retry is the
		// caller's decision.
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &sdkLogger{logger: logger},
	})
	return &Client{
		sessions: &session.Client{B: backend, Key: secretKey},
		coupons:  &coupon.Client{B: backend, Key: secretKey},
		logger:   logger,
	}, nil
}

// CreateCheckoutSession opens a hosted payment page. A positive discount is
// first registered as a single-use amount-off coupon.
func (c *Client) CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		SuccessURL:         stripego.String(req.SuccessURL),
		CancelURL:          stripego.String(req.CancelURL),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripego.CheckoutSessionLineItemParams{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency: stripego.String(req.Currency),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripego.String(item.Name),
				},
				UnitAmount: stripego.Int64(item.UnitPrice),
			},
			Quantity: stripego.Int64(item.Quantity),
		})
	}

	for _, opt := range req.ShippingOptions {
		params.ShippingOptions = append(params.ShippingOptions, shippingOption(req.Currency, opt))
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	if req.DiscountAmount > 0 {
		couponID, err := c.createCoupon(ctx, req)
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripego.CheckoutSessionDiscountParams{{Coupon: stripego.String(couponID)}}
	}

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, c.providerError("checkout.session", err)
	}
	if s.ID == "" || s.URL == "" {
		return nil, fmt.Errorf("payment provider returned an incomplete session")
	}
	return &payment.Session{ID: s.ID, URL: s.URL}, nil
}

func shippingOption(currency string, opt payment.ShippingOption) *stripego.CheckoutSessionShippingOptionParams {
	return &stripego.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripego.CheckoutSessionShippingOptionShippingRateDataParams{
			Type:        stripego.String("fixed_amount"),
			DisplayName: stripego.String(opt.DisplayName),
			FixedAmount: &stripego.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripego.Int64(opt.Amount),
				Currency: stripego.String(currency),
			},
			DeliveryEstimate: &stripego.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
				Minimum: &stripego.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
					Unit:  stripego.String("business_day"),
					Value: stripego.Int64(int64(opt.MinBusinessDays)),
				},
				Maximum: &stripego.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
					Unit:  stripego.String("business_day"),
					Value: stripego.Int64(int64(opt.MaxBusinessDays)),
				},
			},
		},
	}
}

func (c *Client) createCoupon(ctx context.Context, req payment.SessionRequest) (string, error) {
	params := &stripego.CouponParams{
		AmountOff: stripego.Int64(req.DiscountAmount),
		Currency:  stripego.String(req.Currency),
		Duration:  stripego.String(string(stripego.CouponDurationOnce)),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey + "-discount")
	}

	co, err := c.coupons.New(params)
	if err != nil {
		return "", c.providerError("coupon", err)
	}
	return co.ID, nil
}

// providerError flattens SDK API errors into ProviderError. Transport
// failures pass through unchanged.
func (c *Client) providerError(resource string, err error) error {
	var apiErr *stripego.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	c.logger.Error("payment provider request failed",
		slog.String("resource", resource),
		slog.Int("status", apiErr.HTTPStatusCode),
		slog.String("type", string(apiErr.Type)),
		slog.String("request_id", apiErr.RequestID))
	return &ProviderError{
		StatusCode: apiErr.HTTPStatusCode,
		Type:       string(apiErr.Type),
		Message:    apiErr.Msg,
		cause:      err,
	}
}

// sdkLogger routes SDK diagnostics into slog.
type sdkLogger struct {
	logger *slog.Logger
}

func (l *sdkLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *sdkLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *sdkLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *sdkLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
