package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-core/internal/domain/payment"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrMissingSignature   = webhook.ErrNotSigned
	ErrMalformedSignature = webhook.ErrInvalidHeader
	ErrSignatureMismatch  = webhook.ErrNoValidSignature
	ErrTimestampTolerance = webhook.ErrTooOld
	ErrMalformedEvent     = errors.New("malformed event payload")
)

var signatureErrors = []error{
	ErrMissingSignature, ErrMalformedSignature, ErrSignatureMismatch, ErrTimestampTolerance,
}

// Verifier checks Stripe-Signature headers with the shared webhook secret.
// The timestamp tolerance is measured against the wall clock.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, tolerance: tolerance}
}

func (v *Verifier) Verify(payload []byte, signatureHeader string) (*payment.Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		for _, sentinel := range signatureErrors {
			if errors.Is(err, sentinel) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return toEvent(evt)
}

// Sign builds a header Verify accepts. Used by local tooling and tests.
func Sign(secret string, payload []byte, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}

// toEvent reduces the SDK event to the fields the service acts on. Failed
// payment intents carry the checkout session in their metadata.
func toEvent(evt stripego.Event) (*payment.Event, error) {
	if evt.Type == "" || evt.Data == nil {
		return nil, ErrMalformedEvent
	}

	event := &payment.Event{ID: evt.ID, Type: payment.EventType(evt.Type)}
	switch event.Type {
	case payment.EventCheckoutCompleted:
		var s stripego.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		event.SessionID = s.ID
		if s.PaymentIntent != nil {
			event.TransactionID = s.PaymentIntent.ID
		}
	case payment.EventPaymentFailed:
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		event.TransactionID = pi.ID
		event.SessionID = pi.ID
		for _, key := range []string{"checkout_session_id", "sessionId", "session_id"} {
			if sid := pi.Metadata[key]; sid != "" {
				event.SessionID = sid
				break
			}
		}
	default:
		if id, ok := evt.Data.Object["id"].(string); ok {
			event.SessionID = id
		}
	}
	return event, nil
}
