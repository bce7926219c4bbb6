package commands

import (
	"context"
	"log/slog"
	"time"

	"checkout-core/internal/domain/order"
	"checkout-core/internal/domain/otp"
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	LocationCustomerRequest = "Customer request"
	NoteCancelledViaOTP     = "Cancelled via OTP verification"
)

type OTPPolicy struct {
	TTL         time.Duration
	MaxAttempts int
}

type OTPIssued struct {
	OrderID   string
	ExpiresAt time.Time
}

type CancellationCommands interface {
	RequestCancelOTP(ctx context.Context, orderCode string, userID uuid.UUID) (*OTPIssued, error)
	ConfirmCancelOTP(ctx context.Context, orderCode string, userID uuid.UUID, req reqdto.ConfirmCancelOTPRequest) (*order.Order, error)
}

type cancellationUseCaseImpl struct {
	orders      OrderRepository
	otps        OTPRepository
	fulfillment FulfillmentCommands
	notifier    *Notifier
	policy      OTPPolicy
	clock       clock.Clock
	logger      *slog.Logger
}

func NewCancellationUseCase(
	orders OrderRepository,
	otps OTPRepository,
	fulfillment FulfillmentCommands,
	notifier *Notifier,
	policy OTPPolicy,
	clk clock.Clock,
	logger *slog.Logger,
) CancellationCommands {
	return &cancellationUseCaseImpl{
		orders:      orders,
		otps:        otps,
		fulfillment: fulfillment,
		notifier:    notifier,
		policy:      policy,
		clock:       clk,
		logger:      logger,
	}
}

func (c *cancellationUseCaseImpl) RequestCancelOTP(ctx context.Context, orderCode string, userID uuid.UUID) (*OTPIssued, error) {
	o, err := c.ownedOrder(ctx, orderCode, userID)
	if err != nil {
		return nil, err
	}
	if o.Status().IsTerminal() {
		return nil, errs.Mark(errs.Newf("order is %s", o.Status()), errs.ErrOrderNotCancellable)
	}

	now := c.clock.Now()
	existing, err := c.otps.Find(ctx, o.ID(), userID)
	switch {
	case err == nil && !existing.IsExpiredAt(now):
		return nil, &errs.OTPAlreadyIssuedError{RetryAfter: existing.RemainingValidity(now)}
	case err != nil && !infra.IsKind(err, infra.KindNotFound):
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	record, code, err := otp.Issue(o.ID(), userID, now, c.policy.TTL)
	if err != nil {
		return nil, errs.Wrap(err, "issue cancellation otp")
	}
	if err := c.otps.Save(ctx, record); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.notifier.CancellationOTP(ctx, o, code, c.policy.TTL.String())
	c.logger.Info("cancellation otp issued", "order_code", o.Code().String(), "user_id", userID)

	return &OTPIssued{OrderID: o.Code().String(), ExpiresAt: record.ExpiresAt()}, nil
}

func (c *cancellationUseCaseImpl) ConfirmCancelOTP(
	ctx context.Context,
	orderCode string,
	userID uuid.UUID,
	req reqdto.ConfirmCancelOTPRequest,
) (*order.Order, error) {
	o, err := c.ownedOrder(ctx, orderCode, userID)
	if err != nil {
		return nil, err
	}
	if o.Status() == order.StatusCancelled {
		return nil, errs.Mark(errs.New("order is already cancelled"), errs.ErrOrderNotCancellable)
	}

	if err := c.verify(ctx, o.ID(), userID, req.OTP); err != nil {
		return nil, err
	}

	cancelled, err := c.fulfillment.Cancel(ctx, o.ID(), LocationCustomerRequest, NoteCancelledViaOTP)
	if err != nil {
		return nil, err
	}
	c.discard(ctx, o.ID(), userID)
	return cancelled, nil
}

// verify checks code against the stored OTP. The attempt counter is bumped
// with a compare on the old count so concurrent guesses cannot both spend
// the same attempt.
func (c *cancellationUseCaseImpl) verify(ctx context.Context, orderID, userID uuid.UUID, code string) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		record, err := c.otps.Find(ctx, orderID, userID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrOTPExpired
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		before := record.Attempts()
		switch record.Verify(code, c.clock.Now(), c.policy.MaxAttempts) {
		case otp.OutcomeMatched:
			return nil
		case otp.OutcomeExpired:
			c.discard(ctx, orderID, userID)
			return errs.ErrOTPExpired
		case otp.OutcomeExhausted:
			c.discard(ctx, orderID, userID)
			return errs.ErrOTPAttemptsExceeded
		case otp.OutcomeMismatch:
			ok, err := c.otps.UpdateAttempts(ctx, record, before)
			if err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			if !ok {
				continue
			}
			return &errs.OTPMismatchError{RemainingAttempts: record.RemainingAttempts(c.policy.MaxAttempts)}
		}
	}
	return errs.Mark(errs.New("otp changed concurrently"), errs.ErrDatabaseOperationFailed)
}

func (c *cancellationUseCaseImpl) discard(ctx context.Context, orderID, userID uuid.UUID) {
	if err := c.otps.Delete(ctx, orderID, userID); err != nil && !infra.IsKind(err, infra.KindNotFound) {
		c.logger.Error("failed to delete cancellation otp", "order_id", orderID, "error", err)
	}
}

// ownedOrder hides orders of other users behind not found.
func (c *cancellationUseCaseImpl) ownedOrder(ctx context.Context, orderCode string, userID uuid.UUID) (*order.Order, error) {
	o, err := c.orders.FindByCode(ctx, orderCode)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !o.IsOwnedBy(userID) {
		return nil, errs.ErrOrderNotFound
	}
	return o, nil
}
