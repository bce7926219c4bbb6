package commands

import (
	"context"
	"log/slog"

	"checkout-core/internal/domain/cart"
	reqdto "checkout-core/internal/handler/dto/request"
	"checkout-core/internal/infra"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/errs"
	"checkout-core/internal/usecase/shared"

	"github.com/google/uuid"
)

type CartCommands interface {
	AddItem(ctx context.Context, userID uuid.UUID, req reqdto.AddCartItemRequest) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.Cart, error)
	// ApplyCoupon validates the coupon against the current cart before
	// remembering it for checkout.
	ApplyCoupon(ctx context.Context, userID uuid.UUID, req reqdto.ApplyCouponRequest) (*cart.Cart, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
	// Reorder copies the items of a past order into the cart.
	Reorder(ctx context.Context, userID uuid.UUID, orderCode string) (*cart.Cart, error)
}

type cartUseCaseImpl struct {
	carts    CartRepository
	products ProductRepository
	orders   OrderRepository
	quoter   *shared.Quoter
	clock    clock.Clock
	logger   *slog.Logger
}

func NewCartUseCase(
	carts CartRepository,
	products ProductRepository,
	orders OrderRepository,
	quoter *shared.Quoter,
	clk clock.Clock,
	logger *slog.Logger,
) CartCommands {
	return &cartUseCaseImpl{
		carts:    carts,
		products: products,
		orders:   orders,
		quoter:   quoter,
		clock:    clk,
		logger:   logger,
	}
}

func (uc *cartUseCaseImpl) AddItem(ctx context.Context, userID uuid.UUID, req reqdto.AddCartItemRequest) (*cart.Cart, error) {
	found, err := uc.products.FindByIDs(ctx, []uuid.UUID{req.ProductID})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if len(found) == 0 {
		return nil, errs.Mark(errs.ErrProductNotFound, errs.ErrValidation)
	}

	c, err := uc.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.AddItem(req.ProductID, req.Quantity, uc.clock.Now()); err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}
	return uc.save(ctx, c)
}

func (uc *cartUseCaseImpl) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.Cart, error) {
	c, err := uc.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveItem(productID, uc.clock.Now()) {
		return c, nil
	}
	return uc.save(ctx, c)
}

func (uc *cartUseCaseImpl) ApplyCoupon(ctx context.Context, userID uuid.UUID, req reqdto.ApplyCouponRequest) (*cart.Cart, error) {
	c, err := uc.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, errs.Mark(errEmptyCart, errs.ErrValidation)
	}

	now := uc.clock.Now()
	if _, _, err := uc.quoter.QuoteLines(ctx, c.Lines(), &req.Code, userID, now); err != nil {
		return nil, err
	}
	if err := c.ApplyCoupon(req.Code, now); err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}
	return uc.save(ctx, c)
}

func (uc *cartUseCaseImpl) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := uc.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.RemoveCoupon(uc.clock.Now())
	return uc.save(ctx, c)
}

func (uc *cartUseCaseImpl) Reorder(ctx context.Context, userID uuid.UUID, orderCode string) (*cart.Cart, error) {
	o, err := uc.orders.FindByCode(ctx, orderCode)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !o.IsOwnedBy(userID) {
		return nil, errs.ErrOrderNotFound
	}

	c, err := uc.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	for _, it := range o.Items() {
		if err := c.AddItem(it.ProductID, it.Quantity, now); err != nil {
			return nil, errs.Mark(err, errs.ErrValidation)
		}
	}
	return uc.save(ctx, c)
}

func (uc *cartUseCaseImpl) loadOrNew(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := uc.carts.FindByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if infra.IsKind(err, infra.KindNotFound) {
		return cart.NewCart(userID, uc.clock.Now()), nil
	}
	return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
}

func (uc *cartUseCaseImpl) save(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	if err := uc.carts.Save(ctx, c); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return c, nil
}
