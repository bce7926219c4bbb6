package components

import (
	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/pricing"
	"checkout-core/internal/pkg/clock"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/usecase"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/usecase/queries"
	"checkout-core/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecasePortsOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewPricingEngine,
	NewCheckoutPolicy,
	NewFulfillmentPolicy,
	NewOTPPolicy,
	shared.NewQuoter,
	commands.NewInventoryReserver,
	commands.NewNotifier,
)

// usecasePortsOption narrows the repository ports to the read-side
// interfaces the queries and the quoter declare.
var usecasePortsOption = fx.Provide(
	func(r commands.ProductRepository) shared.ProductFinder { return r },
	func(r commands.ProductRepository) queries.ProductReadRepository { return r },
	func(r commands.CouponRepository) shared.CouponFinder { return r },
	func(r commands.OrderRepository) shared.PurchaseCounter { return r },
	func(r commands.CartRepository) queries.CartReadRepository { return r },
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewCheckoutUseCase,
		commands.NewCartUseCase,
		commands.NewFulfillmentUseCase,
		commands.NewPaymentUseCase,
		commands.NewCancellationUseCase,
		commands.NewMaintenanceUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewOrderQueries,
		queries.NewPricingQueries,
		queries.NewCartQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewPricingEngine(cfg config.Config) (*pricing.Engine, error) {
	bands, err := pricing.ParseTaxBands(cfg.Pricing.TaxBands)
	if err != nil {
		return nil, err
	}
	return pricing.NewEngine(pricing.Policy{
		TaxBands:              bands,
		ShippingFee:           cfg.Pricing.ShippingFee,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
	}), nil
}

func NewCheckoutPolicy(cfg config.Config) commands.CheckoutPolicy {
	return commands.CheckoutPolicy{
		SuccessURL:     cfg.Checkout.SuccessURL,
		CancelURL:      cfg.Checkout.CancelURL,
		Currency:       cfg.Checkout.Currency,
		OrderPrefix:    cfg.Checkout.OrderPrefix,
		IdempotencyTTL: cfg.Checkout.IdempotencyTTL,
	}
}

func NewFulfillmentPolicy(cfg config.Config) commands.FulfillmentPolicy {
	f := cfg.Fulfillment
	return commands.FulfillmentPolicy{
		Resolver:  fulfillment.NewETAResolver(f.FastPostalCodes, f.FastTierDays, f.StandardTierDays),
		DayLength: f.DayLength,
	}
}

func NewOTPPolicy(cfg config.Config) commands.OTPPolicy {
	return commands.OTPPolicy{
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
	}
}
