package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"checkout-core/internal/infra/db"
	"checkout-core/internal/infra/memstore"
	"checkout-core/internal/infra/repository"
	"checkout-core/internal/pkg/config"
	"checkout-core/internal/usecase/commands"
	"checkout-core/internal/usecase/queries"

	"go.uber.org/fx"
)

const dbConnectTimeout = 10 * time.Second

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		NewStores,
	),
)

// Stores exposes one implementation per repository port, chosen by the
// configured driver.
type Stores struct {
	fx.Out

	Products   commands.ProductRepository
	Coupons    commands.CouponRepository
	Orders     commands.OrderRepository
	OrderReads queries.OrderReadRepository
	Carts      commands.CartRepository
	Wishlist   commands.WishlistRepository
	Users      commands.UserDirectory
	OTPs       commands.OTPRepository
	Jobs       commands.FulfillmentJobRepository
}

func NewStores(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (Stores, error) {
	switch cfg.Store.Driver {
	case StoreDriverMemory:
		logger.Info("using in-memory store")
		return MemoryStores(memstore.New()), nil
	case StoreDriverPostgres, "":
		return newPostgresStores(lc, cfg, logger)
	default:
		return Stores{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func MemoryStores(s *memstore.Store) Stores {
	orders := s.Orders()
	return Stores{
		Products:   s.Products(),
		Coupons:    s.Coupons(),
		Orders:     orders,
		OrderReads: orders,
		Carts:      s.Carts(),
		Wishlist:   s.Wishlists(),
		Users:      s.Users(),
		OTPs:       s.OTPs(),
		Jobs:       s.Jobs(),
	}
}

func newPostgresStores(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (Stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()

	pool, cleanup, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return Stores{}, err
	}
	if err := db.InitSchema(ctx, pool); err != nil {
		cleanup()
		return Stores{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	orders := repository.NewOrderRepository(pool, logger)
	return Stores{
		Products:   repository.NewProductRepository(pool, logger),
		Coupons:    repository.NewCouponRepository(pool, logger),
		Orders:     orders,
		OrderReads: orders,
		Carts:      repository.NewCartRepository(pool, logger),
		Wishlist:   repository.NewWishlistRepository(pool, logger),
		Users:      repository.NewUserRepository(pool, logger),
		OTPs:       repository.NewOTPRepository(pool, logger),
		Jobs:       repository.NewFulfillmentJobRepository(pool, logger),
	}, nil
}
