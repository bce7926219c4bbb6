package repository

import (
	"context"
	"log/slog"

	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"

	"github.com/google/uuid"
)

type WishlistRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewWishlistRepository(pool db.Pool, logger *slog.Logger) *WishlistRepository {
	return &WishlistRepository{db: pool, logger: logger}
}

func (r *WishlistRepository) RemoveProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = ANY($2)`,
		userID, productIDs,
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to prune wishlist", err)
	}
	return nil
}
