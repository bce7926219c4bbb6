package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"checkout-core/internal/domain/cart"
	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"
	"checkout-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type cartLineRecord struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type CartRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewCartRepository(pool db.Pool, logger *slog.Logger) *CartRepository {
	return &CartRepository{db: pool, logger: logger}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var (
		raw        []byte
		couponCode pgtype.Text
		updatedAt  time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT lines, coupon_code, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&raw, &couponCode, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound("cart not found")
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find cart", err)
	}

	var records []cartLineRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode cart lines", err)
	}
	lines := make([]cart.Line, 0, len(records))
	for _, rec := range records {
		lines = append(lines, cart.Line{ProductID: rec.ProductID, Quantity: rec.Quantity})
	}
	return cart.Reconstruct(userID, lines, pgconv.StringPtrFromPgtype(couponCode), updatedAt), nil
}

// Save upserts the whole cart.
func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	lines := c.Lines()
	records := make([]cartLineRecord, 0, len(lines))
	for _, l := range lines {
		records = append(records, cartLineRecord{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode cart lines", err)
	}

	const upsert = `INSERT INTO carts (user_id, lines, coupon_code, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET lines = EXCLUDED.lines, coupon_code = EXCLUDED.coupon_code, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, upsert, c.UserID(), raw, pgconv.StringPtrToPgtype(c.CouponCode()), c.UpdatedAt()); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save cart", err)
	}
	return nil
}
