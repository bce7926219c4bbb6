package repository

import (
	"context"
	"log/slog"
	"time"

	"checkout-core/internal/domain/coupon"
	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"
	"checkout-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const couponColumns = `id, code, type, discount_percent, discount_amount, min_order_value,
    categories, first_order_only, max_usage, used_count, starts_at, expires_at, active`

type CouponRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewCouponRepository(pool db.Pool, logger *slog.Logger) *CouponRepository {
	return &CouponRepository{db: pool, logger: logger}
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var (
		p        coupon.Params
		pct, amt decimal.NullDecimal
	)
	err := r.db.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code).Scan(
		&p.ID, &p.Code, &p.Type, &pct, &amt, &p.MinOrderValue,
		&p.Categories, &p.FirstOrderOnly, &p.MaxUsage, &p.UsedCount, &p.StartsAt, &p.ExpiresAt, &p.Active,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound("coupon not found")
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find coupon by code", err)
	}
	if pct.Valid {
		p.DiscountPct = &pct.Decimal
	}
	if amt.Valid {
		p.DiscountAmount = &amt.Decimal
	}

	c, err := coupon.NewCoupon(p)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored coupon is invalid", err)
	}
	return c, nil
}

func (r *CouponRepository) CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
		couponID, userID,
	).Scan(&n)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to count coupon redemptions", err)
	}
	return n, nil
}

// Redeem claims one global use and the user's single use in one transaction.
func (r *CouponRepository) Redeem(ctx context.Context, couponID, userID uuid.UUID) error {
	return db.Within(ctx, r.db, r.logger, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE coupons SET used_count = used_count + 1 WHERE id = $1 AND used_count < max_usage`,
			couponID,
		)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to claim coupon use", err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrCouponExhausted
		}

		tag, err = tx.Exec(ctx,
			`INSERT INTO coupon_redemptions (coupon_id, user_id) VALUES ($1, $2)
             ON CONFLICT (coupon_id, user_id) DO NOTHING`,
			couponID, userID,
		)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to record coupon redemption", err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrCouponAlreadyUsed
		}
		return nil
	})
}

func (r *CouponRepository) ReleaseRedemption(ctx context.Context, couponID, userID uuid.UUID) error {
	return db.Within(ctx, r.db, r.logger, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
			couponID, userID,
		)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete coupon redemption", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`UPDATE coupons SET used_count = used_count - 1 WHERE id = $1 AND used_count > 0`,
			couponID,
		); err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to release coupon use", err)
		}
		return nil
	})
}

func (r *CouponRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE coupons SET active = FALSE WHERE active AND expires_at < $1`, now)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to deactivate expired coupons", err)
	}
	return tag.RowsAffected(), nil
}
