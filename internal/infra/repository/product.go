package repository

import (
	"context"
	"log/slog"
	"time"

	"checkout-core/internal/domain/product"
	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"
	"checkout-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const productColumns = `id, title, price, sale_price, sale_ends_at, stock, category`

type ProductRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewProductRepository(pool db.Pool, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{db: pool, logger: logger}
}

// FindByIDs silently omits ids that do not exist.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to query products", err)
	}
	defer rows.Close()

	out := make([]*product.Product, 0, len(ids))
	for rows.Next() {
		var (
			id         uuid.UUID
			title      string
			price      decimal.Decimal
			salePrice  decimal.NullDecimal
			saleEndsAt pgtype.Timestamptz
			stock      int
			category   string
		)
		if err := rows.Scan(&id, &title, &price, &salePrice, &saleEndsAt, &stock, &category); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan product", err)
		}
		var sale *decimal.Decimal
		if salePrice.Valid {
			sale = &salePrice.Decimal
		}
		out = append(out, product.Reconstruct(id, title, price, sale, pgconv.TimePtrFromPgtype(saleEndsAt), stock, category))
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate products", err)
	}
	return out, nil
}

func (r *ProductRepository) DecrementStockIf(ctx context.Context, id uuid.UUID, qty int) (int, bool, error) {
	const decrement = `UPDATE products SET stock = stock - $2, updated_at = NOW()
        WHERE id = $1 AND stock >= $2
        RETURNING stock`

	var remaining int
	err := r.db.QueryRow(ctx, decrement, id, qty).Scan(&remaining)
	if err == nil {
		return remaining, true, nil
	}
	if !pgconv.IsNoRows(err) {
		return 0, false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decrement stock", err)
	}

	var available int
	err = r.db.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, id).Scan(&available)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return 0, false, nil
		}
		return 0, false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to read stock", err)
	}
	return available, false, nil
}

func (r *ProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, id, qty)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to increment stock", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("product not found")
	}
	return nil
}

func (r *ProductRepository) ClearExpiredSales(ctx context.Context, now time.Time) (int64, error) {
	const clear = `UPDATE products SET sale_price = NULL, sale_ends_at = NULL, updated_at = NOW()
        WHERE sale_price IS NOT NULL AND sale_ends_at IS NOT NULL AND sale_ends_at <= $1`

	tag, err := r.db.Exec(ctx, clear, now)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to clear expired sales", err)
	}
	return tag.RowsAffected(), nil
}
