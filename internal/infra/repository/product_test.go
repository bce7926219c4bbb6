//go:build unit

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout-core/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_FindByIDs(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, discardLogger())

	regular := uuid.New()
	onSale := uuid.New()
	endsAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "title", "price", "sale_price", "sale_ends_at", "stock", "category"}).
		AddRow(regular, "Desk Lamp", decimal.RequireFromString("1200.00"), decimal.NullDecimal{}, pgtype.Timestamptz{}, 4, "Home").
		AddRow(onSale, "Headphones", decimal.RequireFromString("5000.00"),
			decimal.NullDecimal{Decimal: decimal.RequireFromString("4000.00"), Valid: true},
			pgtype.Timestamptz{Time: endsAt, Valid: true}, 10, "Electronics")

	mock.ExpectQuery(q("FROM products WHERE id = ANY($1)")).
		WithArgs([]uuid.UUID{regular, onSale}).
		WillReturnRows(rows)

	products, err := repo.FindByIDs(context.Background(), []uuid.UUID{regular, onSale})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Nil(t, products[0].SalePrice())
	assert.Equal(t, "1200", products[0].Price().String())
	require.NotNil(t, products[1].SaleEndsAt())
	assert.True(t, products[1].OnSaleAt(endsAt.Add(-time.Hour)))
	assert.Equal(t, "4000", products[1].UnitPriceAt(endsAt.Add(-time.Hour)).String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByIDs_Empty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, discardLogger())

	products, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStockIf(t *testing.T) {
	id := uuid.New()

	testCases := []struct {
		name          string
		setup         func(mock pgxmock.PgxPoolIface)
		wantAvailable int
		wantOK        bool
		wantKind      infra.RepositoryErrorKind
	}{
		{
			name: "enough stock",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q("UPDATE products SET stock = stock - $2")).
					WithArgs(id, 3).
					WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(7))
			},
			wantAvailable: 7,
			wantOK:        true,
		},
		{
			name: "not enough stock reports what is left",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q("UPDATE products SET stock = stock - $2")).
					WithArgs(id, 3).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(q("SELECT stock FROM products WHERE id = $1")).
					WithArgs(id).
					WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(1))
			},
			wantAvailable: 1,
		},
		{
			name: "unknown product",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q("UPDATE products SET stock = stock - $2")).
					WithArgs(id, 3).
					WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(q("SELECT stock FROM products WHERE id = $1")).
					WithArgs(id).
					WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "database failure",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(q("UPDATE products SET stock = stock - $2")).
					WithArgs(id, 3).
					WillReturnError(errors.New("connection reset"))
			},
			wantKind: infra.KindDBFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMockPool(t)
			tc.setup(mock)
			repo := NewProductRepository(mock, discardLogger())

			available, ok, err := repo.DecrementStockIf(context.Background(), id, 3)
			if tc.wantKind != "" {
				require.Error(t, err)
				assert.True(t, infra.IsKind(err, tc.wantKind))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantAvailable, available)
			assert.Equal(t, tc.wantOK, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProductRepository_IncrementStock_Missing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, discardLogger())
	id := uuid.New()

	mock.ExpectExec(q("UPDATE products SET stock = stock + $2")).
		WithArgs(id, 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.IncrementStock(context.Background(), id, 2)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ClearExpiredSales(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, discardLogger())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(q("SET sale_price = NULL, sale_ends_at = NULL")).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.ClearExpiredSales(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
