//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by *pgxpool.Pool and pgx.Tx.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func CreateTestUser(t *testing.T, db DBLike, name, email string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, "INSERT INTO users (id, name, email) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING",
		userID, name, email)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	}

	return userID
}

type ProductFixture struct {
	Title    string
	Price    string
	Stock    int
	Category string
}

func CreateTestProduct(t *testing.T, db DBLike, p ProductFixture) uuid.UUID {
	t.Helper()

	if p.Category == "" {
		p.Category = "general"
	}
	productID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO products (id, title, price, stock, category) VALUES ($1, $2, $3::numeric, $4, $5)",
		productID, p.Title, p.Price, p.Stock, p.Category)
	require.NoError(t, err)
	return productID
}

// CreatePercentCoupon inserts a coupon that is live for the next day.
func CreatePercentCoupon(t *testing.T, db DBLike, code, percent string, maxUsage int) uuid.UUID {
	t.Helper()

	couponID := uuid.New()
	now := time.Now().UTC()
	_, err := db.Exec(context.Background(),
		`INSERT INTO coupons (id, code, type, discount_percent, max_usage, starts_at, expires_at)
		 VALUES ($1, $2, 'percentage', $3::numeric, $4, $5, $6)`,
		couponID, code, percent, maxUsage, now.Add(-time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	return couponID
}

func ProductStock(t *testing.T, db DBLike, productID uuid.UUID) int {
	t.Helper()

	var stock int
	err := db.QueryRow(context.Background(), "SELECT stock FROM products WHERE id = $1", productID).Scan(&stock)
	require.NoError(t, err)
	return stock
}

var truncate struct {
	once sync.Once
	stmt string
	err  error
}

// ResetDB empties every public table. The table list is read once per process.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	truncate.once.Do(func() {
		rows, err := pool.Query(ctx,
			`SELECT format('public.%I', tablename) FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`)
		if err != nil {
			truncate.err = err
			return
		}
		tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			truncate.err = err
			return
		}
		if len(tables) == 0 {
			truncate.stmt = "SELECT 1"
			return
		}
		truncate.stmt = "TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	})
	if truncate.err != nil {
		return fmt.Errorf("list tables: %w", truncate.err)
	}
	_, err := pool.Exec(ctx, truncate.stmt)
	return err
}
