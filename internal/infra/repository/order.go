package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"checkout-core/internal/domain/order"
	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"
	"checkout-core/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, code, user_id, items, subtotal, tax, shipping, discount, grand_total, final_total,
    coupon, status, payment_method, payment_status, session_id, transaction_id,
    shipping_address, expected_delivery, tracking, created_at, updated_at`

type OrderRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewOrderRepository(pool db.Pool, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{db: pool, logger: logger}
}

type orderDocuments struct {
	items    []byte
	coupon   []byte
	address  []byte
	tracking []byte
}

func encodeOrder(o *order.Order) (orderDocuments, error) {
	var (
		docs orderDocuments
		err  error
	)
	if docs.items, err = json.Marshal(o.Items()); err != nil {
		return docs, err
	}
	if c := o.Coupon(); c != nil {
		if docs.coupon, err = json.Marshal(c); err != nil {
			return docs, err
		}
	}
	if docs.address, err = json.Marshal(o.Address()); err != nil {
		return docs, err
	}
	if docs.tracking, err = json.Marshal(o.Tracking()); err != nil {
		return docs, err
	}
	return docs, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	docs, err := encodeOrder(o)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode order", err)
	}

	const insert = `INSERT INTO orders (` + orderColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	t := o.Totals()
	p := o.Payment()
	_, err = r.db.Exec(ctx, insert,
		o.ID(), o.Code().String(), o.UserID(), docs.items,
		t.Subtotal, t.Tax, t.Shipping, t.Discount, t.GrandTotal, t.FinalTotal,
		docs.coupon, o.Status().String(), p.Method.String(), p.Status.String(),
		pgconv.StringPtrToPgtype(p.SessionID), pgconv.StringPtrToPgtype(p.TransactionID),
		docs.address, o.ExpectedDelivery(), docs.tracking, o.CreatedAt(), o.UpdatedAt(),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "order code already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to create order", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) FindByCode(ctx context.Context, code string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE code = $1`, code)
}

func (r *OrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	return r.findOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id = $1`, sessionID)
}

func (r *OrderRepository) findOne(ctx context.Context, query string, arg any) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound("order not found")
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find order", err)
	}
	return o, nil
}

// CountCompletedPurchases counts orders whose payment went through.
func (r *OrderRepository) CountCompletedPurchases(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1 AND payment_status = $2`,
		userID, order.PaymentCompleted.String(),
	).Scan(&n)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to count purchases", err)
	}
	return n, nil
}

func (r *OrderRepository) AttachSession(ctx context.Context, id uuid.UUID, sessionID string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET session_id = $2, updated_at = $3 WHERE id = $1`,
		id, sessionID, at,
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to attach payment session", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("order not found")
	}
	return nil
}

func (r *OrderRepository) UpdateIfStatus(ctx context.Context, o *order.Order, expected order.Status) (bool, error) {
	docs, err := encodeOrder(o)
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode order", err)
	}

	const update = `UPDATE orders SET
            status = $3, payment_status = $4, session_id = $5, transaction_id = $6,
            tracking = $7, updated_at = $8
        WHERE id = $1 AND status = $2`

	p := o.Payment()
	tag, err := r.db.Exec(ctx, update,
		o.ID(), expected.String(), o.Status().String(), p.Status.String(),
		pgconv.StringPtrToPgtype(p.SessionID), pgconv.StringPtrToPgtype(p.TransactionID),
		docs.tracking, o.UpdatedAt(),
	)
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update order", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser pages newest first on the (created_at, id) keyset.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, afterCreatedAt *time.Time, afterID uuid.UUID, limit int) ([]*order.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if afterCreatedAt == nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE user_id = $1
             ORDER BY created_at DESC, id DESC LIMIT $2`,
			userID, limit)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND (created_at, id) < ($2, $3)
             ORDER BY created_at DESC, id DESC LIMIT $4`,
			userID, *afterCreatedAt, afterID, limit)
	}
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list orders", err)
	}
	defer rows.Close()

	out := make([]*order.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate orders", err)
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		p                        order.ReconstructParams
		code, status             string
		method, paymentStatus    string
		sessionID, transactionID pgtype.Text
		items, coupon            []byte
		address, tracking        []byte
	)
	err := row.Scan(
		&p.ID, &code, &p.UserID, &items,
		&p.Totals.Subtotal, &p.Totals.Tax, &p.Totals.Shipping, &p.Totals.Discount, &p.Totals.GrandTotal, &p.Totals.FinalTotal,
		&coupon, &status, &method, &paymentStatus, &sessionID, &transactionID,
		&address, &p.ExpectedDelivery, &tracking, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &p.Items); err != nil {
		return nil, err
	}
	if len(coupon) > 0 {
		var applied order.AppliedCoupon
		if err := json.Unmarshal(coupon, &applied); err != nil {
			return nil, err
		}
		p.Coupon = &applied
	}
	if err := json.Unmarshal(address, &p.Address); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tracking, &p.Tracking); err != nil {
		return nil, err
	}

	p.Code = order.Code(code)
	p.Status = order.Status(status)
	p.Payment = order.PaymentInfo{
		Method:        order.PaymentMethod(method),
		Status:        order.PaymentStatus(paymentStatus),
		SessionID:     pgconv.StringPtrFromPgtype(sessionID),
		TransactionID: pgconv.StringPtrFromPgtype(transactionID),
	}
	return order.Reconstruct(p), nil
}
