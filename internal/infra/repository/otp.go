package repository

import (
	"context"
	"log/slog"
	"time"

	"checkout-core/internal/domain/otp"
	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"
	"checkout-core/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type OTPRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewOTPRepository(pool db.Pool, logger *slog.Logger) *OTPRepository {
	return &OTPRepository{db: pool, logger: logger}
}

func (r *OTPRepository) Find(ctx context.Context, orderID, userID uuid.UUID) (*otp.CancellationOTP, error) {
	var (
		codeHash  string
		expiresAt time.Time
		attempts  int
	)
	err := r.db.QueryRow(ctx,
		`SELECT code_hash, expires_at, attempts FROM cancellation_otps WHERE order_id = $1 AND user_id = $2`,
		orderID, userID,
	).Scan(&codeHash, &expiresAt, &attempts)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound("otp not found")
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find otp", err)
	}
	return otp.Reconstruct(orderID, userID, codeHash, expiresAt, attempts), nil
}

// Save replaces any previous OTP for the same order and user.
func (r *OTPRepository) Save(ctx context.Context, o *otp.CancellationOTP) error {
	const upsert = `INSERT INTO cancellation_otps (order_id, user_id, code_hash, expires_at, attempts)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (order_id, user_id) DO UPDATE
        SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, attempts = EXCLUDED.attempts`

	if _, err := r.db.Exec(ctx, upsert, o.OrderID(), o.UserID(), o.CodeHash(), o.ExpiresAt(), o.Attempts()); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save otp", err)
	}
	return nil
}

func (r *OTPRepository) UpdateAttempts(ctx context.Context, o *otp.CancellationOTP, expected int) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE cancellation_otps SET attempts = $3 WHERE order_id = $1 AND user_id = $2 AND attempts = $4`,
		o.OrderID(), o.UserID(), o.Attempts(), expected,
	)
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update otp attempts", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OTPRepository) Delete(ctx context.Context, orderID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM cancellation_otps WHERE order_id = $1 AND user_id = $2`,
		orderID, userID,
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to delete otp", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("otp not found")
	}
	return nil
}
