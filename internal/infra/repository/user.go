package repository

import (
	"context"
	"log/slog"

	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"
	"checkout-core/internal/pkg/pgconv"
	"checkout-core/internal/usecase/commands"

	"github.com/google/uuid"
)

type UserRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewUserRepository(pool db.Pool, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: pool, logger: logger}
}

func (r *UserRepository) FindContact(ctx context.Context, userID uuid.UUID) (*commands.UserContact, error) {
	contact := commands.UserContact{UserID: userID}
	err := r.db.QueryRow(ctx, `SELECT name, email FROM users WHERE id = $1`, userID).
		Scan(&contact.Name, &contact.Email)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound("user not found")
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to find user", err)
	}
	return &contact, nil
}
