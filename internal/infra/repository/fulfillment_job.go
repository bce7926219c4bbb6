package repository

import (
	"context"
	"log/slog"
	"time"

	"checkout-core/internal/domain/fulfillment"
	"checkout-core/internal/domain/order"
	"checkout-core/internal/infra"
	"checkout-core/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FulfillmentJobRepository struct {
	db     db.Pool
	logger *slog.Logger
}

func NewFulfillmentJobRepository(pool db.Pool, logger *slog.Logger) *FulfillmentJobRepository {
	return &FulfillmentJobRepository{db: pool, logger: logger}
}

// Enqueue stores the whole plan or nothing.
func (r *FulfillmentJobRepository) Enqueue(ctx context.Context, jobs []fulfillment.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	return db.Within(ctx, r.db, r.logger, func(ctx context.Context, tx pgx.Tx) error {
		const insert = `INSERT INTO fulfillment_jobs (id, order_id, target_status, location, note, fire_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO NOTHING`

		for _, j := range jobs {
			if _, err := tx.Exec(ctx, insert, j.ID, j.OrderID, j.Target.String(), j.Location, j.Note, j.FireAt); err != nil {
				if db.IsForeignKeyViolation(err) {
					return infra.WrapRepoErr(r.logger, infra.KindForeignKeyViolated, "order for fulfillment job does not exist", err)
				}
				return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to enqueue fulfillment job", err)
			}
		}
		return nil
	})
}

// ListPending returns unfinished jobs, earliest first.
func (r *FulfillmentJobRepository) ListPending(ctx context.Context, limit int) ([]fulfillment.Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, target_status, location, note, fire_at FROM fulfillment_jobs
         WHERE done_at IS NULL ORDER BY fire_at, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list pending jobs", err)
	}
	defer rows.Close()

	var jobs []fulfillment.Job
	for rows.Next() {
		var (
			j      fulfillment.Job
			target string
		)
		if err := rows.Scan(&j.ID, &j.OrderID, &target, &j.Location, &j.Note, &j.FireAt); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan fulfillment job", err)
		}
		status, err := order.NewStatus(target)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "fulfillment job has unknown target "+target, err)
		}
		j.Target = status
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate pending jobs", err)
	}
	return jobs, nil
}

func (r *FulfillmentJobRepository) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE fulfillment_jobs SET done_at = $2 WHERE id = $1 AND done_at IS NULL`, id, at)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to mark fulfillment job done", err)
	}
	return nil
}
