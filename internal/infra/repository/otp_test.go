//go:build unit

package repository

import (
	"context"
	"testing"
	"time"

	"checkout-core/internal/domain/otp"
	"checkout-core/internal/infra"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPRepository_UpdateAttempts(t *testing.T) {
	orderID := uuid.New()
	userID := uuid.New()
	record := otp.Reconstruct(orderID, userID, "$2a$10$hash", time.Now().Add(time.Minute), 2)

	testCases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "count matched", affected: 1, want: true},
		{name: "count moved concurrently", affected: 0, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewOTPRepository(mock, discardLogger())

			mock.ExpectExec(q("UPDATE cancellation_otps SET attempts = $3")).
				WithArgs(orderID, userID, 2, 1).
				WillReturnResult(pgxmock.NewResult("UPDATE", tc.affected))

			ok, err := repo.UpdateAttempts(context.Background(), record, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOTPRepository_Delete_Missing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewOTPRepository(mock, discardLogger())
	orderID := uuid.New()
	userID := uuid.New()

	mock.ExpectExec(q("DELETE FROM cancellation_otps")).
		WithArgs(orderID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), orderID, userID)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
