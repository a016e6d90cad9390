package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
)

func TestReconcileRepairsCrashedCredit(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 100, ReferralCode: "JUTEST0001",
	}))

	// A commission record whose balance credit never landed: CreditedAt is
	// nil and the record is older than the grace window.
	require.NoError(t, store.CreateCommission(ctx, &models.ReferralCommission{
		ID: "RC_100_200_111", ReferrerID: 100, ReferredUserID: 200,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	job := NewReconcileCommissionsJob(store, zap.NewNop())
	require.NoError(t, job.Run(ctx))

	account, err := store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.Balance)
	assert.Equal(t, int64(30), account.TotalEarned)
	assert.Equal(t, 1, account.PaidReferrals)

	// A second sweep is a no-op: the record is now marked credited.
	require.NoError(t, job.Run(ctx))

	account, err = store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.Balance)
	assert.Equal(t, 1, account.PaidReferrals)
}

func TestReconcileSkipsFreshRecords(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 100, ReferralCode: "JUTEST0001",
	}))

	// Inside the grace window: probably an in-flight credit, leave it.
	require.NoError(t, store.CreateCommission(ctx, &models.ReferralCommission{
		ID: "RC_100_200_111", ReferrerID: 100, ReferredUserID: 200,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now(),
	}))

	job := NewReconcileCommissionsJob(store, zap.NewNop())
	require.NoError(t, job.Run(ctx))

	account, err := store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, account.Balance)
	assert.Zero(t, account.PaidReferrals)
}

func TestReconcileToleratesMissingAccount(t *testing.T) {
	store := ledger.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 100, ReferralCode: "JUTEST0001",
	}))

	require.NoError(t, store.CreateCommission(ctx, &models.ReferralCommission{
		ID: "RC_999_200_111", ReferrerID: 999, ReferredUserID: 200,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, store.CreateCommission(ctx, &models.ReferralCommission{
		ID: "RC_100_200_222", ReferrerID: 100, ReferredUserID: 200,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now().Add(-time.Hour),
	}))

	// The missing account is logged and skipped; the valid one is repaired.
	job := NewReconcileCommissionsJob(store, zap.NewNop())
	require.NoError(t, job.Run(ctx))

	account, err := store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.Balance)
}
