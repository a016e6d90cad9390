package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jutorials/backend/internal/models"
)

func TestApplyCommissionCounters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", UnpaidReferrals: 2, TotalReferrals: 2,
	}))

	require.NoError(t, store.ApplyCommission(ctx, 1, 30))

	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(30), account.Balance)
	assert.Equal(t, int64(30), account.TotalEarned)
	assert.Equal(t, 1, account.PaidReferrals)
	assert.Equal(t, 1, account.UnpaidReferrals)
	assert.Equal(t, 2, account.TotalReferrals)
}

func TestApplyCommissionUnpaidFloor(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001",
	}))

	// No unpaid counter to decrement; it must not go negative.
	require.NoError(t, store.ApplyCommission(ctx, 1, 30))

	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, account.UnpaidReferrals)
	assert.Equal(t, 1, account.PaidReferrals)
}

func TestApplyWithdrawalGuard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Balance: 100, TotalEarned: 100,
	}))

	assert.ErrorIs(t, store.ApplyWithdrawal(ctx, 1, 101), ErrInsufficientBalance)

	require.NoError(t, store.ApplyWithdrawal(ctx, 1, 100))

	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.Balance)
	assert.Equal(t, int64(100), account.TotalWithdrawn)

	assert.ErrorIs(t, store.ApplyWithdrawal(ctx, 1, 1), ErrInsufficientBalance)
}

func TestCreateCommissionPairUniqueness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &models.ReferralCommission{
		ID: "RC_1_2_111", ReferrerID: 1, ReferredUserID: 2,
		Status: models.CommissionStatusCompleted, Amount: 30, CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateCommission(ctx, first))

	// Same pair under a different id still collides.
	dup := &models.ReferralCommission{
		ID: "RC_1_2_222", ReferrerID: 1, ReferredUserID: 2,
		Status: models.CommissionStatusCompleted, Amount: 30, CreatedAt: time.Now(),
	}
	assert.ErrorIs(t, store.CreateCommission(ctx, dup), ErrDuplicate)

	// A different pair is fine.
	other := &models.ReferralCommission{
		ID: "RC_1_3_333", ReferrerID: 1, ReferredUserID: 3,
		Status: models.CommissionStatusCompleted, Amount: 30, CreatedAt: time.Now(),
	}
	assert.NoError(t, store.CreateCommission(ctx, other))
}

func TestTransitionWithdrawalCAS(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateWithdrawal(ctx, &models.WithdrawalRequest{
		ID: "WD_1_111", UserID: 1, Amount: 100,
		Method: models.PaymentMethodTelebirr, Status: models.WithdrawalStatusPending,
		RequestedAt: time.Now(),
	}))

	now := time.Now()
	require.NoError(t, store.TransitionWithdrawal(ctx, "WD_1_111",
		models.WithdrawalStatusPending, models.WithdrawalStatusApproved,
		map[string]interface{}{"processed_by": "42", "processed_at": now}))

	err := store.TransitionWithdrawal(ctx, "WD_1_111",
		models.WithdrawalStatusPending, models.WithdrawalStatusRejected, nil)
	assert.ErrorIs(t, err, ErrStaleStatus)

	err = store.TransitionWithdrawal(ctx, "WD_missing",
		models.WithdrawalStatusPending, models.WithdrawalStatusApproved, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	request, err := store.GetWithdrawal(ctx, "WD_1_111")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, request.Status)
	assert.Equal(t, "42", request.ProcessedBy)
	require.NotNil(t, request.ProcessedAt)
}

func TestListUncreditedCommissions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	old := &models.ReferralCommission{
		ID: "RC_1_2_111", ReferrerID: 1, ReferredUserID: 2,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateCommission(ctx, old))

	fresh := &models.ReferralCommission{
		ID: "RC_1_3_222", ReferrerID: 1, ReferredUserID: 3,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateCommission(ctx, fresh))

	credited := &models.ReferralCommission{
		ID: "RC_1_4_333", ReferrerID: 1, ReferredUserID: 4,
		Status: models.CommissionStatusCompleted, Amount: 30,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.CreateCommission(ctx, credited))
	require.NoError(t, store.MarkCommissionCredited(ctx, credited.ID, time.Now()))

	// Only the old, uncredited record is inside the sweep window.
	out, err := store.ListUncreditedCommissions(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "RC_1_2_111", out[0].ID)
}

func TestMarkCommissionCreditedOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	commission := &models.ReferralCommission{
		ID: "RC_1_2_111", ReferrerID: 1, ReferredUserID: 2,
		Status: models.CommissionStatusCompleted, Amount: 30, CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateCommission(ctx, commission))

	require.NoError(t, store.MarkCommissionCredited(ctx, commission.ID, time.Now()))
	assert.ErrorIs(t, store.MarkCommissionCredited(ctx, commission.ID, time.Now()), ErrNotFound)
}
