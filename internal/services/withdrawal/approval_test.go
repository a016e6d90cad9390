package withdrawal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
)

func newTestApproval(t *testing.T) (*ApprovalService, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	svc := NewApprovalService(store, notify.NewLogDispatcher(zap.NewNop()), zap.NewNop())
	return svc, store
}

func seedRequest(t *testing.T, store *ledger.MemoryStore, userID, balance, amount int64) *models.WithdrawalRequest {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID:    userID,
		FullName:      "Test Student",
		ReferralCode:  "JUTEST0001",
		Status:        models.AccountStatusActive,
		Balance:       balance,
		TotalEarned:   balance,
		PaidReferrals: 4,
	}))
	request := &models.WithdrawalRequest{
		ID:          RequestID(userID, time.Now()),
		UserID:      userID,
		Amount:      amount,
		Method:      models.PaymentMethodTelebirr,
		Status:      models.WithdrawalStatusPending,
		Phone:       "251911223344",
		RequestedAt: time.Now(),
	}
	require.NoError(t, store.CreateWithdrawal(ctx, request))
	return request
}

func TestApprove(t *testing.T) {
	svc, store := newTestApproval(t)
	ctx := context.Background()
	request := seedRequest(t, store, 1, 300, 100)

	approved, err := svc.Approve(ctx, request.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, approved.Status)
	assert.Equal(t, "42", approved.ProcessedBy)
	assert.NotNil(t, approved.ProcessedAt)

	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.Balance)
	assert.Equal(t, int64(100), account.TotalWithdrawn)
	assert.Equal(t, account.TotalEarned-account.TotalWithdrawn, account.Balance)
}

func TestApproveTwice(t *testing.T) {
	svc, store := newTestApproval(t)
	ctx := context.Background()
	request := seedRequest(t, store, 1, 300, 100)

	_, err := svc.Approve(ctx, request.ID, 42)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, 42)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	// Debited exactly once.
	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.Balance)
	assert.Equal(t, int64(100), account.TotalWithdrawn)
}

func TestApproveUnknownRequest(t *testing.T) {
	svc, _ := newTestApproval(t)

	_, err := svc.Approve(context.Background(), "WD_1_123", 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveBalanceNoLongerCovers(t *testing.T) {
	svc, store := newTestApproval(t)
	ctx := context.Background()
	request := seedRequest(t, store, 1, 300, 100)

	// A prior approval drained the balance after this request was made.
	require.NoError(t, store.ApplyWithdrawal(ctx, 1, 250))

	_, err := svc.Approve(ctx, request.ID, 42)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// No partial debit, and the request ends rejected rather than
	// approved.
	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.Balance)
	assert.Equal(t, int64(250), account.TotalWithdrawn)

	stored, err := store.GetWithdrawal(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, stored.Status)
	assert.NotEmpty(t, stored.RejectionReason)
}

func TestReject(t *testing.T) {
	svc, store := newTestApproval(t)
	ctx := context.Background()
	request := seedRequest(t, store, 1, 300, 100)

	rejected, err := svc.Reject(ctx, request.ID, 42, "bad details")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, "bad details", rejected.RejectionReason)

	// Balance untouched.
	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(300), account.Balance)
	assert.Equal(t, int64(0), account.TotalWithdrawn)
}

func TestRejectThenApprove(t *testing.T) {
	svc, store := newTestApproval(t)
	ctx := context.Background()
	request := seedRequest(t, store, 1, 300, 100)

	_, err := svc.Reject(ctx, request.ID, 42, "bad details")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, request.ID, 42)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(300), account.Balance)
}
