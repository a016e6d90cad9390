package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/services/referral"
)

func testConfig() config.ReferralConfig {
	return config.ReferralConfig{
		MinPaidReferrals:      4,
		MinWithdrawalAmount:   50,
		CommissionPerReferral: 30,
		RegistrationFee:       500,
	}
}

func newTestService(t *testing.T) (*Service, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	notifier := notify.NewLogDispatcher(zap.NewNop())
	engine := referral.NewEngine(store, notifier, testConfig(), zap.NewNop())
	svc := NewService(store, engine, notifier, testConfig(), zap.NewNop())
	return svc, store
}

func TestSubmit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Status: models.AccountStatusPending,
	}))

	pmt, err := svc.Submit(ctx, 1, "file-abc")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, pmt.Status)
	assert.Equal(t, int64(500), pmt.Amount)
	assert.Equal(t, "file-abc", pmt.ScreenshotFileID)
}

func TestSubmitWithoutAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), 1, "file-abc")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSubmitActiveAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Status: models.AccountStatusActive,
	}))

	_, err := svc.Submit(ctx, 1, "file-abc")
	assert.ErrorIs(t, err, ErrAccountActive)
}

func TestApproveActivatesAndCreditsReferrer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 100, ReferralCode: "JUREFE0001", Status: models.AccountStatusActive,
	}))
	referrerID := int64(100)
	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Status: models.AccountStatusPending,
		ReferredBy: &referrerID,
	}))

	pmt, err := svc.Submit(ctx, 1, "file-abc")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, pmt.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, approved.Status)

	student, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusActive, student.Status)

	referrer, err := store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(30), referrer.Balance)
	assert.Equal(t, 1, referrer.PaidReferrals)
}

func TestApproveTwiceCreditsOnce(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 100, ReferralCode: "JUREFE0001", Status: models.AccountStatusActive,
	}))
	referrerID := int64(100)
	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Status: models.AccountStatusPending,
		ReferredBy: &referrerID,
	}))

	pmt, err := svc.Submit(ctx, 1, "file-abc")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, pmt.ID, 42)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, pmt.ID, 42)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	referrer, err := store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(30), referrer.Balance)
	assert.Equal(t, 1, referrer.PaidReferrals)
}

func TestApproveWithoutReferrer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Status: models.AccountStatusPending,
	}))

	pmt, err := svc.Submit(ctx, 1, "file-abc")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, pmt.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, approved.Status)
}

func TestReject(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Status: models.AccountStatusPending,
	}))

	pmt, err := svc.Submit(ctx, 1, "file-abc")
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, pmt.ID, 42, "unreadable screenshot")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, rejected.Status)
	assert.Equal(t, "unreadable screenshot", rejected.RejectionReason)

	// The account stays pending and can resubmit.
	student, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusPending, student.Status)

	time.Sleep(2 * time.Millisecond)
	pmt2, err := svc.Submit(ctx, 1, "file-def")
	require.NoError(t, err)
	assert.NotEqual(t, pmt.ID, pmt2.ID)
}
