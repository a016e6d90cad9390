package withdrawal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/services/referral"
	"github.com/jutorials/backend/internal/session"
)

func testConfig() config.ReferralConfig {
	return config.ReferralConfig{
		MinPaidReferrals:      4,
		MinWithdrawalAmount:   50,
		CommissionPerReferral: 30,
		RegistrationFee:       500,
	}
}

func newTestWorkflow(t *testing.T) (*Workflow, *ledger.MemoryStore, *session.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	sessions := session.NewMemoryStore()
	workflow := NewWorkflow(store, sessions, notify.NewLogDispatcher(zap.NewNop()), testConfig(), zap.NewNop())
	return workflow, store, sessions
}

func seedEligibleAccount(t *testing.T, store *ledger.MemoryStore, id int64, balance int64) {
	t.Helper()
	require.NoError(t, store.CreateAccount(context.Background(), &models.Account{
		TelegramID:    id,
		FullName:      "Test Student",
		ReferralCode:  "JUTEST0001",
		Status:        models.AccountStatusActive,
		Balance:       balance,
		TotalEarned:   balance,
		PaidReferrals: 4,
	}))
}

func TestBeginRequiresAccount(t *testing.T) {
	workflow, _, _ := newTestWorkflow(t)

	_, err := workflow.Begin(context.Background(), 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestBeginNotEligibleReferrals(t *testing.T) {
	workflow, store, sessions := newTestWorkflow(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		TelegramID: 1, ReferralCode: "JUTEST0001", Balance: 300, PaidReferrals: 2,
	}))

	_, err := workflow.Begin(ctx, 1)
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	assert.Equal(t, referral.ReasonInsufficientReferrals, notEligible.Reason)
	assert.Equal(t, 2, notEligible.MissingReferrals)

	sess, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestFullTelebirrFlow(t *testing.T) {
	workflow, store, sessions := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	result, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectMethod, result.Session.Step)
	assert.Equal(t, int64(300), result.Balance)

	sess, err := workflow.SelectMethod(ctx, 1, "telebirr")
	require.NoError(t, err)
	assert.Equal(t, models.StepAmount, sess.Step)

	step, err := workflow.Input(ctx, 1, "100")
	require.NoError(t, err)
	assert.Equal(t, models.StepPhone, step.Session.Step)

	step, err = workflow.Input(ctx, 1, "251911223344")
	require.NoError(t, err)
	require.NotNil(t, step.Request)
	assert.Equal(t, int64(100), step.Request.Amount)
	assert.Equal(t, models.PaymentMethodTelebirr, step.Request.Method)
	assert.Equal(t, "251911223344", step.Request.Phone)
	assert.Equal(t, models.WithdrawalStatusPending, step.Request.Status)

	// Pending means no deduction.
	account, err := store.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(300), account.Balance)

	// Session destroyed at submission; stale input is a no-op.
	gone, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = workflow.Input(ctx, 1, "251911223344")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFullBankTransferFlow(t *testing.T) {
	workflow, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 500)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)

	_, err = workflow.SelectMethod(ctx, 1, "bank_transfer")
	require.NoError(t, err)

	step, err := workflow.Input(ctx, 1, "250")
	require.NoError(t, err)
	assert.Equal(t, models.StepAccount, step.Session.Step)

	step, err = workflow.Input(ctx, 1, "1000123456789")
	require.NoError(t, err)
	assert.Equal(t, models.StepAccountName, step.Session.Step)

	step, err = workflow.Input(ctx, 1, "Test Student")
	require.NoError(t, err)
	require.NotNil(t, step.Request)
	assert.Equal(t, "1000123456789", step.Request.AccountNumber)
	assert.Equal(t, "Test Student", step.Request.AccountName)
}

func TestSelectMethodInvalid(t *testing.T) {
	workflow, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)

	_, err = workflow.SelectMethod(ctx, 1, "paypal")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestSubmitAmountRejectsGarbage(t *testing.T) {
	workflow, store, sessions := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = workflow.SelectMethod(ctx, 1, "telebirr")
	require.NoError(t, err)

	_, err = workflow.Input(ctx, 1, "abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Flow did not advance.
	sess, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StepAmount, sess.Step)
}

func TestSubmitAmountBelowMinimum(t *testing.T) {
	workflow, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = workflow.SelectMethod(ctx, 1, "telebirr")
	require.NoError(t, err)

	_, err = workflow.Input(ctx, 1, "49")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSubmitAmountOverBalance(t *testing.T) {
	workflow, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 500)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = workflow.SelectMethod(ctx, 1, "telebirr")
	require.NoError(t, err)

	_, err = workflow.Input(ctx, 1, "1000")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// No request persisted.
	pending, err := store.ListPendingWithdrawals(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmitDetailRejectsBadPhone(t *testing.T) {
	workflow, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)
	_, err = workflow.SelectMethod(ctx, 1, "telebirr")
	require.NoError(t, err)
	_, err = workflow.Input(ctx, 1, "100")
	require.NoError(t, err)

	_, err = workflow.Input(ctx, 1, "0911223344")
	assert.ErrorIs(t, err, ErrInvalidPhone)

	_, err = workflow.Input(ctx, 1, "2519112233")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestTextDuringMethodSelection(t *testing.T) {
	workflow, store, _ := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)

	_, err = workflow.Input(ctx, 1, "telebirr")
	assert.ErrorIs(t, err, ErrUnexpectedInput)
}

func TestCancelDestroysSession(t *testing.T) {
	workflow, store, sessions := newTestWorkflow(t)
	ctx := context.Background()
	seedEligibleAccount(t, store, 1, 300)

	_, err := workflow.Begin(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, workflow.Cancel(ctx, 1))

	sess, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)
}
