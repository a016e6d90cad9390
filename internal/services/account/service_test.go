package account

import (
	"context"
	"strings"
	"testing"

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

func validForm() RegistrationForm {
	return RegistrationForm{
		FullName:      "Abebe Kebede",
		ContactNumber: "0911223344",
		StudentID:     "RU1234/15",
		Stream:        "natural",
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	acct, err := svc.Register(context.Background(), 1, "abebe", validForm(), "")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusPending, acct.Status)
	assert.Equal(t, "Abebe Kebede", acct.FullName)
	assert.True(t, strings.HasPrefix(acct.ReferralCode, "JU"))
	assert.Len(t, acct.ReferralCode, 10)
	assert.Nil(t, acct.ReferredBy)
	assert.Zero(t, acct.Balance)
}

func TestRegisterTwice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, 1, "abebe", validForm(), "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, 1, "abebe", validForm(), "")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterDuplicateStudentID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, 1, "abebe", validForm(), "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, 2, "kebede", validForm(), "")
	assert.ErrorIs(t, err, ErrStudentIDTaken)
}

func TestRegisterIncompleteForm(t *testing.T) {
	svc, _ := newTestService(t)

	form := validForm()
	form.FullName = "  "
	_, err := svc.Register(context.Background(), 1, "abebe", form, "")
	assert.ErrorIs(t, err, ErrInvalidForm)
}

func TestRegisterWithReferralCode(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	referrer, err := svc.Register(ctx, 100, "referrer", RegistrationForm{
		FullName: "Referrer", ContactNumber: "0911000000", StudentID: "RU0001/15", Stream: "social",
	}, "")
	require.NoError(t, err)

	acct, err := svc.Register(ctx, 1, "abebe", validForm(), referrer.ReferralCode)
	require.NoError(t, err)
	require.NotNil(t, acct.ReferredBy)
	assert.Equal(t, int64(100), *acct.ReferredBy)

	// The join bumps the referrer's counters but pays nothing yet.
	updated, err := store.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalReferrals)
	assert.Equal(t, 1, updated.UnpaidReferrals)
	assert.Equal(t, 0, updated.PaidReferrals)
	assert.Zero(t, updated.Balance)
}

func TestRegisterUnknownReferralCodeIgnored(t *testing.T) {
	svc, _ := newTestService(t)

	acct, err := svc.Register(context.Background(), 1, "abebe", validForm(), "JUNOPE0000")
	require.NoError(t, err)
	assert.Nil(t, acct.ReferredBy)
}

func TestGenerateReferralCodeShape(t *testing.T) {
	code := GenerateReferralCode()
	assert.Len(t, code, 10)
	assert.True(t, strings.HasPrefix(code, "JU"))
	for _, r := range code[2:] {
		assert.Contains(t, "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", string(r))
	}
}
