package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/models"
)

func testConfig() config.ReferralConfig {
	return config.ReferralConfig{
		MinPaidReferrals:      4,
		MinWithdrawalAmount:   50,
		CommissionPerReferral: 30,
		RegistrationFee:       500,
	}
}

func TestCanWithdrawFreshAccount(t *testing.T) {
	account := &models.Account{TelegramID: 1}

	result := CanWithdraw(account, testConfig())

	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonInsufficientReferrals, result.Reason)
	assert.Equal(t, 4, result.MissingReferrals)
}

func TestCanWithdrawReferralsBeforeBalance(t *testing.T) {
	// Both constraints fail; the referral shortfall is reported.
	account := &models.Account{TelegramID: 1, PaidReferrals: 2, Balance: 10}

	result := CanWithdraw(account, testConfig())

	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonInsufficientReferrals, result.Reason)
	assert.Equal(t, 2, result.MissingReferrals)
}

func TestCanWithdrawEnoughReferralsNoBalance(t *testing.T) {
	account := &models.Account{TelegramID: 1, PaidReferrals: 4, Balance: 0}

	result := CanWithdraw(account, testConfig())

	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonInsufficientBalance, result.Reason)
	assert.Equal(t, 0, result.MissingReferrals)
}

func TestCanWithdrawBalanceJustBelowMinimum(t *testing.T) {
	account := &models.Account{TelegramID: 1, PaidReferrals: 4, Balance: 49}

	result := CanWithdraw(account, testConfig())

	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonInsufficientBalance, result.Reason)
}

func TestCanWithdrawEligible(t *testing.T) {
	account := &models.Account{TelegramID: 1, PaidReferrals: 4, Balance: 50}

	result := CanWithdraw(account, testConfig())

	assert.True(t, result.Eligible)
	assert.Equal(t, ReasonNone, result.Reason)
	assert.Equal(t, 0, result.MissingReferrals)
}

func TestCanWithdrawMissingNeverNegative(t *testing.T) {
	account := &models.Account{TelegramID: 1, PaidReferrals: 10, Balance: 20}

	result := CanWithdraw(account, testConfig())

	assert.False(t, result.Eligible)
	assert.Equal(t, 0, result.MissingReferrals)
}
