package referral

import (
	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/models"
)

// IneligibilityReason tells the caller which constraint blocked a withdrawal,
// so the user can be told exactly what is missing.
type IneligibilityReason string

const (
	ReasonNone                  IneligibilityReason = ""
	ReasonInsufficientReferrals IneligibilityReason = "insufficient_referrals"
	ReasonInsufficientBalance   IneligibilityReason = "insufficient_balance"
)

// Eligibility is the result of the withdrawal eligibility check
type Eligibility struct {
	Eligible         bool
	MissingReferrals int
	Reason           IneligibilityReason
}

// CanWithdraw evaluates whether an account may request a withdrawal against
// the configured thresholds. Pure function, safe to call repeatedly.
// Referral shortfall is reported before balance shortfall when both apply.
func CanWithdraw(account *models.Account, cfg config.ReferralConfig) Eligibility {
	missing := cfg.MinPaidReferrals - account.PaidReferrals
	if missing < 0 {
		missing = 0
	}

	if account.PaidReferrals < cfg.MinPaidReferrals {
		return Eligibility{
			Eligible:         false,
			MissingReferrals: missing,
			Reason:           ReasonInsufficientReferrals,
		}
	}

	if account.Balance < cfg.MinWithdrawalAmount {
		return Eligibility{
			Eligible:         false,
			MissingReferrals: 0,
			Reason:           ReasonInsufficientBalance,
		}
	}

	return Eligibility{Eligible: true}
}
