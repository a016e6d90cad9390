package withdrawal

import (
	"errors"
	"fmt"

	"github.com/jutorials/backend/internal/services/referral"
)

var (
	// ErrNoSession means no withdrawal flow is in progress for the user.
	// Stale input after submission or expiry lands here and is ignored.
	ErrNoSession = errors.New("withdrawal: no active session")

	// ErrUnexpectedInput means input arrived for a step the session is not
	// in. The session does not advance.
	ErrUnexpectedInput = errors.New("withdrawal: input does not match current step")

	// Validation errors: recoverable, the caller re-prompts without
	// advancing the flow.
	ErrInvalidMethod        = errors.New("withdrawal: invalid payment method")
	ErrInvalidAmount        = errors.New("withdrawal: amount must be a positive whole number above the minimum")
	ErrInvalidPhone         = errors.New("withdrawal: phone must match the national format 251XXXXXXXXX")
	ErrInvalidAccountNumber = errors.New("withdrawal: account number must not be empty")
	ErrInvalidAccountName   = errors.New("withdrawal: account holder name must not be empty")

	// ErrInsufficientBalance is returned when the requested amount exceeds
	// the balance, at collection time or at approval time.
	ErrInsufficientBalance = errors.New("withdrawal: amount exceeds available balance")

	// ErrAccountNotFound means the acting user has no account.
	ErrAccountNotFound = errors.New("withdrawal: account not found")

	// ErrNotFound means the referenced withdrawal request does not exist.
	ErrNotFound = errors.New("withdrawal: request not found")

	// ErrAlreadyProcessed means the request was already approved or
	// rejected; the second attempt mutates nothing.
	ErrAlreadyProcessed = errors.New("withdrawal: request already processed")
)

// NotEligibleError reports exactly which eligibility constraint failed, so
// the user can be told the gap rather than a generic refusal.
type NotEligibleError struct {
	Reason           referral.IneligibilityReason
	MissingReferrals int
	MinPaidReferrals int
	MinAmount        int64
	Balance          int64
}

func (e *NotEligibleError) Error() string {
	if e.Reason == referral.ReasonInsufficientReferrals {
		return fmt.Sprintf("withdrawal: not eligible, %d more paid referrals needed", e.MissingReferrals)
	}
	return fmt.Sprintf("withdrawal: not eligible, balance %d below minimum %d", e.Balance, e.MinAmount)
}
