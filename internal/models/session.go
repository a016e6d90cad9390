package models

// WithdrawalStep is the tagged state of the conversational withdrawal flow.
// Input arriving for a step the session is not in is rejected, never applied.
type WithdrawalStep string

const (
	StepSelectMethod WithdrawalStep = "select_method"
	StepAmount       WithdrawalStep = "amount"
	StepPhone        WithdrawalStep = "phone"
	StepAccount      WithdrawalStep = "account"
	StepAccountName  WithdrawalStep = "account_name"
)

// WithdrawalSession is the ephemeral per-user state of an in-progress
// withdrawal collection flow. It lives only in the session store (with a TTL
// enforced there); an absent session means no withdrawal is in progress.
// A WithdrawalRequest is persisted only at final submission, never
// incrementally, so an abandoned session leaves nothing behind.
type WithdrawalSession struct {
	UserID int64          `json:"user_id"`
	Step   WithdrawalStep `json:"step"`
	Method PaymentMethod  `json:"method,omitempty"`

	Amount        int64  `json:"amount,omitempty"`
	Phone         string `json:"phone,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
}
