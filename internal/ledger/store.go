package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jutorials/backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrDuplicate is returned when a create collides with an existing
	// record (same id, or same unique pair for commissions and pending
	// referrals).
	ErrDuplicate = errors.New("ledger: duplicate record")

	// ErrInsufficientBalance is returned by ApplyWithdrawal when the
	// account balance no longer covers the amount.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrStaleStatus is returned by status transitions when the record is
	// not in the expected from-status (e.g. double approval).
	ErrStaleStatus = errors.New("ledger: record not in expected status")
)

// Store is the persistence contract for accounts, referral commissions,
// pending referrals, withdrawal requests and payments.
//
// The two Apply* operations are the only way balance-affecting account fields
// change. Implementations must make each of them a single atomic mutation
// (field-level increments, not load-then-store), so concurrent credits to the
// same referrer cannot lose updates.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
	GetAccountByStudentID(ctx context.Context, studentID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, id int64, fields map[string]interface{}) error
	CountAccounts(ctx context.Context, status models.AccountStatus) (int64, error)

	// ApplyCommission atomically credits a commission to the referrer:
	// balance += amount, total_earned += amount, paid_referrals += 1,
	// unpaid_referrals decremented but never below zero.
	ApplyCommission(ctx context.Context, referrerID int64, amount int64) error

	// ApplyWithdrawal atomically debits an approved withdrawal:
	// balance -= amount, total_withdrawn += amount, guarded by
	// balance >= amount (ErrInsufficientBalance otherwise).
	ApplyWithdrawal(ctx context.Context, userID int64, amount int64) error

	// ApplyReferralJoin atomically bumps the referrer's counters when an
	// invitee joins: total_referrals += 1, unpaid_referrals += 1.
	ApplyReferralJoin(ctx context.Context, referrerID int64) error

	// Pending referrals
	CreatePendingReferral(ctx context.Context, ref *models.PendingReferral) error
	ConvertPendingReferral(ctx context.Context, referrerID, referredUserID int64, at time.Time) error

	// Commissions
	CreateCommission(ctx context.Context, commission *models.ReferralCommission) error
	MarkCommissionCredited(ctx context.Context, id string, at time.Time) error
	ListCommissionsByReferrer(ctx context.Context, referrerID int64) ([]models.ReferralCommission, error)
	ListUncreditedCommissions(ctx context.Context, olderThan time.Time) ([]models.ReferralCommission, error)

	// Withdrawals
	CreateWithdrawal(ctx context.Context, withdrawal *models.WithdrawalRequest) error
	GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	// TransitionWithdrawal moves a request from one status to another,
	// applying the extra fields in the same write. The compare-and-set on
	// the from-status is the idempotency guard for approval/rejection.
	TransitionWithdrawal(ctx context.Context, id string, from, to models.WithdrawalStatus, fields map[string]interface{}) error
	ListPendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error)
	CountPendingWithdrawals(ctx context.Context) (int64, error)

	// Payments
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	TransitionPayment(ctx context.Context, id string, from, to models.PaymentStatus, fields map[string]interface{}) error
	ListPendingPayments(ctx context.Context) ([]models.Payment, error)
	CountPendingPayments(ctx context.Context) (int64, error)
}
