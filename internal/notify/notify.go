package notify

import (
	"context"

	"github.com/jutorials/backend/internal/models"
)

// Dispatcher delivers messages to users and admins. Every method is
// fire-and-forget: delivery failures are logged by the implementation and
// never propagated, so a dead chat can't block a ledger mutation.
type Dispatcher interface {
	// User-facing
	CommissionCredited(ctx context.Context, referrer *models.Account, amount int64)
	WithdrawalApproved(ctx context.Context, request *models.WithdrawalRequest, newBalance int64)
	WithdrawalRejected(ctx context.Context, request *models.WithdrawalRequest, reason string)
	PaymentApproved(ctx context.Context, account *models.Account, payment *models.Payment)
	PaymentRejected(ctx context.Context, account *models.Account, payment *models.Payment, reason string)

	// Admin-facing
	RegistrationCompleted(ctx context.Context, account *models.Account)
	PaymentSubmitted(ctx context.Context, account *models.Account, payment *models.Payment)
	WithdrawalRequested(ctx context.Context, request *models.WithdrawalRequest, account *models.Account, minPaidReferrals int)
}
