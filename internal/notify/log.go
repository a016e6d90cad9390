package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/models"
)

// LogDispatcher writes notifications to the log instead of a transport.
// Used when no bot token is configured (local development, some tests).
type LogDispatcher struct {
	log *zap.Logger
}

// NewLogDispatcher creates a log-only dispatcher
func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) CommissionCredited(_ context.Context, referrer *models.Account, amount int64) {
	d.log.Info("commission credited",
		zap.Int64("referrer_id", referrer.TelegramID),
		zap.Int64("amount", amount),
		zap.Int64("balance", referrer.Balance))
}

func (d *LogDispatcher) WithdrawalApproved(_ context.Context, request *models.WithdrawalRequest, newBalance int64) {
	d.log.Info("withdrawal approved",
		zap.String("withdrawal_id", request.ID),
		zap.Int64("user_id", request.UserID),
		zap.Int64("amount", request.Amount),
		zap.Int64("new_balance", newBalance))
}

func (d *LogDispatcher) WithdrawalRejected(_ context.Context, request *models.WithdrawalRequest, reason string) {
	d.log.Info("withdrawal rejected",
		zap.String("withdrawal_id", request.ID),
		zap.Int64("user_id", request.UserID),
		zap.String("reason", reason))
}

func (d *LogDispatcher) PaymentApproved(_ context.Context, account *models.Account, payment *models.Payment) {
	d.log.Info("payment approved",
		zap.String("payment_id", payment.ID),
		zap.Int64("user_id", account.TelegramID))
}

func (d *LogDispatcher) PaymentRejected(_ context.Context, account *models.Account, payment *models.Payment, reason string) {
	d.log.Info("payment rejected",
		zap.String("payment_id", payment.ID),
		zap.Int64("user_id", account.TelegramID),
		zap.String("reason", reason))
}

func (d *LogDispatcher) RegistrationCompleted(_ context.Context, account *models.Account) {
	d.log.Info("registration completed",
		zap.Int64("user_id", account.TelegramID),
		zap.String("student_id", account.StudentID))
}

func (d *LogDispatcher) PaymentSubmitted(_ context.Context, account *models.Account, payment *models.Payment) {
	d.log.Info("payment submitted",
		zap.String("payment_id", payment.ID),
		zap.Int64("user_id", account.TelegramID))
}

func (d *LogDispatcher) WithdrawalRequested(_ context.Context, request *models.WithdrawalRequest, account *models.Account, minPaidReferrals int) {
	d.log.Info("withdrawal requested",
		zap.String("withdrawal_id", request.ID),
		zap.Int64("user_id", request.UserID),
		zap.Int64("amount", request.Amount),
		zap.String("method", string(request.Method)))
}
