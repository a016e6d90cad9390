package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/services/referral"
)

var (
	// ErrNotFound is returned when the payment does not exist.
	ErrNotFound = errors.New("payment: not found")

	// ErrAlreadyProcessed is returned when the payment is no longer pending.
	ErrAlreadyProcessed = errors.New("payment: already processed")

	// ErrAccountNotFound is returned when the submitting user has no account.
	ErrAccountNotFound = errors.New("payment: account not found")

	// ErrAccountActive is returned when the account is already activated and
	// needs no further registration payment.
	ErrAccountActive = errors.New("payment: account already active")
)

// Service handles manually verified registration payments: the student sends
// a screenshot, an admin approves or rejects it. Approval activates the
// account and triggers the referral commission for the stored referrer.
type Service struct {
	store    ledger.Store
	engine   *referral.Engine
	notifier notify.Dispatcher
	cfg      config.ReferralConfig
	log      *zap.Logger
}

// NewService creates a new payment service
func NewService(store ledger.Store, engine *referral.Engine, notifier notify.Dispatcher, cfg config.ReferralConfig, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		engine:   engine,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// Submit records a pending registration payment backed by the screenshot the
// student sent, and alerts the admins for review.
func (s *Service) Submit(ctx context.Context, userID int64, screenshotFileID string) (*models.Payment, error) {
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account.Status == models.AccountStatusActive {
		return nil, ErrAccountActive
	}

	pmt := &models.Payment{
		ID:               PaymentID(userID, time.Now()),
		UserID:           userID,
		Amount:           s.cfg.RegistrationFee,
		ScreenshotFileID: screenshotFileID,
		Status:           models.PaymentStatusPending,
		SubmittedAt:      time.Now(),
	}
	if err := s.store.CreatePayment(ctx, pmt); err != nil {
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	s.notifier.PaymentSubmitted(ctx, account, pmt)

	s.log.Info("registration payment submitted",
		zap.String("payment_id", pmt.ID),
		zap.Int64("user_id", userID))

	return pmt, nil
}

// Approve verifies a pending payment: the account flips to active, the user
// is notified, and if the account was referred the referrer is credited. The
// pending→approved transition is the idempotency guard, so a duplicate
// approval can never credit the referrer twice. A commission failure is
// logged, not propagated; the activation already happened and the
// reconciliation job will pick up the credit.
func (s *Service) Approve(ctx context.Context, paymentID string, adminID int64) (*models.Payment, error) {
	now := time.Now()
	err := s.store.TransitionPayment(ctx, paymentID, models.PaymentStatusPending, models.PaymentStatusApproved, map[string]interface{}{
		"processed_by": fmt.Sprintf("%d", adminID),
		"processed_at": now,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ledger.ErrStaleStatus) {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to approve payment: %w", err)
	}

	pmt, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if err := s.store.UpdateAccount(ctx, pmt.UserID, map[string]interface{}{
		"status": models.AccountStatusActive,
	}); err != nil {
		return nil, fmt.Errorf("failed to activate account: %w", err)
	}

	account, err := s.store.GetAccount(ctx, pmt.UserID)
	if err != nil {
		s.log.Warn("failed to load account after activation",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return pmt, nil
	}

	s.notifier.PaymentApproved(ctx, account, pmt)

	s.log.Info("registration payment approved",
		zap.String("payment_id", paymentID),
		zap.Int64("user_id", pmt.UserID),
		zap.Int64("admin_id", adminID))

	if account.ReferredBy != nil {
		if _, err := s.engine.CreditCommission(ctx, *account.ReferredBy, account.TelegramID); err != nil {
			if errors.Is(err, referral.ErrDuplicateCommission) {
				s.log.Info("referral commission already credited",
					zap.Int64("referrer_id", *account.ReferredBy),
					zap.Int64("referred_user_id", account.TelegramID))
			} else {
				s.log.Error("failed to credit referral commission",
					zap.Int64("referrer_id", *account.ReferredBy),
					zap.Int64("referred_user_id", account.TelegramID),
					zap.Error(err))
			}
		}
	}

	return pmt, nil
}

// Reject declines a pending payment with a reason. The account stays pending
// and the user can resubmit.
func (s *Service) Reject(ctx context.Context, paymentID string, adminID int64, reason string) (*models.Payment, error) {
	now := time.Now()
	err := s.store.TransitionPayment(ctx, paymentID, models.PaymentStatusPending, models.PaymentStatusRejected, map[string]interface{}{
		"rejection_reason": reason,
		"processed_by":     fmt.Sprintf("%d", adminID),
		"processed_at":     now,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, ledger.ErrStaleStatus) {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to reject payment: %w", err)
	}

	pmt, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if account, err := s.store.GetAccount(ctx, pmt.UserID); err == nil {
		s.notifier.PaymentRejected(ctx, account, pmt, reason)
	}

	s.log.Info("registration payment rejected",
		zap.String("payment_id", paymentID),
		zap.Int64("user_id", pmt.UserID),
		zap.String("reason", reason),
		zap.Int64("admin_id", adminID))

	return pmt, nil
}

// PaymentID builds the payment id from the user and the submission time.
func PaymentID(userID int64, at time.Time) string {
	return fmt.Sprintf("PM_%d_%d", userID, at.UnixMilli())
}
