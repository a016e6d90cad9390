package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
)

// ApprovalService processes admin decisions on pending withdrawal requests.
type ApprovalService struct {
	store    ledger.Store
	notifier notify.Dispatcher
	log      *zap.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(store ledger.Store, notifier notify.Dispatcher, log *zap.Logger) *ApprovalService {
	return &ApprovalService{
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Approve marks a pending request approved and debits the user's balance.
// The pending→approved transition is the idempotency claim: a second approve
// of the same request returns ErrAlreadyProcessed and changes nothing. The
// amount is re-validated against the live balance here, not just at request
// time; if the balance no longer covers it the request is rejected instead.
func (s *ApprovalService) Approve(ctx context.Context, requestID string, adminID int64) (*models.WithdrawalRequest, error) {
	now := time.Now()
	err := s.store.TransitionWithdrawal(ctx, requestID, models.WithdrawalStatusPending, models.WithdrawalStatusApproved, map[string]interface{}{
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
		return nil, fmt.Errorf("failed to approve withdrawal: %w", err)
	}

	request, err := s.store.GetWithdrawal(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal request: %w", err)
	}

	if err := s.store.ApplyWithdrawal(ctx, request.UserID, request.Amount); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, s.revertToRejected(ctx, request, adminID)
		}
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}

	account, err := s.store.GetAccount(ctx, request.UserID)
	if err != nil {
		s.log.Warn("failed to load account for approval notification",
			zap.String("request_id", requestID),
			zap.Error(err))
	} else {
		s.notifier.WithdrawalApproved(ctx, request, account.Balance)
	}

	s.log.Info("withdrawal approved",
		zap.String("request_id", requestID),
		zap.Int64("user_id", request.UserID),
		zap.Int64("amount", request.Amount),
		zap.Int64("admin_id", adminID))

	return request, nil
}

// Reject marks a pending request rejected with a reason. The balance was
// never debited, so no funds move.
func (s *ApprovalService) Reject(ctx context.Context, requestID string, adminID int64, reason string) (*models.WithdrawalRequest, error) {
	now := time.Now()
	err := s.store.TransitionWithdrawal(ctx, requestID, models.WithdrawalStatusPending, models.WithdrawalStatusRejected, map[string]interface{}{
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
		return nil, fmt.Errorf("failed to reject withdrawal: %w", err)
	}

	request, err := s.store.GetWithdrawal(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal request: %w", err)
	}

	s.notifier.WithdrawalRejected(ctx, request, reason)

	s.log.Info("withdrawal rejected",
		zap.String("request_id", requestID),
		zap.Int64("user_id", request.UserID),
		zap.String("reason", reason),
		zap.Int64("admin_id", adminID))

	return request, nil
}

// revertToRejected unwinds an approval whose debit failed the balance check.
// The request ends rejected with an explanatory reason and the user is told.
func (s *ApprovalService) revertToRejected(ctx context.Context, request *models.WithdrawalRequest, adminID int64) error {
	now := time.Now()
	err := s.store.TransitionWithdrawal(ctx, request.ID, models.WithdrawalStatusApproved, models.WithdrawalStatusRejected, map[string]interface{}{
		"rejection_reason": "balance no longer covers the requested amount",
		"processed_by":     fmt.Sprintf("%d", adminID),
		"processed_at":     now,
	})
	if err != nil {
		s.log.Error("failed to revert withdrawal after balance check",
			zap.String("request_id", request.ID),
			zap.Error(err))
		return fmt.Errorf("insufficient balance and revert failed: %w", err)
	}

	if reverted, err := s.store.GetWithdrawal(ctx, request.ID); err == nil {
		s.notifier.WithdrawalRejected(ctx, reverted, reverted.RejectionReason)
	}

	s.log.Warn("withdrawal rejected at approval, balance too low",
		zap.String("request_id", request.ID),
		zap.Int64("user_id", request.UserID),
		zap.Int64("amount", request.Amount))

	return ErrInsufficientBalance
}
