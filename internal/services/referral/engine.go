package referral

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
)

var (
	// ErrAccountNotFound is returned when the referrer (or referred user)
	// no longer exists. Callers on the payment-approval path log this and
	// continue; the commission is a best-effort side channel and must not
	// block payment approval.
	ErrAccountNotFound = errors.New("referral: account not found")

	// ErrDuplicateCommission is returned when a commission for the same
	// (referrer, referred user) pair already exists. No mutation happens;
	// a second invocation for the same pair is a caller bug.
	ErrDuplicateCommission = errors.New("referral: commission already credited for this pair")
)

// Engine credits referral commissions and maintains the referrer's counters.
// It is the only writer of commission-related balance fields.
type Engine struct {
	store    ledger.Store
	notifier notify.Dispatcher
	cfg      config.ReferralConfig
	log      *zap.Logger
	locks    accountLocks
}

// NewEngine creates a new commission engine
func NewEngine(store ledger.Store, notifier notify.Dispatcher, cfg config.ReferralConfig, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// CreditCommission awards the configured commission to referrerID for the
// converted referral of referredUserID. Called exactly when the referred
// user's registration payment is approved; the engine trusts that invocation
// point and does not re-validate payment state.
//
// Write ordering: the commission record is created first, as the uniqueness
// guard, and the balance increment follows. A crash in between leaves a
// recorded commission with a nil CreditedAt, which the reconciliation job
// detects and repairs, so a credited balance always has an audit record.
func (e *Engine) CreditCommission(ctx context.Context, referrerID, referredUserID int64) (*models.ReferralCommission, error) {
	unlock := e.locks.lock(referrerID)
	defer unlock()

	referrer, err := e.store.GetAccount(ctx, referrerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load referrer %d: %w", referrerID, err)
	}

	now := time.Now()
	commission := &models.ReferralCommission{
		ID:             CommissionID(referrerID, referredUserID, now),
		ReferrerID:     referrerID,
		ReferredUserID: referredUserID,
		Status:         models.CommissionStatusCompleted,
		Amount:         e.cfg.CommissionPerReferral,
		CreatedAt:      now,
	}

	if err := e.store.CreateCommission(ctx, commission); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			return nil, ErrDuplicateCommission
		}
		return nil, fmt.Errorf("failed to create commission record: %w", err)
	}

	if err := e.store.ApplyCommission(ctx, referrerID, commission.Amount); err != nil {
		// The commission record exists but the balance credit did not
		// land. Leave CreditedAt nil so the reconciler can repair it.
		e.log.Error("commission recorded but balance credit failed",
			zap.String("commission_id", commission.ID),
			zap.Int64("referrer_id", referrerID),
			zap.Error(err))
		return commission, fmt.Errorf("failed to credit referrer balance: %w", err)
	}

	creditedAt := time.Now()
	if err := e.store.MarkCommissionCredited(ctx, commission.ID, creditedAt); err != nil {
		// The credit landed; a stale marker only costs the reconciler a
		// no-op pass later.
		e.log.Warn("failed to mark commission credited",
			zap.String("commission_id", commission.ID),
			zap.Error(err))
	} else {
		commission.CreditedAt = &creditedAt
	}

	if err := e.store.ConvertPendingReferral(ctx, referrerID, referredUserID, creditedAt); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		e.log.Warn("failed to convert pending referral",
			zap.Int64("referrer_id", referrerID),
			zap.Int64("referred_user_id", referredUserID),
			zap.Error(err))
	}

	referrer.Balance += commission.Amount
	referrer.TotalEarned += commission.Amount
	referrer.PaidReferrals++
	e.notifier.CommissionCredited(ctx, referrer, commission.Amount)

	return commission, nil
}

// RecordPendingReferral durably links an invitee to their referrer at join
// time and bumps the referrer's total/unpaid counters. Idempotent: a repeated
// join for the same pair is a no-op.
func (e *Engine) RecordPendingReferral(ctx context.Context, referrerID, referredUserID int64) error {
	ref := &models.PendingReferral{
		ReferrerID:     referrerID,
		ReferredUserID: referredUserID,
		Status:         models.PendingReferralStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := e.store.CreatePendingReferral(ctx, ref); err != nil {
		if errors.Is(err, ledger.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to record pending referral: %w", err)
	}

	if err := e.store.ApplyReferralJoin(ctx, referrerID); err != nil {
		return fmt.Errorf("failed to update referrer counters: %w", err)
	}
	return nil
}

// CommissionID builds the deterministic commission id. Uniqueness is enforced
// by the (referrer, referred) index, not the id; the timestamp component only
// reduces accidental id collisions across unrelated pairs.
func CommissionID(referrerID, referredUserID int64, at time.Time) string {
	return fmt.Sprintf("RC_%d_%d_%d", referrerID, referredUserID, at.UnixNano())
}

// accountLocks serializes commission credits per referrer. The backing store
// already uses atomic field increments; this guard additionally covers stores
// without that primitive and keeps the record-then-credit sequence ordered
// for a single referrer.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (l *accountLocks) lock(id int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*sync.Mutex)
	}
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
