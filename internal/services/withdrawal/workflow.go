package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/services/referral"
	"github.com/jutorials/backend/internal/session"
)

// telebirrPhonePattern is the national mobile format: country code 251
// followed by nine digits.
var telebirrPhonePattern = regexp.MustCompile(`^251\d{9}$`)

// Workflow drives the multi-step withdrawal collection flow. One session per
// user; a WithdrawalRequest is persisted exactly once, at final submission.
type Workflow struct {
	store    ledger.Store
	sessions session.Store
	notifier notify.Dispatcher
	cfg      config.ReferralConfig
	log      *zap.Logger
}

// NewWorkflow creates a new withdrawal workflow
func NewWorkflow(store ledger.Store, sessions session.Store, notifier notify.Dispatcher, cfg config.ReferralConfig, log *zap.Logger) *Workflow {
	return &Workflow{
		store:    store,
		sessions: sessions,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// BeginResult carries the new session plus the balance snapshot the caller
// shows in the method/amount prompts.
type BeginResult struct {
	Session *models.WithdrawalSession
	Balance int64
}

// StepResult is the outcome of advancing the flow one step. Request is
// non-nil only when the step completed the flow and a pending
// WithdrawalRequest was persisted.
type StepResult struct {
	Session *models.WithdrawalSession
	Request *models.WithdrawalRequest
}

// Begin starts a withdrawal flow. It gates on eligibility and replaces any
// stale session from a previous attempt.
func (w *Workflow) Begin(ctx context.Context, userID int64) (*BeginResult, error) {
	account, err := w.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	eligibility := referral.CanWithdraw(account, w.cfg)
	if !eligibility.Eligible {
		return nil, &NotEligibleError{
			Reason:           eligibility.Reason,
			MissingReferrals: eligibility.MissingReferrals,
			MinPaidReferrals: w.cfg.MinPaidReferrals,
			MinAmount:        w.cfg.MinWithdrawalAmount,
			Balance:          account.Balance,
		}
	}

	sess := &models.WithdrawalSession{
		UserID: userID,
		Step:   models.StepSelectMethod,
	}
	if err := w.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &BeginResult{Session: sess, Balance: account.Balance}, nil
}

// SelectMethod records the chosen payment method and advances to the amount
// step. Unknown methods re-prompt without advancing.
func (w *Workflow) SelectMethod(ctx context.Context, userID int64, method string) (*models.WithdrawalSession, error) {
	sess, err := w.currentSession(ctx, userID, models.StepSelectMethod)
	if err != nil {
		return nil, err
	}

	switch models.PaymentMethod(method) {
	case models.PaymentMethodTelebirr, models.PaymentMethodBankTransfer:
		sess.Method = models.PaymentMethod(method)
	default:
		return nil, ErrInvalidMethod
	}

	sess.Step = models.StepAmount
	if err := w.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// SubmitAmount validates the requested amount against the floor and the
// current balance snapshot, then advances to the method-specific branch.
// The balance is re-validated again at approval time.
func (w *Workflow) SubmitAmount(ctx context.Context, userID int64, input string) (*models.WithdrawalSession, error) {
	sess, err := w.currentSession(ctx, userID, models.StepAmount)
	if err != nil {
		return nil, err
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || amount < w.cfg.MinWithdrawalAmount {
		return nil, ErrInvalidAmount
	}

	account, err := w.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if amount > account.Balance {
		return nil, ErrInsufficientBalance
	}

	sess.Amount = amount
	if sess.Method == models.PaymentMethodTelebirr {
		sess.Step = models.StepPhone
	} else {
		sess.Step = models.StepAccount
	}
	if err := w.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return sess, nil
}

// Input routes free-text input to whatever step the session is on. Text
// arriving while the flow waits for a button press (method selection) does
// not advance anything.
func (w *Workflow) Input(ctx context.Context, userID int64, text string) (*StepResult, error) {
	sess, err := w.sessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sess.Step == models.StepAmount {
		updated, err := w.SubmitAmount(ctx, userID, text)
		if err != nil {
			return nil, err
		}
		return &StepResult{Session: updated}, nil
	}
	return w.SubmitDetail(ctx, userID, text)
}

// SubmitDetail feeds one method-specific detail into the flow. The telebirr
// branch submits after the phone number; the bank branch collects the account
// number and then the holder name before submitting.
func (w *Workflow) SubmitDetail(ctx context.Context, userID int64, input string) (*StepResult, error) {
	sess, err := w.sessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	input = strings.TrimSpace(input)

	switch sess.Step {
	case models.StepPhone:
		if !telebirrPhonePattern.MatchString(input) {
			return nil, ErrInvalidPhone
		}
		sess.Phone = input
		return w.submit(ctx, sess)

	case models.StepAccount:
		if input == "" {
			return nil, ErrInvalidAccountNumber
		}
		sess.AccountNumber = input
		sess.Step = models.StepAccountName
		if err := w.sessions.Put(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
		return &StepResult{Session: sess}, nil

	case models.StepAccountName:
		if input == "" {
			return nil, ErrInvalidAccountName
		}
		sess.AccountName = input
		return w.submit(ctx, sess)

	default:
		return nil, ErrUnexpectedInput
	}
}

// Cancel abandons the flow. Nothing was persisted, so there is nothing else
// to clean up.
func (w *Workflow) Cancel(ctx context.Context, userID int64) error {
	if err := w.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// submit is the single terminal success action: it persists the pending
// request, notifies the admins, and destroys the session. Once the session is
// gone, duplicate input has nothing to act on.
func (w *Workflow) submit(ctx context.Context, sess *models.WithdrawalSession) (*StepResult, error) {
	request := &models.WithdrawalRequest{
		ID:            RequestID(sess.UserID, time.Now()),
		UserID:        sess.UserID,
		Amount:        sess.Amount,
		Method:        sess.Method,
		Status:        models.WithdrawalStatusPending,
		Phone:         sess.Phone,
		AccountNumber: sess.AccountNumber,
		AccountName:   sess.AccountName,
		RequestedAt:   time.Now(),
	}

	if err := w.store.CreateWithdrawal(ctx, request); err != nil {
		// Session is kept so the user can retry the same step.
		return nil, fmt.Errorf("failed to persist withdrawal request: %w", err)
	}

	account, err := w.store.GetAccount(ctx, sess.UserID)
	if err != nil {
		w.log.Warn("failed to load account for withdrawal notification",
			zap.Int64("user_id", sess.UserID),
			zap.Error(err))
	} else {
		w.notifier.WithdrawalRequested(ctx, request, account, w.cfg.MinPaidReferrals)
	}

	if err := w.sessions.Delete(ctx, sess.UserID); err != nil {
		w.log.Warn("failed to clear withdrawal session",
			zap.Int64("user_id", sess.UserID),
			zap.Error(err))
	}

	return &StepResult{Request: request}, nil
}

// sessionFor loads the user's session, treating absence as no active flow.
func (w *Workflow) sessionFor(ctx context.Context, userID int64) (*models.WithdrawalSession, error) {
	sess, err := w.sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (w *Workflow) currentSession(ctx context.Context, userID int64, step models.WithdrawalStep) (*models.WithdrawalSession, error) {
	sess, err := w.sessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Step != step {
		return nil, ErrUnexpectedInput
	}
	return sess, nil
}

// RequestID builds the withdrawal request id from the user and the request
// time, matching the WD_<user>_<millis> shape admins see in notifications.
func RequestID(userID int64, at time.Time) string {
	return fmt.Sprintf("WD_%d_%d", userID, at.UnixMilli())
}
