package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/services/payment"
	"github.com/jutorials/backend/internal/services/withdrawal"
)

type rejectionKind string

const (
	rejectWithdrawal rejectionKind = "withdrawal"
	rejectPayment    rejectionKind = "payment"
)

type pendingRejection struct {
	kind rejectionKind
	id   string
}

func (b *Bot) setRejection(adminID int64, rejection pendingRejection) {
	b.mu.Lock()
	b.rejections[adminID] = rejection
	b.mu.Unlock()
}

func (b *Bot) takeRejection(adminID int64) (pendingRejection, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rejection, ok := b.rejections[adminID]
	if ok {
		delete(b.rejections, adminID)
	}
	return rejection, ok
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.log.Warn("failed to answer callback", zap.Error(err))
		}
	}()

	userID := cq.From.ID
	data := cq.Data

	switch {
	case data == "stream_natural":
		b.completeRegistration(ctx, userID, cq.From.UserName, "natural")
	case data == "stream_social":
		b.completeRegistration(ctx, userID, cq.From.UserName, "social")

	case strings.HasPrefix(data, "method_"):
		b.handleMethodSelection(ctx, userID, strings.TrimPrefix(data, "method_"))

	case strings.HasPrefix(data, "approve_withdrawal_"):
		b.handleApproveWithdrawal(ctx, userID, strings.TrimPrefix(data, "approve_withdrawal_"))
	case strings.HasPrefix(data, "reject_withdrawal_"):
		b.promptRejection(userID, rejectWithdrawal, strings.TrimPrefix(data, "reject_withdrawal_"))
	case strings.HasPrefix(data, "approve_payment_"):
		b.handleApprovePayment(ctx, userID, strings.TrimPrefix(data, "approve_payment_"))
	case strings.HasPrefix(data, "reject_payment_"):
		b.promptRejection(userID, rejectPayment, strings.TrimPrefix(data, "reject_payment_"))
	}
}

func (b *Bot) handleMethodSelection(ctx context.Context, userID int64, method string) {
	if _, err := b.workflow.SelectMethod(ctx, userID, method); err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrNoSession):
			b.reply(userID, "No withdrawal in progress. Send /withdraw to start one.")
		case errors.Is(err, withdrawal.ErrUnexpectedInput):
			// Stale button press from an earlier prompt.
		default:
			b.log.Error("method selection failed", zap.Int64("user_id", userID), zap.Error(err))
			b.reply(userID, "Something went wrong. Please try /withdraw again.")
		}
		return
	}

	b.reply(userID, fmt.Sprintf(
		"💵 How much do you want to withdraw? (minimum *%d ETB*)",
		b.cfg.Referral.MinWithdrawalAmount))
}

func (b *Bot) handleApproveWithdrawal(ctx context.Context, adminID int64, requestID string) {
	if !b.isAdmin(adminID) {
		return
	}

	request, err := b.approvals.Approve(ctx, requestID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrAlreadyProcessed):
			b.reply(adminID, "⚠️ This withdrawal was already processed.")
		case errors.Is(err, withdrawal.ErrInsufficientBalance):
			b.reply(adminID, "⚠️ The user's balance no longer covers the amount; the request was rejected instead.")
		case errors.Is(err, withdrawal.ErrNotFound):
			b.reply(adminID, "⚠️ Withdrawal request not found.")
		default:
			b.log.Error("withdrawal approval failed", zap.String("request_id", requestID), zap.Error(err))
			b.reply(adminID, "❌ Failed to approve the withdrawal. Check the logs.")
		}
		return
	}

	b.reply(adminID, fmt.Sprintf(
		"✅ Withdrawal `%s` approved.\nTransfer *%d ETB* via %s.",
		request.ID, request.Amount, request.Method))
}

func (b *Bot) handleApprovePayment(ctx context.Context, adminID int64, paymentID string) {
	if !b.isAdmin(adminID) {
		return
	}

	pmt, err := b.payments.Approve(ctx, paymentID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrAlreadyProcessed):
			b.reply(adminID, "⚠️ This payment was already processed.")
		case errors.Is(err, payment.ErrNotFound):
			b.reply(adminID, "⚠️ Payment not found.")
		default:
			b.log.Error("payment approval failed", zap.String("payment_id", paymentID), zap.Error(err))
			b.reply(adminID, "❌ Failed to approve the payment. Check the logs.")
		}
		return
	}

	b.reply(adminID, fmt.Sprintf("✅ Payment `%s` approved; the account is now active.", pmt.ID))
}

func (b *Bot) promptRejection(adminID int64, kind rejectionKind, id string) {
	if !b.isAdmin(adminID) {
		return
	}
	b.setRejection(adminID, pendingRejection{kind: kind, id: id})
	b.reply(adminID, fmt.Sprintf("✍️ Send the rejection reason for %s `%s`:", kind, id))
}

func (b *Bot) handleRejectionReason(ctx context.Context, message *tgbotapi.Message, rejection pendingRejection) {
	adminID := message.From.ID
	reason := strings.TrimSpace(message.Text)
	if reason == "" {
		// Put it back and re-prompt.
		b.setRejection(adminID, rejection)
		b.reply(message.Chat.ID, "The reason cannot be empty. Send the rejection reason:")
		return
	}

	switch rejection.kind {
	case rejectWithdrawal:
		if _, err := b.approvals.Reject(ctx, rejection.id, adminID, reason); err != nil {
			if errors.Is(err, withdrawal.ErrAlreadyProcessed) {
				b.reply(message.Chat.ID, "⚠️ This withdrawal was already processed.")
			} else {
				b.log.Error("withdrawal rejection failed", zap.String("request_id", rejection.id), zap.Error(err))
				b.reply(message.Chat.ID, "❌ Failed to reject the withdrawal.")
			}
			return
		}
	case rejectPayment:
		if _, err := b.payments.Reject(ctx, rejection.id, adminID, reason); err != nil {
			if errors.Is(err, payment.ErrAlreadyProcessed) {
				b.reply(message.Chat.ID, "⚠️ This payment was already processed.")
			} else {
				b.log.Error("payment rejection failed", zap.String("payment_id", rejection.id), zap.Error(err))
				b.reply(message.Chat.ID, "❌ Failed to reject the payment.")
			}
			return
		}
	}

	b.reply(message.Chat.ID, fmt.Sprintf("✅ %s `%s` rejected.", rejection.kind, rejection.id))
}

func (b *Bot) handlePending(ctx context.Context, message *tgbotapi.Message) {
	withdrawals, err := b.store.ListPendingWithdrawals(ctx)
	if err != nil {
		b.reply(message.Chat.ID, "❌ Failed to list pending withdrawals.")
		return
	}
	payments, err := b.store.ListPendingPayments(ctx)
	if err != nil {
		b.reply(message.Chat.ID, "❌ Failed to list pending payments.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Pending Reviews*\n\n💸 Withdrawals: %d\n", len(withdrawals))
	for _, r := range withdrawals {
		fmt.Fprintf(&sb, "• `%s`: %d ETB via %s\n", r.ID, r.Amount, r.Method)
	}
	fmt.Fprintf(&sb, "\n💰 Payments: %d\n", len(payments))
	for _, p := range payments {
		fmt.Fprintf(&sb, "• `%s`: %d ETB\n", p.ID, p.Amount)
	}
	b.reply(message.Chat.ID, sb.String())
}
