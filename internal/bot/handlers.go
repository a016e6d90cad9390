package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/services/account"
	"github.com/jutorials/backend/internal/services/payment"
	"github.com/jutorials/backend/internal/services/referral"
	"github.com/jutorials/backend/internal/services/withdrawal"
)

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	acct, err := b.accounts.Get(ctx, userID)
	if err == nil {
		switch acct.Status {
		case models.AccountStatusActive:
			b.reply(message.Chat.ID, fmt.Sprintf(
				"👋 Welcome back, %s!\n\nSend /balance to see your earnings or /referral to get your invite link.",
				acct.FullName))
		case models.AccountStatusPending:
			b.reply(message.Chat.ID, fmt.Sprintf(
				"👋 Hi %s, your registration is awaiting payment verification.\n\n"+
					"Pay the *%d ETB* registration fee and send me the screenshot if you haven't yet.",
				acct.FullName, b.cfg.Referral.RegistrationFee))
		default:
			b.reply(message.Chat.ID, "Your account is blocked. Contact the admin.")
		}
		return
	}
	if !errors.Is(err, account.ErrNotFound) {
		b.log.Error("failed to load account", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(message.Chat.ID, "Something went wrong. Please try again.")
		return
	}

	// Deep-link payload carries the referral code: t.me/<bot>?start=<code>
	b.beginRegistration(userID, message.CommandArguments())
}

func (b *Bot) handleBalance(ctx context.Context, message *tgbotapi.Message) {
	acct, ok := b.activeAccount(ctx, message)
	if !ok {
		return
	}

	b.reply(message.Chat.ID, fmt.Sprintf(
		"💰 *Your Earnings*\n\n"+
			"Balance: *%d ETB*\n"+
			"Total Earned: %d ETB\n"+
			"Total Withdrawn: %d ETB\n\n"+
			"📊 *Referrals*\n"+
			"✅ Paid: %d\n"+
			"⏳ Unpaid: %d\n"+
			"👥 Total: %d",
		acct.Balance, acct.TotalEarned, acct.TotalWithdrawn,
		acct.PaidReferrals, acct.UnpaidReferrals, acct.TotalReferrals))
}

func (b *Bot) handleReferral(ctx context.Context, message *tgbotapi.Message) {
	acct, ok := b.activeAccount(ctx, message)
	if !ok {
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", b.cfg.Telegram.BotUsername, acct.ReferralCode)
	b.reply(message.Chat.ID, fmt.Sprintf(
		"🔗 *Your Referral Link*\n\n"+
			"%s\n\n"+
			"Earn *%d ETB* for every friend who registers and pays through your link.\n"+
			"You need *%d paid referrals* to unlock withdrawals.",
		link, b.cfg.Referral.CommissionPerReferral, b.cfg.Referral.MinPaidReferrals))
}

func (b *Bot) handleWithdraw(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	result, err := b.workflow.Begin(ctx, userID)
	if err != nil {
		var notEligible *withdrawal.NotEligibleError
		switch {
		case errors.As(err, &notEligible):
			b.replyNotEligible(message.Chat.ID, notEligible)
		case errors.Is(err, withdrawal.ErrAccountNotFound):
			b.reply(message.Chat.ID, "You are not registered yet. Send /start to register.")
		default:
			b.log.Error("failed to begin withdrawal", zap.Int64("user_id", userID), zap.Error(err))
			b.reply(message.Chat.ID, "Something went wrong. Please try again.")
		}
		return
	}

	b.replyWithKeyboard(message.Chat.ID, fmt.Sprintf(
		"💸 *Withdrawal*\n\nBalance: *%d ETB*\n\nHow would you like to receive the money?",
		result.Balance),
		tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📱 Telebirr", "method_telebirr"),
				tgbotapi.NewInlineKeyboardButtonData("🏦 Bank Transfer", "method_bank_transfer"),
			),
		))
}

func (b *Bot) replyNotEligible(chatID int64, e *withdrawal.NotEligibleError) {
	if e.Reason == referral.ReasonInsufficientReferrals {
		b.reply(chatID, fmt.Sprintf(
			"🔒 *Withdrawals locked*\n\n"+
				"You need *%d paid referrals* to withdraw; you are *%d* away.\n"+
				"Share your referral link (/referral) to get there!",
			e.MinPaidReferrals, e.MissingReferrals))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"🔒 *Balance too low*\n\n"+
			"Your balance is *%d ETB*; the minimum withdrawal is *%d ETB*.",
		e.Balance, e.MinAmount))
}

func (b *Bot) handleCancel(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	if b.cancelRegistration(userID) {
		b.reply(message.Chat.ID, "Registration cancelled. Send /start to begin again.")
		return
	}

	if err := b.workflow.Cancel(ctx, userID); err != nil {
		b.log.Warn("failed to cancel withdrawal", zap.Int64("user_id", userID), zap.Error(err))
	}
	b.reply(message.Chat.ID, "Cancelled. Nothing was submitted.")
}

// handleWithdrawalInput routes free text into the withdrawal flow. Text with
// no active session is ignored rather than answered, so stray messages after
// a submission don't produce confusing errors.
func (b *Bot) handleWithdrawalInput(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	result, err := b.workflow.Input(ctx, userID, message.Text)
	if err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrNoSession):
			// No flow in progress; nothing to do.
		case errors.Is(err, withdrawal.ErrUnexpectedInput):
			b.reply(message.Chat.ID, "Please use the buttons above to continue.")
		case errors.Is(err, withdrawal.ErrInvalidAmount):
			b.reply(message.Chat.ID, fmt.Sprintf(
				"❌ Please send a whole number of at least *%d ETB*.", b.cfg.Referral.MinWithdrawalAmount))
		case errors.Is(err, withdrawal.ErrInsufficientBalance):
			b.reply(message.Chat.ID, "❌ That amount is more than your balance. Send a smaller amount.")
		case errors.Is(err, withdrawal.ErrInvalidPhone):
			b.reply(message.Chat.ID, "❌ Please send your Telebirr number in the format 2519XXXXXXXX.")
		case errors.Is(err, withdrawal.ErrInvalidAccountNumber):
			b.reply(message.Chat.ID, "❌ Please send your bank account number.")
		case errors.Is(err, withdrawal.ErrInvalidAccountName):
			b.reply(message.Chat.ID, "❌ Please send the account holder's name.")
		default:
			b.log.Error("withdrawal input failed", zap.Int64("user_id", userID), zap.Error(err))
			b.reply(message.Chat.ID, "Something went wrong. Please try again.")
		}
		return
	}

	if result.Request != nil {
		b.reply(message.Chat.ID, fmt.Sprintf(
			"✅ *Withdrawal request submitted!*\n\n"+
				"Amount: *%d ETB*\n"+
				"🆔 Request ID: `%s`\n\n"+
				"An admin will review it shortly. Your balance is not deducted until approval.",
			result.Request.Amount, result.Request.ID))
		return
	}

	switch result.Session.Step {
	case models.StepPhone:
		b.reply(message.Chat.ID, "📱 Send your Telebirr number (format 2519XXXXXXXX):")
	case models.StepAccount:
		b.reply(message.Chat.ID, "🏦 Send your bank account number:")
	case models.StepAccountName:
		b.reply(message.Chat.ID, "👤 Send the account holder's name:")
	}
}

func (b *Bot) handlePhoto(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	// The largest photo size is last.
	fileID := message.Photo[len(message.Photo)-1].FileID

	pmt, err := b.payments.Submit(ctx, userID, fileID)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrAccountNotFound):
			b.reply(message.Chat.ID, "You are not registered yet. Send /start to register first.")
		case errors.Is(err, payment.ErrAccountActive):
			b.reply(message.Chat.ID, "Your account is already active; no further payment is needed.")
		default:
			b.log.Error("payment submission failed", zap.Int64("user_id", userID), zap.Error(err))
			b.reply(message.Chat.ID, "Something went wrong. Please try sending the screenshot again.")
		}
		return
	}

	b.reply(message.Chat.ID, fmt.Sprintf(
		"📸 *Screenshot received!*\n\n"+
			"🆔 Payment ID: `%s`\n\n"+
			"An admin will verify your payment shortly. You will be notified here.",
		pmt.ID))
}

// activeAccount loads the sender's account and replies itself when the
// account is missing or not yet activated.
func (b *Bot) activeAccount(ctx context.Context, message *tgbotapi.Message) (*models.Account, bool) {
	acct, err := b.accounts.Get(ctx, message.From.ID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			b.reply(message.Chat.ID, "You are not registered yet. Send /start to register.")
		} else {
			b.log.Error("failed to load account", zap.Int64("user_id", message.From.ID), zap.Error(err))
			b.reply(message.Chat.ID, "Something went wrong. Please try again.")
		}
		return nil, false
	}
	if acct.Status != models.AccountStatusActive {
		b.reply(message.Chat.ID, "Your account is not active yet. Complete your registration payment first.")
		return nil, false
	}
	return acct, true
}
