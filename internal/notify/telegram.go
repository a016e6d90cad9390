package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/models"
)

// TelegramDispatcher sends notifications over the Telegram Bot API.
type TelegramDispatcher struct {
	bot      *tgbotapi.BotAPI
	adminIDs []int64
	log      *zap.Logger
}

// NewTelegramDispatcher creates a dispatcher that messages users directly and
// fans admin notifications out to every configured admin chat.
func NewTelegramDispatcher(bot *tgbotapi.BotAPI, adminIDs []int64, log *zap.Logger) *TelegramDispatcher {
	return &TelegramDispatcher{bot: bot, adminIDs: adminIDs, log: log}
}

func (d *TelegramDispatcher) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := d.bot.Send(msg); err != nil {
		d.log.Warn("failed to send notification",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (d *TelegramDispatcher) sendAdmins(text string) {
	for _, adminID := range d.adminIDs {
		d.send(adminID, text)
	}
}

func (d *TelegramDispatcher) sendAdminsWithKeyboard(text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	for _, adminID := range d.adminIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = keyboard
		if _, err := d.bot.Send(msg); err != nil {
			d.log.Warn("failed to send admin notification",
				zap.Int64("chat_id", adminID),
				zap.Error(err))
		}
	}
}

func reviewKeyboard(approveData, rejectData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", approveData),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", rejectData),
		),
	)
}

func (d *TelegramDispatcher) CommissionCredited(_ context.Context, referrer *models.Account, amount int64) {
	d.send(referrer.TelegramID, fmt.Sprintf(
		"🎉 *REFERRAL COMMISSION EARNED!*\n\n"+
			"One of your referrals completed their payment.\n"+
			"Commission: *%d ETB*\n\n"+
			"💰 New Balance: %d ETB\n"+
			"✅ Paid Referrals: %d",
		amount, referrer.Balance, referrer.PaidReferrals))
}

func (d *TelegramDispatcher) WithdrawalApproved(_ context.Context, request *models.WithdrawalRequest, newBalance int64) {
	d.send(request.UserID, fmt.Sprintf(
		"🎉 *WITHDRAWAL APPROVED!*\n\n"+
			"Amount: *%d ETB*\n"+
			"The funds will be transferred to your account within 24-48 hours.\n\n"+
			"💰 New Balance: %d ETB",
		request.Amount, newBalance))
}

func (d *TelegramDispatcher) WithdrawalRejected(_ context.Context, request *models.WithdrawalRequest, reason string) {
	d.send(request.UserID, fmt.Sprintf(
		"❌ *WITHDRAWAL REJECTED*\n\n"+
			"Withdrawal ID: `%s`\n"+
			"Reason: %s\n\n"+
			"Your balance was not changed. Contact the admin if you need help.",
		request.ID, reason))
}

func (d *TelegramDispatcher) PaymentApproved(_ context.Context, account *models.Account, payment *models.Payment) {
	d.send(account.TelegramID, fmt.Sprintf(
		"🎉 *PAYMENT APPROVED!*\n\n"+
			"Your payment has been verified and approved!\n"+
			"You are now officially registered for JU Tutorial Classes.\n\n"+
			"📝 Name: %s\n"+
			"💵 Amount: %d ETB\n\n"+
			"You can now use your referral link to invite friends and earn commissions!",
		account.FullName, payment.Amount))
}

func (d *TelegramDispatcher) PaymentRejected(_ context.Context, account *models.Account, payment *models.Payment, reason string) {
	d.send(account.TelegramID, fmt.Sprintf(
		"❌ *PAYMENT REJECTED*\n\n"+
			"Payment ID: `%s`\n"+
			"Reason: %s\n\n"+
			"Please submit a new screenshot or contact the admin.",
		payment.ID, reason))
}

func (d *TelegramDispatcher) RegistrationCompleted(_ context.Context, account *models.Account) {
	d.sendAdmins(fmt.Sprintf(
		"🎯 *NEW STUDENT REGISTRATION!*\n\n"+
			"👤 Name: %s\n"+
			"📞 Contact: %s\n"+
			"🎓 Student ID: %s\n"+
			"🏫 Stream: %s\n"+
			"🆔 Telegram: @%s",
		account.FullName, account.ContactNumber, account.StudentID,
		account.Stream, orNA(account.Username)))
}

func (d *TelegramDispatcher) PaymentSubmitted(_ context.Context, account *models.Account, payment *models.Payment) {
	d.sendAdminsWithKeyboard(fmt.Sprintf(
		"💰 *PAYMENT SUBMITTED - AWAITING APPROVAL!*\n\n"+
			"👤 Student: %s\n"+
			"🎓 Student ID: %s\n"+
			"💵 Amount: %d ETB\n"+
			"🆔 Payment ID: `%s`",
		account.FullName, account.StudentID, payment.Amount, payment.ID),
		reviewKeyboard("approve_payment_"+payment.ID, "reject_payment_"+payment.ID))
}

func (d *TelegramDispatcher) WithdrawalRequested(_ context.Context, request *models.WithdrawalRequest, account *models.Account, minPaidReferrals int) {
	d.sendAdminsWithKeyboard(fmt.Sprintf(
		"💸 *NEW WITHDRAWAL REQUEST!*\n\n"+
			"👤 User: %s (@%s)\n"+
			"💵 Amount: %d ETB\n"+
			"💳 Method: %s\n"+
			"%s\n"+
			"📊 Paid Referrals: %d/%d\n"+
			"💰 Current Balance: %d ETB\n"+
			"🆔 Withdrawal ID: `%s`",
		account.FullName, orNA(account.Username),
		request.Amount, request.Method, destinationLine(request),
		account.PaidReferrals, minPaidReferrals,
		account.Balance, request.ID),
		reviewKeyboard("approve_withdrawal_"+request.ID, "reject_withdrawal_"+request.ID))
}

func destinationLine(request *models.WithdrawalRequest) string {
	if request.Method == models.PaymentMethodTelebirr {
		return fmt.Sprintf("📱 Telebirr: %s", request.Phone)
	}
	return fmt.Sprintf("🏦 Account: %s (%s)", request.AccountNumber, request.AccountName)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
