package bot

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/services/account"
	"github.com/jutorials/backend/internal/services/payment"
	"github.com/jutorials/backend/internal/services/withdrawal"
)

// Bot is the Telegram front end. It routes updates to the registration,
// payment and withdrawal flows and handles the admin review callbacks.
type Bot struct {
	api       *tgbotapi.BotAPI
	accounts  *account.Service
	payments  *payment.Service
	workflow  *withdrawal.Workflow
	approvals *withdrawal.ApprovalService
	store     ledger.Store
	cfg       *config.Config
	log       *zap.Logger

	// In-memory conversation state. Registration happens once per user and
	// admin rejections are short-lived, so neither needs durable storage
	// the way withdrawal sessions do.
	mu            sync.Mutex
	registrations map[int64]*registrationState
	rejections    map[int64]pendingRejection
}

// New creates the bot front end
func New(
	api *tgbotapi.BotAPI,
	accounts *account.Service,
	payments *payment.Service,
	workflow *withdrawal.Workflow,
	approvals *withdrawal.ApprovalService,
	store ledger.Store,
	cfg *config.Config,
	log *zap.Logger,
) *Bot {
	return &Bot{
		api:           api,
		accounts:      accounts,
		payments:      payments,
		workflow:      workflow,
		approvals:     approvals,
		store:         store,
		cfg:           cfg,
		log:           log,
		registrations: make(map[int64]*registrationState),
		rejections:    make(map[int64]pendingRejection),
	}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic handling update", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	b.accounts.TouchLastSeen(ctx, userID)

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	if len(message.Photo) > 0 {
		b.handlePhoto(ctx, message)
		return
	}

	// Admin reason capture takes precedence over user flows.
	if b.isAdmin(userID) {
		if rejection, ok := b.takeRejection(userID); ok {
			b.handleRejectionReason(ctx, message, rejection)
			return
		}
	}

	if b.registrationInProgress(userID) {
		b.handleRegistrationInput(ctx, message)
		return
	}

	b.handleWithdrawalInput(ctx, message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message)
	case "balance":
		b.handleBalance(ctx, message)
	case "referral":
		b.handleReferral(ctx, message)
	case "withdraw":
		b.handleWithdraw(ctx, message)
	case "cancel":
		b.handleCancel(ctx, message)
	case "pending":
		if b.isAdmin(message.From.ID) {
			b.handlePending(ctx, message)
		}
	case "help":
		b.reply(message.Chat.ID, helpText)
	default:
		b.reply(message.Chat.ID, "Unknown command. Send /help to see what I can do.")
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, adminID := range b.cfg.Telegram.AdminIDs {
		if adminID == userID {
			return true
		}
	}
	return false
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

const helpText = "📚 *JU Tutorials Bot*\n\n" +
	"/start - register or see your status\n" +
	"/balance - view your earnings\n" +
	"/referral - get your referral link\n" +
	"/withdraw - request a withdrawal\n" +
	"/cancel - cancel the current operation"
