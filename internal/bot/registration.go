package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/services/account"
)

type registrationStep int

const (
	regStepFullName registrationStep = iota
	regStepContact
	regStepStudentID
	regStepStream
)

type registrationState struct {
	step         registrationStep
	form         account.RegistrationForm
	referralCode string
}

func (b *Bot) registrationInProgress(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.registrations[userID]
	return ok
}

func (b *Bot) beginRegistration(userID int64, referralCode string) {
	b.mu.Lock()
	b.registrations[userID] = &registrationState{
		step:         regStepFullName,
		referralCode: referralCode,
	}
	b.mu.Unlock()

	b.reply(userID, "📝 *Registration*\n\nWhat is your full name?")
}

func (b *Bot) cancelRegistration(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.registrations[userID]; !ok {
		return false
	}
	delete(b.registrations, userID)
	return true
}

func (b *Bot) handleRegistrationInput(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	input := strings.TrimSpace(message.Text)

	b.mu.Lock()
	state, ok := b.registrations[userID]
	b.mu.Unlock()
	if !ok {
		return
	}

	switch state.step {
	case regStepFullName:
		if input == "" {
			b.reply(message.Chat.ID, "Please send your full name.")
			return
		}
		state.form.FullName = input
		state.step = regStepContact
		b.reply(message.Chat.ID, "📞 What is your phone number?")

	case regStepContact:
		if input == "" {
			b.reply(message.Chat.ID, "Please send your phone number.")
			return
		}
		state.form.ContactNumber = input
		state.step = regStepStudentID
		b.reply(message.Chat.ID, "🎓 What is your student ID?")

	case regStepStudentID:
		if input == "" {
			b.reply(message.Chat.ID, "Please send your student ID.")
			return
		}
		state.form.StudentID = input
		state.step = regStepStream
		b.replyWithKeyboard(message.Chat.ID, "🏫 Which stream are you in?",
			tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("🌿 Natural", "stream_natural"),
					tgbotapi.NewInlineKeyboardButtonData("🌍 Social", "stream_social"),
				),
			))

	case regStepStream:
		b.reply(message.Chat.ID, "Please pick your stream using the buttons above.")
	}
}

func (b *Bot) completeRegistration(ctx context.Context, userID int64, username string, stream string) {
	b.mu.Lock()
	state, ok := b.registrations[userID]
	if ok {
		delete(b.registrations, userID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	state.form.Stream = stream

	acct, err := b.accounts.Register(ctx, userID, username, state.form, state.referralCode)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAlreadyRegistered):
			b.reply(userID, "You are already registered. Send /balance to see your account.")
		case errors.Is(err, account.ErrStudentIDTaken):
			b.reply(userID, "❌ That student ID is already registered. Contact the admin if this is a mistake.")
		default:
			b.log.Error("registration failed", zap.Int64("user_id", userID), zap.Error(err))
			b.reply(userID, "Something went wrong. Please try /start again.")
		}
		return
	}

	b.reply(userID, fmt.Sprintf(
		"✅ *Registration received!*\n\n"+
			"📝 Name: %s\n"+
			"🎓 Student ID: %s\n"+
			"🏫 Stream: %s\n\n"+
			"To activate your account, pay the *%d ETB* registration fee and "+
			"send me a screenshot of the payment.",
		acct.FullName, acct.StudentID, acct.Stream, b.cfg.Referral.RegistrationFee))
}
