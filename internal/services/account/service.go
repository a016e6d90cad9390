package account

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/notify"
	"github.com/jutorials/backend/internal/services/referral"
)

var (
	// ErrAlreadyRegistered is returned when the Telegram user already has
	// an account.
	ErrAlreadyRegistered = errors.New("account: already registered")

	// ErrStudentIDTaken is returned when the student id belongs to another
	// account.
	ErrStudentIDTaken = errors.New("account: student id already registered")

	// ErrNotFound is returned when no account exists for the user.
	ErrNotFound = errors.New("account: not found")

	// ErrInvalidForm is returned when a required registration field is
	// missing.
	ErrInvalidForm = errors.New("account: incomplete registration form")
)

// RegistrationForm holds the fields collected during the registration
// conversation.
type RegistrationForm struct {
	FullName      string
	ContactNumber string
	StudentID     string
	Stream        string
}

// Service manages student account registration and lookup.
type Service struct {
	store    ledger.Store
	engine   *referral.Engine
	notifier notify.Dispatcher
	cfg      config.ReferralConfig
	log      *zap.Logger
}

// NewService creates a new account service
func NewService(store ledger.Store, engine *referral.Engine, notifier notify.Dispatcher, cfg config.ReferralConfig, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		engine:   engine,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// Register creates a pending account from a completed registration form.
// referralCode may be empty; a valid code links the new account to its
// referrer and records the pending referral. Self-referral and unknown codes
// are silently ignored rather than failing the registration.
func (s *Service) Register(ctx context.Context, telegramID int64, username string, form RegistrationForm, referralCode string) (*models.Account, error) {
	form.FullName = strings.TrimSpace(form.FullName)
	form.ContactNumber = strings.TrimSpace(form.ContactNumber)
	form.StudentID = strings.TrimSpace(form.StudentID)
	if form.FullName == "" || form.StudentID == "" {
		return nil, ErrInvalidForm
	}

	if _, err := s.store.GetAccount(ctx, telegramID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	if _, err := s.store.GetAccountByStudentID(ctx, form.StudentID); err == nil {
		return nil, ErrStudentIDTaken
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("failed to check student id: %w", err)
	}

	var referredBy *int64
	if referralCode != "" {
		referrer, err := s.store.GetAccountByReferralCode(ctx, strings.TrimSpace(referralCode))
		switch {
		case err == nil && referrer.TelegramID != telegramID:
			referredBy = &referrer.TelegramID
		case err != nil && !errors.Is(err, ledger.ErrNotFound):
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		default:
			s.log.Info("ignoring referral code",
				zap.String("code", referralCode),
				zap.Int64("user_id", telegramID))
		}
	}

	now := time.Now()
	account := &models.Account{
		TelegramID:    telegramID,
		Username:      username,
		FullName:      form.FullName,
		ContactNumber: form.ContactNumber,
		StudentID:     form.StudentID,
		Stream:        form.Stream,
		Status:        models.AccountStatusPending,
		ReferredBy:    referredBy,
		RegisteredAt:  now,
		LastSeenAt:    now,
	}

	// Referral codes collide very rarely; retry a few times on the unique
	// index before giving up.
	var created bool
	for attempt := 0; attempt < 5; attempt++ {
		account.ReferralCode = GenerateReferralCode()
		err := s.store.CreateAccount(ctx, account)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, ledger.ErrDuplicate) {
			continue
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if !created {
		return nil, fmt.Errorf("failed to create account: referral code collisions exhausted retries")
	}

	if referredBy != nil {
		if err := s.engine.RecordPendingReferral(ctx, *referredBy, telegramID); err != nil {
			s.log.Error("failed to record pending referral",
				zap.Int64("referrer_id", *referredBy),
				zap.Int64("user_id", telegramID),
				zap.Error(err))
		}
	}

	s.notifier.RegistrationCompleted(ctx, account)

	s.log.Info("account registered",
		zap.Int64("user_id", telegramID),
		zap.String("student_id", form.StudentID),
		zap.Bool("referred", referredBy != nil))

	return account, nil
}

// Get returns the account for a Telegram user.
func (s *Service) Get(ctx context.Context, telegramID int64) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, telegramID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// TouchLastSeen updates the account's last activity timestamp. Failures are
// logged and swallowed; presence tracking never blocks a command.
func (s *Service) TouchLastSeen(ctx context.Context, telegramID int64) {
	if err := s.store.UpdateAccount(ctx, telegramID, map[string]interface{}{
		"last_seen_at": time.Now(),
	}); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		s.log.Warn("failed to update last seen",
			zap.Int64("user_id", telegramID),
			zap.Error(err))
	}
}

// GenerateReferralCode generates a short shareable referral code
func GenerateReferralCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, 8)
	for i := range result {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return fmt.Sprintf("JT%s", string(result))
}
