package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jutorials/backend/internal/models"
)

// GormStore is the postgres-backed Store implementation. Increments are
// single-statement UPDATEs so they stay atomic without cross-document
// transactions; uniqueness guards live in the schema.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new gorm-backed ledger store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Accounts

func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating account: %w", err)
	}
	return nil
}

func (s *GormStore) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "telegram_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account: %w", err)
	}
	return &account, nil
}

func (s *GormStore) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "referral_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account by referral code: %w", err)
	}
	return &account, nil
}

func (s *GormStore) GetAccountByStudentID(ctx context.Context, studentID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "student_id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding account by student id: %w", err)
	}
	return &account, nil
}

func (s *GormStore) UpdateAccount(ctx context.Context, id int64, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).Where("telegram_id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("error updating account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CountAccounts(ctx context.Context, status models.AccountStatus) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Account{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting accounts: %w", err)
	}
	return count, nil
}

func (s *GormStore) ApplyCommission(ctx context.Context, referrerID int64, amount int64) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("telegram_id = ?", referrerID).
		Updates(map[string]interface{}{
			"balance":          gorm.Expr("balance + ?", amount),
			"total_earned":     gorm.Expr("total_earned + ?", amount),
			"paid_referrals":   gorm.Expr("paid_referrals + 1"),
			"unpaid_referrals": gorm.Expr("GREATEST(unpaid_referrals - 1, 0)"),
		})
	if result.Error != nil {
		return fmt.Errorf("error applying commission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ApplyWithdrawal(ctx context.Context, userID int64, amount int64) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("telegram_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":         gorm.Expr("balance - ?", amount),
			"total_withdrawn": gorm.Expr("total_withdrawn + ?", amount),
		})
	if result.Error != nil {
		return fmt.Errorf("error applying withdrawal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the account is gone or the balance guard failed.
		if _, err := s.GetAccount(ctx, userID); err != nil {
			return err
		}
		return ErrInsufficientBalance
	}
	return nil
}

func (s *GormStore) ApplyReferralJoin(ctx context.Context, referrerID int64) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("telegram_id = ?", referrerID).
		Updates(map[string]interface{}{
			"total_referrals":  gorm.Expr("total_referrals + 1"),
			"unpaid_referrals": gorm.Expr("unpaid_referrals + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("error applying referral join: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Pending referrals

func (s *GormStore) CreatePendingReferral(ctx context.Context, ref *models.PendingReferral) error {
	if err := s.db.WithContext(ctx).Create(ref).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating pending referral: %w", err)
	}
	return nil
}

func (s *GormStore) ConvertPendingReferral(ctx context.Context, referrerID, referredUserID int64, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.PendingReferral{}).
		Where("referrer_id = ? AND referred_user_id = ? AND status = ?",
			referrerID, referredUserID, models.PendingReferralStatusPending).
		Updates(map[string]interface{}{
			"status":       models.PendingReferralStatusConverted,
			"converted_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("error converting pending referral: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Commissions

func (s *GormStore) CreateCommission(ctx context.Context, commission *models.ReferralCommission) error {
	if err := s.db.WithContext(ctx).Create(commission).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating commission: %w", err)
	}
	return nil
}

func (s *GormStore) MarkCommissionCredited(ctx context.Context, id string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("id = ? AND credited_at IS NULL", id).
		Update("credited_at", at)
	if result.Error != nil {
		return fmt.Errorf("error marking commission credited: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListCommissionsByReferrer(ctx context.Context, referrerID int64) ([]models.ReferralCommission, error) {
	var commissions []models.ReferralCommission
	if err := s.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("created_at ASC").
		Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("error listing commissions: %w", err)
	}
	return commissions, nil
}

func (s *GormStore) ListUncreditedCommissions(ctx context.Context, olderThan time.Time) ([]models.ReferralCommission, error) {
	var commissions []models.ReferralCommission
	if err := s.db.WithContext(ctx).
		Where("credited_at IS NULL AND created_at < ?", olderThan).
		Order("created_at ASC").
		Find(&commissions).Error; err != nil {
		return nil, fmt.Errorf("error listing uncredited commissions: %w", err)
	}
	return commissions, nil
}

// Withdrawals

func (s *GormStore) CreateWithdrawal(ctx context.Context, withdrawal *models.WithdrawalRequest) error {
	if err := s.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating withdrawal: %w", err)
	}
	return nil
}

func (s *GormStore) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	var withdrawal models.WithdrawalRequest
	if err := s.db.WithContext(ctx).First(&withdrawal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding withdrawal: %w", err)
	}
	return &withdrawal, nil
}

func (s *GormStore) TransitionWithdrawal(ctx context.Context, id string, from, to models.WithdrawalStatus, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("error transitioning withdrawal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetWithdrawal(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

func (s *GormStore) ListPendingWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.WithdrawalStatusPending).
		Order("requested_at ASC").
		Find(&withdrawals).Error; err != nil {
		return nil, fmt.Errorf("error listing pending withdrawals: %w", err)
	}
	return withdrawals, nil
}

func (s *GormStore) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("status = ?", models.WithdrawalStatusPending).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting pending withdrawals: %w", err)
	}
	return count, nil
}

// Payments

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding payment: %w", err)
	}
	return &payment, nil
}

func (s *GormStore) TransitionPayment(ctx context.Context, id string, from, to models.PaymentStatus, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	result := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("error transitioning payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetPayment(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

func (s *GormStore) ListPendingPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusPending).
		Order("submitted_at ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("error listing pending payments: %w", err)
	}
	return payments, nil
}

func (s *GormStore) CountPendingPayments(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPending).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting pending payments: %w", err)
	}
	return count, nil
}
