package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jutorials/backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests. All mutations happen under
// a single mutex, which gives it the same atomicity guarantees the gorm store
// gets from single-statement updates.
type MemoryStore struct {
	mu sync.Mutex

	accounts    map[int64]*models.Account
	pending     map[[2]int64]*models.PendingReferral
	commissions map[string]*models.ReferralCommission
	pairs       map[[2]int64]string // (referrer, referred) -> commission id
	withdrawals map[string]*models.WithdrawalRequest
	payments    map[string]*models.Payment
	nextPending uint
}

// NewMemoryStore creates an empty in-memory ledger store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[int64]*models.Account),
		pending:     make(map[[2]int64]*models.PendingReferral),
		commissions: make(map[string]*models.ReferralCommission),
		pairs:       make(map[[2]int64]string),
		withdrawals: make(map[string]*models.WithdrawalRequest),
		payments:    make(map[string]*models.Payment),
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.TelegramID]; ok {
		return ErrDuplicate
	}
	cp := *account
	s.accounts[account.TelegramID] = &cp
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAccountLocked(id)
}

func (s *MemoryStore) getAccountLocked(id int64) (*models.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *MemoryStore) GetAccountByReferralCode(_ context.Context, code string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.ReferralCode == code {
			cp := *account
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetAccountByStudentID(_ context.Context, studentID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.StudentID == studentID {
			cp := *account
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateAccount(_ context.Context, id int64, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	applyAccountFields(account, fields)
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CountAccounts(_ context.Context, status models.AccountStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, account := range s.accounts {
		if status == "" || account.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) ApplyCommission(_ context.Context, referrerID int64, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[referrerID]
	if !ok {
		return ErrNotFound
	}
	account.Balance += amount
	account.TotalEarned += amount
	account.PaidReferrals++
	if account.UnpaidReferrals > 0 {
		account.UnpaidReferrals--
	}
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ApplyWithdrawal(_ context.Context, userID int64, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	if account.Balance < amount {
		return ErrInsufficientBalance
	}
	account.Balance -= amount
	account.TotalWithdrawn += amount
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ApplyReferralJoin(_ context.Context, referrerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[referrerID]
	if !ok {
		return ErrNotFound
	}
	account.TotalReferrals++
	account.UnpaidReferrals++
	account.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CreatePendingReferral(_ context.Context, ref *models.PendingReferral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]int64{ref.ReferrerID, ref.ReferredUserID}
	if _, ok := s.pending[key]; ok {
		return ErrDuplicate
	}
	s.nextPending++
	cp := *ref
	cp.ID = s.nextPending
	ref.ID = cp.ID
	s.pending[key] = &cp
	return nil
}

func (s *MemoryStore) ConvertPendingReferral(_ context.Context, referrerID, referredUserID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.pending[[2]int64{referrerID, referredUserID}]
	if !ok || ref.Status != models.PendingReferralStatusPending {
		return ErrNotFound
	}
	ref.Status = models.PendingReferralStatusConverted
	t := at
	ref.ConvertedAt = &t
	return nil
}

func (s *MemoryStore) CreateCommission(_ context.Context, commission *models.ReferralCommission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := [2]int64{commission.ReferrerID, commission.ReferredUserID}
	if _, ok := s.commissions[commission.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.pairs[pair]; ok {
		return ErrDuplicate
	}
	cp := *commission
	s.commissions[commission.ID] = &cp
	s.pairs[pair] = commission.ID
	return nil
}

func (s *MemoryStore) MarkCommissionCredited(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	commission, ok := s.commissions[id]
	if !ok || commission.CreditedAt != nil {
		return ErrNotFound
	}
	t := at
	commission.CreditedAt = &t
	return nil
}

func (s *MemoryStore) ListCommissionsByReferrer(_ context.Context, referrerID int64) ([]models.ReferralCommission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ReferralCommission
	for _, commission := range s.commissions {
		if commission.ReferrerID == referrerID {
			out = append(out, *commission)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListUncreditedCommissions(_ context.Context, olderThan time.Time) ([]models.ReferralCommission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ReferralCommission
	for _, commission := range s.commissions {
		if commission.CreditedAt == nil && commission.CreatedAt.Before(olderThan) {
			out = append(out, *commission)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateWithdrawal(_ context.Context, withdrawal *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.withdrawals[withdrawal.ID]; ok {
		return ErrDuplicate
	}
	cp := *withdrawal
	s.withdrawals[withdrawal.ID] = &cp
	return nil
}

func (s *MemoryStore) GetWithdrawal(_ context.Context, id string) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *withdrawal
	return &cp, nil
}

func (s *MemoryStore) TransitionWithdrawal(_ context.Context, id string, from, to models.WithdrawalStatus, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return ErrNotFound
	}
	if withdrawal.Status != from {
		return ErrStaleStatus
	}
	withdrawal.Status = to
	applyWithdrawalFields(withdrawal, fields)
	return nil
}

func (s *MemoryStore) ListPendingWithdrawals(_ context.Context) ([]models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.WithdrawalRequest
	for _, withdrawal := range s.withdrawals {
		if withdrawal.Status == models.WithdrawalStatusPending {
			out = append(out, *withdrawal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *MemoryStore) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	pending, err := s.ListPendingWithdrawals(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(pending)), nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[payment.ID]; ok {
		return ErrDuplicate
	}
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *payment
	return &cp, nil
}

func (s *MemoryStore) TransitionPayment(_ context.Context, id string, from, to models.PaymentStatus, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[id]
	if !ok {
		return ErrNotFound
	}
	if payment.Status != from {
		return ErrStaleStatus
	}
	payment.Status = to
	applyPaymentFields(payment, fields)
	return nil
}

func (s *MemoryStore) ListPendingPayments(_ context.Context) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Payment
	for _, payment := range s.payments {
		if payment.Status == models.PaymentStatusPending {
			out = append(out, *payment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *MemoryStore) CountPendingPayments(ctx context.Context) (int64, error) {
	pending, err := s.ListPendingPayments(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(pending)), nil
}

// Field maps mirror the column names the gorm store uses, so services can
// share update maps across both implementations.

func applyAccountFields(account *models.Account, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "status":
			account.Status = toAccountStatus(v)
		case "username":
			account.Username = v.(string)
		case "full_name":
			account.FullName = v.(string)
		case "contact_number":
			account.ContactNumber = v.(string)
		case "last_seen_at":
			account.LastSeenAt = v.(time.Time)
		case "total_referrals":
			account.TotalReferrals = toInt(v)
		case "unpaid_referrals":
			account.UnpaidReferrals = toInt(v)
		}
	}
}

func applyWithdrawalFields(withdrawal *models.WithdrawalRequest, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "processed_by":
			withdrawal.ProcessedBy = v.(string)
		case "processed_at":
			t := toTime(v)
			withdrawal.ProcessedAt = &t
		case "rejection_reason":
			withdrawal.RejectionReason = v.(string)
		}
	}
}

func applyPaymentFields(payment *models.Payment, fields map[string]interface{}) {
	for k, v := range fields {
		switch k {
		case "processed_by":
			payment.ProcessedBy = v.(string)
		case "processed_at":
			t := toTime(v)
			payment.ProcessedAt = &t
		case "rejection_reason":
			payment.RejectionReason = v.(string)
		}
	}
}

func toAccountStatus(v interface{}) models.AccountStatus {
	switch s := v.(type) {
	case models.AccountStatus:
		return s
	case string:
		return models.AccountStatus(s)
	}
	return ""
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

func toTime(v interface{}) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}
