package models

import (
	"time"
)

// WithdrawalStatus represents the state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// PaymentMethod is the destination channel for a withdrawal
type PaymentMethod string

const (
	PaymentMethodTelebirr     PaymentMethod = "telebirr"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// WithdrawalRequest represents a user-initiated, admin-approved claim against
// accrued balance. While pending the amount is NOT deducted; the debit happens
// exactly once, on approval, and re-validates against the live balance.
type WithdrawalRequest struct {
	ID     string           `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID int64            `gorm:"not null;index" json:"user_id"`
	Amount int64            `gorm:"not null" json:"amount"`
	Method PaymentMethod    `gorm:"type:varchar(20);not null" json:"method"`
	Status WithdrawalStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Method-specific destination details. Telebirr uses Phone; bank
	// transfer uses AccountNumber and AccountName.
	Phone         string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	AccountNumber string `gorm:"type:varchar(50)" json:"account_number,omitempty"`
	AccountName   string `gorm:"type:varchar(200)" json:"account_name,omitempty"`

	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedBy     string     `gorm:"type:varchar(100)" json:"processed_by,omitempty"`
	RequestedAt     time.Time  `gorm:"not null;index" json:"requested_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}
