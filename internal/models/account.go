package models

import (
	"time"
)

// AccountStatus represents the lifecycle state of a student account
type AccountStatus string

const (
	AccountStatusPending AccountStatus = "pending"
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBlocked AccountStatus = "blocked"
)

// Account represents a registered student's persistent financial and referral record.
// Amounts are whole ETB.
//
// Invariant: Balance == TotalEarned - TotalWithdrawn at every commit point.
// Balance-affecting fields are only mutated through the ledger's atomic
// increment operations, never read-modify-write.
type Account struct {
	TelegramID    int64         `gorm:"primaryKey" json:"telegram_id"`
	Username      string        `gorm:"type:varchar(100)" json:"username"`
	FullName      string        `gorm:"type:varchar(200);not null" json:"full_name"`
	ContactNumber string        `gorm:"type:varchar(20)" json:"contact_number"`
	StudentID     string        `gorm:"type:varchar(20);uniqueIndex" json:"student_id"`
	Stream        string        `gorm:"type:varchar(20)" json:"stream"` // natural, social
	Status        AccountStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	Balance        int64 `gorm:"not null;default:0" json:"balance"`
	TotalEarned    int64 `gorm:"not null;default:0" json:"total_earned"`
	TotalWithdrawn int64 `gorm:"not null;default:0" json:"total_withdrawn"`

	PaidReferrals   int `gorm:"not null;default:0" json:"paid_referrals"`
	UnpaidReferrals int `gorm:"not null;default:0" json:"unpaid_referrals"`
	TotalReferrals  int `gorm:"not null;default:0" json:"total_referrals"`

	ReferralCode string `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *int64 `gorm:"index" json:"referred_by,omitempty"`

	RegisteredAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"registered_at"`
	LastSeenAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"last_seen_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}
