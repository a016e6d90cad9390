package models

import (
	"time"
)

// CommissionStatus represents the state of a referral commission
type CommissionStatus string

const (
	// CommissionStatusCompleted is the only status the engine creates.
	// Commission records exist solely for converted referrals; unconverted
	// referrals live in PendingReferral.
	CommissionStatusCompleted CommissionStatus = "completed"
)

// ReferralCommission records a commission credited to a referrer when the
// referred user's registration payment was approved. Immutable once created,
// except for CreditedAt which is stamped after the balance increment lands.
//
// At most one record exists per (referrer, referred user) pair; the unique
// index is the guard against double-crediting.
type ReferralCommission struct {
	ID             string           `gorm:"type:varchar(64);primaryKey" json:"id"`
	ReferrerID     int64            `gorm:"not null;index;uniqueIndex:idx_commission_pair" json:"referrer_id"`
	ReferredUserID int64            `gorm:"not null;uniqueIndex:idx_commission_pair" json:"referred_user_id"`
	Status         CommissionStatus `gorm:"type:varchar(20);not null" json:"status"`
	Amount         int64            `gorm:"not null" json:"amount"`

	// CreditedAt is nil between the commission write and the balance
	// increment. The reconciliation job re-applies the credit for records
	// that stay nil past a grace window.
	CreditedAt *time.Time `gorm:"index" json:"credited_at,omitempty"`
	CreatedAt  time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// PendingReferralStatus represents the state of a join-time referral link
type PendingReferralStatus string

const (
	PendingReferralStatusPending   PendingReferralStatus = "pending"
	PendingReferralStatusConverted PendingReferralStatus = "converted"
)

// PendingReferral durably records "who referred me" at the moment the invitee
// joins via a referral link, before any payment happens. Converted when the
// invitee's payment is approved and the commission is credited.
type PendingReferral struct {
	ID             uint                  `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferrerID     int64                 `gorm:"not null;index;uniqueIndex:idx_pending_pair" json:"referrer_id"`
	ReferredUserID int64                 `gorm:"not null;uniqueIndex:idx_pending_pair" json:"referred_user_id"`
	Status         PendingReferralStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt      time.Time             `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ConvertedAt    *time.Time            `json:"converted_at,omitempty"`
}
