package models

import (
	"time"
)

// PaymentStatus represents the state of a registration payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment represents a manually verified registration payment. The student
// submits a screenshot; an admin approves or rejects it. Approval activates
// the account and triggers the referral commission for the stored referrer.
type Payment struct {
	ID               string        `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID           int64         `gorm:"not null;index" json:"user_id"`
	Amount           int64         `gorm:"not null" json:"amount"`
	ScreenshotFileID string        `gorm:"type:varchar(200)" json:"screenshot_file_id"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedBy     string     `gorm:"type:varchar(100)" json:"processed_by,omitempty"`
	SubmittedAt     time.Time  `gorm:"not null;index" json:"submitted_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}
