package model

import (
	"time"

	"gorm.io/gorm"
)

// Student subscription tiers
const (
	StudentTierBasic   = "BASIC"
	StudentTierPremium = "PREMIUM"
	StudentTierPro     = "PRO"
)

// Subscription statuses. The stored status is not authoritative for trial
// expiry: read paths resolve TRIALING vs EXPIRED lazily from the timestamps.
const (
	SubscriptionStatusTrialing  = "TRIALING"
	SubscriptionStatusActive    = "ACTIVE"
	SubscriptionStatusExpired   = "EXPIRED"
	SubscriptionStatusCancelled = "CANCELLED"
)

// StudentSubscription is the one subscription record per student.
// Re-subscribing updates the row in place rather than creating a second one.
type StudentSubscription struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID uint           `gorm:"not null;uniqueIndex" json:"student_id"`
	Tier      string         `gorm:"type:varchar(20);not null" json:"tier"`
	Status    string         `gorm:"type:varchar(20);default:'TRIALING'" json:"status"`

	TrialStartsAt *time.Time `json:"trial_starts_at,omitempty"`
	TrialEndsAt   *time.Time `json:"trial_ends_at,omitempty"`

	// HasPostTrialPayment flips when a successful payment lands after the
	// trial window; it promotes the lazily-resolved status to ACTIVE.
	HasPostTrialPayment bool `gorm:"default:false" json:"has_post_trial_payment"`

	// Relationships
	Student User `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for StudentSubscription
func (StudentSubscription) TableName() string {
	return "student_subscriptions"
}
