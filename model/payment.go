package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment statuses
const (
	PaymentRecordStatusPending   = "PENDING"
	PaymentRecordStatusCompleted = "COMPLETED"
	PaymentRecordStatusFailed    = "FAILED"
	PaymentRecordStatusRefunded  = "REFUNDED"
)

// PaymentMetadata is the typed shape stored in Payment.Metadata. The
// commission rate is a frozen snapshot of the institution's rate at the
// moment of payment; later rate changes never touch it.
type PaymentMetadata struct {
	ProcessedBy    string  `json:"processed_by,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	CommissionRate float64 `json:"commission_rate"`
	ProviderEvent  string  `json:"provider_event,omitempty"`
}

// Payment represents a settled (or attempted) payment for an enrollment.
// Invariant: Amount == CommissionAmount + InstitutionAmount at creation.
// Monetary fields are immutable after creation; only Status and RefundAmount
// change, via the reconciliation paths.
type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	EnrollmentID      uint           `gorm:"not null;index" json:"enrollment_id"`
	Amount            float64        `gorm:"not null" json:"amount"`
	Currency          string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status            string         `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	CommissionAmount  float64        `gorm:"not null" json:"commission_amount"`  // platform's cut
	InstitutionAmount float64        `gorm:"not null" json:"institution_amount"` // amount - commission
	RefundAmount      float64        `gorm:"default:0" json:"refund_amount"`
	PaymentMethod     string         `gorm:"type:varchar(50)" json:"payment_method"`
	ProviderRef       string         `gorm:"type:varchar(100);uniqueIndex" json:"provider_ref"`
	Metadata          datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	Enrollment Enrollment `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payout statuses
const (
	PayoutStatusPending   = "PENDING"
	PayoutStatusCompleted = "COMPLETED"
)

// PayoutMetadata is the typed shape stored in InstitutionPayout.Metadata.
type PayoutMetadata struct {
	PaymentID      uint    `json:"payment_id"`
	CommissionRate float64 `json:"commission_rate"`
	Reason         string  `json:"reason,omitempty"` // e.g. "refund_adjustment"
}

// InstitutionPayout is an append-only ledger row for money owed to an
// institution. Refunds append a second row with a negative amount; the
// original row is never mutated.
type InstitutionPayout struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	InstitutionID uint           `gorm:"not null;index" json:"institution_id"`
	EnrollmentID  uint           `gorm:"not null;index" json:"enrollment_id"`
	Amount        float64        `gorm:"not null" json:"amount"`
	Status        string         `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Metadata      datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	Institution Institution `gorm:"foreignKey:InstitutionID" json:"-"`
}

// TableName specifies the table name for InstitutionPayout
func (InstitutionPayout) TableName() string {
	return "institution_payouts"
}

// PaymentWebhookEvent records a processed provider webhook event id so that
// at-least-once deliveries are applied exactly once.
type PaymentWebhookEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"event_id"`
	EventType   string    `gorm:"type:varchar(50);not null" json:"event_type"`
	ProcessedAt time.Time `gorm:"not null" json:"processed_at"`
}

// TableName specifies the table name for PaymentWebhookEvent
func (PaymentWebhookEvent) TableName() string {
	return "payment_webhook_events"
}
