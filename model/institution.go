package model

import (
	"time"

	"gorm.io/gorm"
)

// Institution subscription plans (tier names differ from student tiers)
const (
	InstitutionPlanStarter      = "STARTER"
	InstitutionPlanProfessional = "PROFESSIONAL"
	InstitutionPlanEnterprise   = "ENTERPRISE"
)

// Institution statuses
const (
	InstitutionStatusPending   = "PENDING"
	InstitutionStatusActive    = "ACTIVE"
	InstitutionStatusSuspended = "SUSPENDED"
)

// Institution represents a language school or teaching organization that
// publishes courses on the marketplace.
//
// CommissionRate is the percentage of each payment RETAINED BY THE PLATFORM.
// This is the opposite convention from host/instructor commission rates,
// where the rate is the share paid out to the session leader.
type Institution struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	CommissionRate   float64        `gorm:"not null;default:15" json:"commission_rate"` // percent, 0-100
	SubscriptionPlan string         `gorm:"type:varchar(20);default:'STARTER'" json:"subscription_plan"`
	IsFeatured       bool           `gorm:"default:false" json:"is_featured"`
	IsApproved       bool           `gorm:"default:false" json:"is_approved"`
	Status           string         `gorm:"type:varchar(20);default:'PENDING'" json:"status"`

	// Relationships
	Courses []Course            `gorm:"foreignKey:InstitutionID" json:"courses,omitempty"`
	Payouts []InstitutionPayout `gorm:"foreignKey:InstitutionID" json:"-"`
}

// TableName specifies the table name for Institution
func (Institution) TableName() string {
	return "institutions"
}
