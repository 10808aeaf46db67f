package model

import (
	"time"

	"gorm.io/gorm"
)

// Course statuses
const (
	CourseStatusDraft     = "DRAFT"
	CourseStatusPublished = "PUBLISHED"
	CourseStatusArchived  = "ARCHIVED"
)

// Course marketing types. LIVE_ONLINE and BLENDED imply a subscription
// requirement even when RequiresSubscription is left unset.
const (
	MarketingTypeSelfPaced  = "SELF_PACED"
	MarketingTypeLiveOnline = "LIVE_ONLINE"
	MarketingTypeBlended    = "BLENDED"
)

// Pricing periods
const (
	PricingPeriodOneTime = "ONE_TIME"
	PricingPeriodMonthly = "MONTHLY"
)

// Course represents a language course offered by an institution.
// InstitutionID is nil for platform-owned courses.
type Course struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
	InstitutionID        *uint          `gorm:"index" json:"institution_id,omitempty"`
	Title                string         `gorm:"type:varchar(255);not null" json:"title"`
	Description          string         `gorm:"type:text" json:"description"`
	Language             string         `gorm:"type:varchar(50)" json:"language"`
	BasePrice            float64        `gorm:"not null;default:0" json:"base_price"`
	PricingPeriod        string         `gorm:"type:varchar(20);default:'ONE_TIME'" json:"pricing_period"`
	MaxStudents          int            `gorm:"not null;default:0" json:"max_students"` // 0 = no cap
	RequiresSubscription bool           `gorm:"default:false" json:"requires_subscription"`
	SubscriptionTier     string         `gorm:"type:varchar(20)" json:"subscription_tier"` // BASIC, PREMIUM, PRO or empty
	MarketingType        string         `gorm:"type:varchar(20);default:'SELF_PACED'" json:"marketing_type"`
	Status               string         `gorm:"type:varchar(20);default:'DRAFT'" json:"status"`

	// Relationships
	Institution *Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID" json:"-"`
}

// TableName specifies the table name for Course
func (Course) TableName() string {
	return "courses"
}

// SubscriptionGated reports whether enrolling in the course requires an
// active subscription, either via the explicit flag or the marketing type.
func (c *Course) SubscriptionGated() bool {
	return c.RequiresSubscription ||
		c.MarketingType == MarketingTypeLiveOnline ||
		c.MarketingType == MarketingTypeBlended
}

// IsFree reports whether the course can be enrolled without payment.
func (c *Course) IsFree() bool {
	return c.BasePrice <= 0
}
