package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent     = "student"
	RoleInstitution = "institution"
	RoleAdmin       = "admin"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, institution, admin
	TokenVersion int            `gorm:"default:0" json:"-"` // For invalidating all tokens

	// InstitutionID is set for users managing an institution account
	InstitutionID *uint `gorm:"index" json:"institution_id,omitempty"`

	// Relationships
	Enrollments  []Enrollment         `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Subscription *StudentSubscription `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"subscription,omitempty"`
	AuditLogs    []AdminAuditLog      `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
