package model

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentStatusPendingPayment = "PENDING_PAYMENT"
	EnrollmentStatusEnrolled       = "ENROLLED"
	EnrollmentStatusActive         = "ACTIVE"
	EnrollmentStatusInProgress     = "IN_PROGRESS"
	EnrollmentStatusCompleted      = "COMPLETED"
	EnrollmentStatusFailed         = "FAILED"
)

// Enrollment payment statuses
const (
	PaymentStatusUnpaid   = "UNPAID"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// ActiveEnrollmentStatuses are the statuses that occupy a course seat.
// PENDING_PAYMENT counts so that a checkout in flight cannot be oversold.
var ActiveEnrollmentStatuses = []string{
	EnrollmentStatusPendingPayment,
	EnrollmentStatusEnrolled,
	EnrollmentStatusActive,
	EnrollmentStatusInProgress,
}

// Enrollment represents a student's enrollment in a course.
// At most one enrollment per (student, course) pair may be in a non-terminal
// status; the unique index below backstops the transactional check.
type Enrollment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID     uint           `gorm:"not null;index;uniqueIndex:idx_active_student_course,where:status <> 'COMPLETED' AND status <> 'FAILED'" json:"student_id"`
	CourseID      uint           `gorm:"not null;index;uniqueIndex:idx_active_student_course,where:status <> 'COMPLETED' AND status <> 'FAILED'" json:"course_id"`
	Status        string         `gorm:"type:varchar(20);default:'PENDING_PAYMENT'" json:"status"`
	PaymentStatus string         `gorm:"type:varchar(20);default:'UNPAID'" json:"payment_status"`
	PaymentMethod string         `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentDate   *time.Time     `json:"payment_date,omitempty"`
	FailureReason string         `gorm:"type:text" json:"failure_reason,omitempty"`
	Progress      int            `gorm:"default:0" json:"progress"` // 0-100

	// AmountDue is the price locked at checkout time. When present it is
	// authoritative over the course's current base price at settlement.
	AmountDue float64 `gorm:"default:0" json:"amount_due"`
	Currency  string  `gorm:"type:varchar(10);default:'USD'" json:"currency"`

	// Relationships
	Student  User      `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Course   Course    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Payments []Payment `gorm:"foreignKey:EnrollmentID" json:"-"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}

// Occupied reports whether the enrollment holds a seat in the course.
func (e *Enrollment) Occupied() bool {
	switch e.Status {
	case EnrollmentStatusPendingPayment, EnrollmentStatusEnrolled,
		EnrollmentStatusActive, EnrollmentStatusInProgress:
		return true
	}
	return false
}
