package model

import (
	"time"
)

// MonthlyUsage accumulates a student's attendance against their tier
// entitlements. Usage is keyed by (student, YYYY-MM): a new month starts a
// fresh counter, never a rolling 30-day window.
type MonthlyUsage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	StudentID        uint      `gorm:"not null;index;uniqueIndex:idx_student_period" json:"student_id"`
	Period           string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_student_period" json:"period"` // YYYY-MM
	GroupSessions    int       `gorm:"default:0" json:"group_sessions"`
	OneToOneSessions int       `gorm:"default:0" json:"one_to_one_sessions"`
	MinutesAttended  int       `gorm:"default:0" json:"minutes_attended"`
}

// TableName specifies the table name for MonthlyUsage
func (MonthlyUsage) TableName() string {
	return "monthly_usage"
}

// UsagePeriod formats t as the monthly usage key.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// AttendanceEvent is the idempotency key for usage increments: one row per
// (session type, session, student). Replaying the same attendance never
// double-counts.
type AttendanceEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	SessionType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_attendance_event" json:"session_type"`
	SessionID   uint      `gorm:"not null;uniqueIndex:idx_attendance_event" json:"session_id"`
	StudentID   uint      `gorm:"not null;index;uniqueIndex:idx_attendance_event" json:"student_id"`
	Kind        string    `gorm:"type:varchar(20);not null" json:"kind"` // GROUP, ONE_TO_ONE
	Minutes     int       `gorm:"default:0" json:"minutes"`
}

// TableName specifies the table name for AttendanceEvent
func (AttendanceEvent) TableName() string {
	return "attendance_events"
}
