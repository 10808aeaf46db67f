package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session kinds for quota accounting
const (
	SessionKindGroup    = "GROUP"
	SessionKindOneToOne = "ONE_TO_ONE"
)

// Session types for attendance events
const (
	SessionTypeConversation = "CONVERSATION"
	SessionTypeVideo        = "VIDEO"
)

// LiveConversation is a scheduled group conversation led by a host.
// Revenue is either price-based (Price per booking) or credit-based
// (CreditPrice per participant, 1 credit = $1).
type LiveConversation struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	HostID             uint           `gorm:"not null;index" json:"host_id"`
	Title              string         `gorm:"type:varchar(255);not null" json:"title"`
	Language           string         `gorm:"type:varchar(50)" json:"language"`
	StartTime          time.Time      `gorm:"not null" json:"start_time"`
	EndTime            time.Time      `gorm:"not null" json:"end_time"`
	MaxParticipants    int            `gorm:"not null;default:8" json:"max_participants"`
	Price              float64        `gorm:"default:0" json:"price"`
	IsCreditBased      bool           `gorm:"default:false" json:"is_credit_based"`
	CreditPrice        float64        `gorm:"default:0" json:"credit_price"`
	HostCommissionRate *float64       `json:"host_commission_rate,omitempty"` // nil = default leader rate

	// Relationships
	Host     User                  `gorm:"foreignKey:HostID" json:"-"`
	Bookings []ConversationBooking `gorm:"foreignKey:ConversationID" json:"bookings,omitempty"`
}

// TableName specifies the table name for LiveConversation
func (LiveConversation) TableName() string {
	return "live_conversations"
}

// ConversationBooking is a student's seat in a live conversation.
type ConversationBooking struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	ConversationID uint           `gorm:"not null;index;uniqueIndex:idx_conversation_student" json:"conversation_id"`
	StudentID      uint           `gorm:"not null;index;uniqueIndex:idx_conversation_student" json:"student_id"`

	// Relationships
	Conversation LiveConversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
	Student      User             `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for ConversationBooking
func (ConversationBooking) TableName() string {
	return "conversation_bookings"
}

// VideoSession is a scheduled video lesson led by an instructor. Unlike
// conversations, its revenue counts attendance rather than bookings.
type VideoSession struct {
	ID                       uint           `gorm:"primaryKey" json:"id"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
	DeletedAt                gorm.DeletedAt `gorm:"index" json:"-"`
	InstructorID             uint           `gorm:"not null;index" json:"instructor_id"`
	Title                    string         `gorm:"type:varchar(255);not null" json:"title"`
	Kind                     string         `gorm:"type:varchar(20);default:'GROUP'" json:"kind"` // GROUP, ONE_TO_ONE
	StartTime                time.Time      `gorm:"not null" json:"start_time"`
	EndTime                  time.Time      `gorm:"not null" json:"end_time"`
	MaxParticipants          int            `gorm:"not null;default:1" json:"max_participants"`
	Price                    float64        `gorm:"default:0" json:"price"`
	IsCreditBased            bool           `gorm:"default:false" json:"is_credit_based"`
	CreditPrice              float64        `gorm:"default:0" json:"credit_price"`
	InstructorCommissionRate *float64       `json:"instructor_commission_rate,omitempty"` // nil = default leader rate

	// Relationships
	Instructor User                `gorm:"foreignKey:InstructorID" json:"-"`
	Attendance []SessionAttendance `gorm:"foreignKey:SessionID" json:"attendance,omitempty"`
}

// TableName specifies the table name for VideoSession
func (VideoSession) TableName() string {
	return "video_sessions"
}

// SessionAttendance is a student's attendance record for a video session.
type SessionAttendance struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	SessionID uint           `gorm:"not null;index;uniqueIndex:idx_session_student" json:"session_id"`
	StudentID uint           `gorm:"not null;index;uniqueIndex:idx_session_student" json:"student_id"`
	Minutes   int            `gorm:"default:0" json:"minutes"`

	// Relationships
	Session VideoSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Student User         `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for SessionAttendance
func (SessionAttendance) TableName() string {
	return "session_attendance"
}

// CommissionMetadata is the typed shape stored on session commission rows.
type CommissionMetadata struct {
	Basis        string  `json:"basis"` // "credits" or "price"
	UnitPrice    float64 `json:"unit_price"`
	Participants int     `json:"participants"`
	RatePercent  float64 `json:"rate_percent"`
}

// HostCommission is the computed payout for a conversation host. Creation is
// idempotent: one row per (conversation, host), a second calculation call
// returns the existing record.
type HostCommission struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ConversationID uint           `gorm:"not null;uniqueIndex:idx_conversation_host" json:"conversation_id"`
	HostID         uint           `gorm:"not null;index;uniqueIndex:idx_conversation_host" json:"host_id"`
	TotalRevenue   float64        `gorm:"not null" json:"total_revenue"`
	Amount         float64        `gorm:"not null" json:"amount"` // share paid to the host
	PlatformAmount float64        `gorm:"not null" json:"platform_amount"`
	Status         string         `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// TableName specifies the table name for HostCommission
func (HostCommission) TableName() string {
	return "host_commissions"
}

// InstructorCommission is the computed payout for a video session instructor,
// idempotent per (session, instructor) like HostCommission.
type InstructorCommission struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	SessionID      uint           `gorm:"not null;uniqueIndex:idx_session_instructor" json:"session_id"`
	InstructorID   uint           `gorm:"not null;index;uniqueIndex:idx_session_instructor" json:"instructor_id"`
	TotalRevenue   float64        `gorm:"not null" json:"total_revenue"`
	Amount         float64        `gorm:"not null" json:"amount"` // share paid to the instructor
	PlatformAmount float64        `gorm:"not null" json:"platform_amount"`
	Status         string         `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// TableName specifies the table name for InstructorCommission
func (InstructorCommission) TableName() string {
	return "instructor_commissions"
}
