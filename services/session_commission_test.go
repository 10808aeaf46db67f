package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createConversation(t *testing.T, db *gorm.DB, conv model.LiveConversation) *model.LiveConversation {
	t.Helper()

	if conv.Title == "" {
		conv.Title = "Evening Conversation"
	}
	if conv.StartTime.IsZero() {
		conv.StartTime = time.Now().Add(time.Hour)
		conv.EndTime = conv.StartTime.Add(45 * time.Minute)
	}
	if conv.MaxParticipants == 0 {
		conv.MaxParticipants = 8
	}
	require.NoError(t, db.Create(&conv).Error)
	return &conv
}

func createVideoSession(t *testing.T, db *gorm.DB, session model.VideoSession) *model.VideoSession {
	t.Helper()

	if session.Title == "" {
		session.Title = "Grammar Deep Dive"
	}
	if session.Kind == "" {
		session.Kind = model.SessionKindGroup
	}
	if session.StartTime.IsZero() {
		session.StartTime = time.Now().Add(time.Hour)
		session.EndTime = session.StartTime.Add(time.Hour)
	}
	if session.MaxParticipants == 0 {
		session.MaxParticipants = 10
	}
	require.NoError(t, db.Create(&session).Error)
	return &session
}

func bookStudents(t *testing.T, db *gorm.DB, conversationID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		student := createStudent(t, db, fmt.Sprintf("booker%d@example.com", i))
		require.NoError(t, db.Create(&model.ConversationBooking{
			ConversationID: conversationID,
			StudentID:      student.ID,
		}).Error)
	}
}

func TestCalculateHostCommissionPriceBasis(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionCommissionService(db)

	host := createStudent(t, db, "host@example.com")
	conv := createConversation(t, db, model.LiveConversation{
		HostID: host.ID,
		Price:  10,
	})
	bookStudents(t, db, conv.ID, 4)

	commission, err := svc.CalculateHostCommission(conv.ID)
	require.NoError(t, err)

	// 4 bookings * $10 at the default 70% leader rate.
	assert.Equal(t, 40.0, commission.TotalRevenue)
	assert.Equal(t, 28.0, commission.Amount)
	assert.Equal(t, 12.0, commission.PlatformAmount)
	assert.Equal(t, host.ID, commission.HostID)
	assert.Equal(t, model.PayoutStatusPending, commission.Status)
}

func TestCalculateHostCommissionCreditBasis(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionCommissionService(db)

	host := createStudent(t, db, "credithost@example.com")
	rate := 80.0
	conv := createConversation(t, db, model.LiveConversation{
		HostID:             host.ID,
		IsCreditBased:      true,
		CreditPrice:        5,
		HostCommissionRate: &rate,
	})
	bookStudents(t, db, conv.ID, 3)

	commission, err := svc.CalculateHostCommission(conv.ID)
	require.NoError(t, err)

	// 3 participants * 5 credits at $1/credit, 80% to the host.
	assert.Equal(t, 15.0, commission.TotalRevenue)
	assert.Equal(t, 12.0, commission.Amount)
	assert.Equal(t, 3.0, commission.PlatformAmount)
}

func TestCalculateHostCommissionIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionCommissionService(db)

	host := createStudent(t, db, "once@example.com")
	conv := createConversation(t, db, model.LiveConversation{HostID: host.ID, Price: 10})
	bookStudents(t, db, conv.ID, 2)

	first, err := svc.CalculateHostCommission(conv.ID)
	require.NoError(t, err)

	// More bookings after the calculation do not change the stored result.
	extra := createStudent(t, db, "latecomer@example.com")
	require.NoError(t, db.Create(&model.ConversationBooking{
		ConversationID: conv.ID,
		StudentID:      extra.ID,
	}).Error)

	second, err := svc.CalculateHostCommission(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Amount, second.Amount)

	var count int64
	require.NoError(t, db.Model(&model.HostCommission{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCalculateHostCommissionMissingSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionCommissionService(db)

	_, err := svc.CalculateHostCommission(404)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCalculateInstructorCommissionAttendanceBasis(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionCommissionService(db)

	instructor := createStudent(t, db, "instructor@example.com")
	session := createVideoSession(t, db, model.VideoSession{
		InstructorID: instructor.ID,
		Price:        20,
	})

	// Video session revenue counts attendance, not bookings.
	for i := 0; i < 3; i++ {
		student := createStudent(t, db, fmt.Sprintf("viewer%d@example.com", i))
		require.NoError(t, db.Create(&model.SessionAttendance{
			SessionID: session.ID,
			StudentID: student.ID,
			Minutes:   60,
		}).Error)
	}

	commission, err := svc.CalculateInstructorCommission(session.ID)
	require.NoError(t, err)

	assert.Equal(t, 60.0, commission.TotalRevenue)
	assert.Equal(t, 42.0, commission.Amount)
	assert.Equal(t, 18.0, commission.PlatformAmount)
	assert.Equal(t, instructor.ID, commission.InstructorID)
}

func TestCalculateInstructorCommissionNoAttendance(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionCommissionService(db)

	instructor := createStudent(t, db, "empty@example.com")
	session := createVideoSession(t, db, model.VideoSession{
		InstructorID: instructor.ID,
		Price:        20,
	})

	commission, err := svc.CalculateInstructorCommission(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, commission.TotalRevenue)
	assert.Equal(t, 0.0, commission.Amount)
	assert.Equal(t, 0.0, commission.PlatformAmount)
}
