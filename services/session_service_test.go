package services

import (
	"testing"
	"time"

	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sessionFixture struct {
	db      *gorm.DB
	svc     *SessionService
	subs    *SubscriptionService
	now     time.Time
	student *model.User
	host    *model.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	quotas := NewQuotaService(db)
	svc := NewSessionService(db, quotas, subs)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	subs.now = func() time.Time { return now }

	return &sessionFixture{
		db:      db,
		svc:     svc,
		subs:    subs,
		now:     now,
		student: createStudent(t, db, "attendee@example.com"),
		host:    createStudent(t, db, "host@example.com"),
	}
}

func (f *sessionFixture) conversation(t *testing.T, maxParticipants int) *model.LiveConversation {
	t.Helper()

	conv := model.LiveConversation{
		HostID:          f.host.ID,
		Title:           "Morning Coffee Chat",
		StartTime:       f.now.Add(time.Hour),
		EndTime:         f.now.Add(time.Hour + 45*time.Minute),
		MaxParticipants: maxParticipants,
		Price:           5,
	}
	require.NoError(t, f.db.Create(&conv).Error)
	return &conv
}

func TestValidateWindow(t *testing.T) {
	f := newSessionFixture(t)

	assert.NoError(t, f.svc.ValidateWindow(f.now.Add(time.Hour), f.now.Add(2*time.Hour)))

	err := f.svc.ValidateWindow(f.now.Add(2*time.Hour), f.now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	err = f.svc.ValidateWindow(f.now.Add(-time.Hour), f.now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestCreateConversationValidation(t *testing.T) {
	f := newSessionFixture(t)

	err := f.svc.CreateConversation(&model.LiveConversation{
		HostID:          f.host.ID,
		Title:           "Bad Window",
		StartTime:       f.now.Add(-time.Hour),
		EndTime:         f.now.Add(time.Hour),
		MaxParticipants: 8,
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	err = f.svc.CreateConversation(&model.LiveConversation{
		HostID:          f.host.ID,
		Title:           "No Seats",
		StartTime:       f.now.Add(time.Hour),
		EndTime:         f.now.Add(2 * time.Hour),
		MaxParticipants: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	conv := model.LiveConversation{
		HostID:          f.host.ID,
		Title:           "Valid",
		StartTime:       f.now.Add(time.Hour),
		EndTime:         f.now.Add(2 * time.Hour),
		MaxParticipants: 8,
	}
	require.NoError(t, f.svc.CreateConversation(&conv))
	assert.NotZero(t, conv.ID)
}

func TestBookConversationRequiresSubscription(t *testing.T) {
	f := newSessionFixture(t)
	conv := f.conversation(t, 8)

	_, err := f.svc.BookConversation(conv.ID, f.student.ID)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestBookConversationQuotaGate(t *testing.T) {
	f := newSessionFixture(t)
	subscribeActive(t, f.db, f.student.ID, model.StudentTierBasic)
	conv := f.conversation(t, 8)

	// Exhaust the basic tier's monthly group allowance.
	require.NoError(t, f.db.Create(&model.MonthlyUsage{
		StudentID:     f.student.ID,
		Period:        model.UsagePeriod(f.now),
		GroupSessions: 5,
	}).Error)

	decision, err := f.svc.BookConversation(conv.ID, f.student.ID)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	require.NotNil(t, decision)
	assert.Equal(t, QuotaDimensionGroup, decision.BlockedDimension)

	// The blocked booking left no row behind.
	var count int64
	require.NoError(t, f.db.Model(&model.ConversationBooking{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBookConversationCapacityAndDuplicates(t *testing.T) {
	f := newSessionFixture(t)
	conv := f.conversation(t, 2)

	subscribeActive(t, f.db, f.student.ID, model.StudentTierPro)
	decision, err := f.svc.BookConversation(conv.ID, f.student.ID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	_, err = f.svc.BookConversation(conv.ID, f.student.ID)
	assert.ErrorIs(t, err, ErrAlreadyBooked)

	second := createStudent(t, f.db, "second@example.com")
	subscribeActive(t, f.db, second.ID, model.StudentTierPro)
	_, err = f.svc.BookConversation(conv.ID, second.ID)
	require.NoError(t, err)

	third := createStudent(t, f.db, "third@example.com")
	subscribeActive(t, f.db, third.ID, model.StudentTierPro)
	_, err = f.svc.BookConversation(conv.ID, third.ID)
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestBookConversationMissing(t *testing.T) {
	f := newSessionFixture(t)
	subscribeActive(t, f.db, f.student.ID, model.StudentTierPro)

	_, err := f.svc.BookConversation(404, f.student.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordConversationAttendance(t *testing.T) {
	f := newSessionFixture(t)
	conv := f.conversation(t, 8)

	t.Run("not started yet", func(t *testing.T) {
		err := f.svc.RecordConversationAttendance(conv.ID, f.student.ID)
		assert.ErrorIs(t, err, ErrSessionNotStarted)
	})

	t.Run("counts minutes once", func(t *testing.T) {
		// Move past the conversation window.
		f.svc.now = func() time.Time { return f.now.Add(3 * time.Hour) }

		require.NoError(t, f.svc.RecordConversationAttendance(conv.ID, f.student.ID))
		require.NoError(t, f.svc.RecordConversationAttendance(conv.ID, f.student.ID))

		var usage model.MonthlyUsage
		require.NoError(t, f.db.Where("student_id = ? AND period = ?",
			f.student.ID, model.UsagePeriod(conv.StartTime)).First(&usage).Error)
		assert.Equal(t, 1, usage.GroupSessions)
		assert.Equal(t, 45, usage.MinutesAttended)
	})
}

func TestRecordVideoAttendance(t *testing.T) {
	f := newSessionFixture(t)

	session := model.VideoSession{
		InstructorID:    f.host.ID,
		Title:           "Pronunciation Lab",
		Kind:            model.SessionKindOneToOne,
		StartTime:       f.now.Add(-2 * time.Hour),
		EndTime:         f.now.Add(-time.Hour),
		MaxParticipants: 1,
		Price:           30,
	}
	require.NoError(t, f.db.Create(&session).Error)

	require.NoError(t, f.svc.RecordVideoAttendance(session.ID, f.student.ID, 55))
	// Replays keep both the attendance row and the counters stable.
	require.NoError(t, f.svc.RecordVideoAttendance(session.ID, f.student.ID, 55))

	var attendance int64
	require.NoError(t, f.db.Model(&model.SessionAttendance{}).
		Where("session_id = ?", session.ID).Count(&attendance).Error)
	assert.Equal(t, int64(1), attendance)

	var usage model.MonthlyUsage
	require.NoError(t, f.db.Where("student_id = ? AND period = ?",
		f.student.ID, model.UsagePeriod(session.StartTime)).First(&usage).Error)
	assert.Equal(t, 1, usage.OneToOneSessions)
	assert.Equal(t, 0, usage.GroupSessions)
	assert.Equal(t, 55, usage.MinutesAttended)

	err := f.svc.RecordVideoAttendance(404, f.student.ID, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRecordVideoAttendanceRecoversPartialWrite(t *testing.T) {
	f := newSessionFixture(t)

	session := model.VideoSession{
		InstructorID:    f.host.ID,
		Title:           "Grammar Clinic",
		Kind:            model.SessionKindOneToOne,
		StartTime:       f.now.Add(-2 * time.Hour),
		EndTime:         f.now.Add(-time.Hour),
		MaxParticipants: 1,
		Price:           30,
	}
	require.NoError(t, f.db.Create(&session).Error)

	// An attendance row without its usage event is what an interrupted
	// earlier attempt leaves behind. A retry must still count the usage.
	orphan := model.SessionAttendance{
		SessionID: session.ID,
		StudentID: f.student.ID,
		Minutes:   55,
	}
	require.NoError(t, f.db.Create(&orphan).Error)

	require.NoError(t, f.svc.RecordVideoAttendance(session.ID, f.student.ID, 55))

	var usage model.MonthlyUsage
	require.NoError(t, f.db.Where("student_id = ? AND period = ?",
		f.student.ID, model.UsagePeriod(session.StartTime)).First(&usage).Error)
	assert.Equal(t, 1, usage.OneToOneSessions)
	assert.Equal(t, 55, usage.MinutesAttended)

	var attendance int64
	require.NoError(t, f.db.Model(&model.SessionAttendance{}).
		Where("session_id = ?", session.ID).Count(&attendance).Error)
	assert.Equal(t, int64(1), attendance)
}
