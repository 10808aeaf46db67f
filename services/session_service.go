package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/linguahub/api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Session booking errors
var (
	ErrSessionFull       = errors.New("session has reached its participant limit")
	ErrAlreadyBooked     = errors.New("student already booked this session")
	ErrInvalidWindow     = errors.New("invalid scheduling window")
	ErrNoSubscription    = errors.New("an active subscription is required to book sessions")
	ErrSessionNotStarted = errors.New("session has not started yet")
)

// SessionService handles live conversation and video session scheduling,
// booking and attendance. Bookings are quota-gated; attendance feeds the
// monthly usage counters.
type SessionService struct {
	db            *gorm.DB
	quotas        *QuotaService
	subscriptions *SubscriptionService
	now           func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(db *gorm.DB, quotas *QuotaService, subscriptions *SubscriptionService) *SessionService {
	return &SessionService{
		db:            db,
		quotas:        quotas,
		subscriptions: subscriptions,
		now:           time.Now,
	}
}

// ValidateWindow checks a session's scheduling window: start before end,
// start in the future.
func (s *SessionService) ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start time must be before end time", ErrInvalidWindow)
	}
	if !start.After(s.now()) {
		return fmt.Errorf("%w: start time must be in the future", ErrInvalidWindow)
	}
	return nil
}

// CreateConversation validates and stores a new live conversation.
func (s *SessionService) CreateConversation(conversation *model.LiveConversation) error {
	if err := s.ValidateWindow(conversation.StartTime, conversation.EndTime); err != nil {
		return err
	}
	if conversation.MaxParticipants <= 0 {
		return fmt.Errorf("%w: max participants must be positive", ErrInvalidWindow)
	}
	if err := s.db.Create(conversation).Error; err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// CreateVideoSession validates and stores a new video session.
func (s *SessionService) CreateVideoSession(session *model.VideoSession) error {
	if err := s.ValidateWindow(session.StartTime, session.EndTime); err != nil {
		return err
	}
	if session.MaxParticipants <= 0 {
		return fmt.Errorf("%w: max participants must be positive", ErrInvalidWindow)
	}
	if err := s.db.Create(session).Error; err != nil {
		return fmt.Errorf("create video session: %w", err)
	}
	return nil
}

// BookConversation books a seat in a live conversation. The quota check
// runs first (group dimension); the capacity check re-runs inside the
// transaction under a row lock so the participant count cannot exceed
// MaxParticipants.
func (s *SessionService) BookConversation(conversationID, studentID uint) (*QuotaDecision, error) {
	active, tier, err := s.subscriptions.HasActive(studentID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrNoSubscription
	}

	period := model.UsagePeriod(s.now())
	decision, err := s.quotas.CheckBooking(studentID, tier, model.SessionKindGroup, period, 0)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return decision, fmt.Errorf("%w: %s", ErrQuotaExhausted, decision.BlockedDimension)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var conversation model.LiveConversation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conversation, conversationID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("fetch conversation: %w", err)
		}

		var booked int64
		err = tx.Model(&model.ConversationBooking{}).
			Where("conversation_id = ?", conversationID).
			Count(&booked).Error
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if booked >= int64(conversation.MaxParticipants) {
			return ErrSessionFull
		}

		booking := model.ConversationBooking{
			ConversationID: conversationID,
			StudentID:      studentID,
		}
		if err := tx.Create(&booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBooked
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return decision, err
	}
	return decision, nil
}

// RecordConversationAttendance counts a booked student's attendance
// against their monthly group quota. Safe to call more than once for the
// same (conversation, student).
func (s *SessionService) RecordConversationAttendance(conversationID, studentID uint) error {
	var conversation model.LiveConversation
	if err := s.db.First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("fetch conversation: %w", err)
	}

	if conversation.StartTime.After(s.now()) {
		return ErrSessionNotStarted
	}

	minutes := int(conversation.EndTime.Sub(conversation.StartTime).Minutes())
	period := model.UsagePeriod(conversation.StartTime)
	return s.quotas.RecordAttendance(model.SessionTypeConversation, conversationID, studentID,
		model.SessionKindGroup, period, minutes)
}

// RecordVideoAttendance stores the attendance row for a video session and
// counts it against the student's monthly quota on the session's kind
// dimension. Idempotent per (session, student).
func (s *SessionService) RecordVideoAttendance(sessionID, studentID uint, minutes int) error {
	var session model.VideoSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("fetch video session: %w", err)
	}

	period := model.UsagePeriod(session.StartTime)

	// The attendance row and the quota counters must land together. The
	// event insert inside recordAttendance is the idempotency key for
	// both, so a replay after a partial failure completes the missing
	// half instead of short-circuiting.
	return s.db.Transaction(func(tx *gorm.DB) error {
		attendance := model.SessionAttendance{
			SessionID: sessionID,
			StudentID: studentID,
			Minutes:   minutes,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&attendance)
		if result.Error != nil {
			return fmt.Errorf("create attendance: %w", result.Error)
		}
		return s.quotas.recordAttendance(tx, model.SessionTypeVideo, sessionID, studentID,
			session.Kind, period, minutes)
	})
}
