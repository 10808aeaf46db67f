package services

import (
	"errors"
	"fmt"

	"github.com/linguahub/api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Quota dimensions. A booking is blocked when ANY relevant dimension is
// exhausted; the blocking dimension is surfaced, never collapsed into a
// generic "limit reached".
const (
	QuotaDimensionGroup    = "group"
	QuotaDimensionOneToOne = "one_to_one"
	QuotaDimensionMinutes  = "minutes"
)

// ErrQuotaExhausted wraps a blocked booking decision.
var ErrQuotaExhausted = errors.New("monthly quota exhausted")

// UsageEntitlement is the cap set granted by a subscription tier.
type UsageEntitlement struct {
	GroupCap    int `json:"group_cap"`
	OneToOneCap int `json:"one_to_one_cap"`
	MinutesCap  int `json:"minutes_cap"`
}

// UsageReport is the caller-facing usage payload for the current month.
type UsageReport struct {
	Period      string           `json:"period"`
	Group       int              `json:"group"`
	OneToOne    int              `json:"one_to_one"`
	Minutes     int              `json:"minutes"`
	Entitlement UsageEntitlement `json:"entitlement"`
}

// QuotaDecision reports whether a booking may proceed and, when blocked,
// which dimension blocked it.
type QuotaDecision struct {
	Allowed          bool   `json:"allowed"`
	BlockedDimension string `json:"blocked_dimension,omitempty"`
	Message          string `json:"message,omitempty"`
	Remaining        int    `json:"remaining"` // on the checked dimension; -1 = unlimited
}

// QuotaService accumulates monthly attendance counts per student against
// tier entitlement caps.
type QuotaService struct {
	db *gorm.DB
}

// NewQuotaService creates a new quota service
func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{db: db}
}

// EntitlementFor derives the monthly caps from a student tier.
func EntitlementFor(tier string) UsageEntitlement {
	info := ResolveStudentTier(tier)
	if info.Rank == 0 {
		// Unknown tier: no entitlement at all, fail closed.
		return UsageEntitlement{GroupCap: 0, OneToOneCap: 0, MinutesCap: 0}
	}
	return UsageEntitlement{
		GroupCap:    info.GroupSessionCap,
		OneToOneCap: info.OneToOneCap,
		MinutesCap:  info.MinutesCap,
	}
}

// usage fetches (or zero-values) the student's counter row for the period.
func (s *QuotaService) usage(studentID uint, period string) (*model.MonthlyUsage, error) {
	var row model.MonthlyUsage
	err := s.db.Where("student_id = ? AND period = ?", studentID, period).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.MonthlyUsage{StudentID: studentID, Period: period}, nil
		}
		return nil, fmt.Errorf("fetch monthly usage: %w", err)
	}
	return &row, nil
}

// Report returns the student's usage for the period alongside their
// entitlement caps.
func (s *QuotaService) Report(studentID uint, tier, period string) (*UsageReport, error) {
	row, err := s.usage(studentID, period)
	if err != nil {
		return nil, err
	}
	return &UsageReport{
		Period:      period,
		Group:       row.GroupSessions,
		OneToOne:    row.OneToOneSessions,
		Minutes:     row.MinutesAttended,
		Entitlement: EntitlementFor(tier),
	}, nil
}

// CheckBooking decides whether a booking of the given kind may proceed in
// the period. Dimensions are AND'ed: the session-count dimension for the
// kind AND the minutes dimension must both have headroom.
func (s *QuotaService) CheckBooking(studentID uint, tier, kind, period string, minutes int) (*QuotaDecision, error) {
	row, err := s.usage(studentID, period)
	if err != nil {
		return nil, err
	}
	entitlement := EntitlementFor(tier)

	switch kind {
	case model.SessionKindGroup:
		if !CapAllows(entitlement.GroupCap, row.GroupSessions) {
			return &QuotaDecision{
				BlockedDimension: QuotaDimensionGroup,
				Message:          "Monthly group session limit reached",
			}, nil
		}
	case model.SessionKindOneToOne:
		if !CapAllows(entitlement.OneToOneCap, row.OneToOneSessions) {
			return &QuotaDecision{
				BlockedDimension: QuotaDimensionOneToOne,
				Message:          "Monthly one-to-one session limit reached",
			}, nil
		}
	default:
		return nil, fmt.Errorf("unknown session kind %q", kind)
	}

	if entitlement.MinutesCap != Unlimited &&
		row.MinutesAttended+minutes > entitlement.MinutesCap {
		return &QuotaDecision{
			BlockedDimension: QuotaDimensionMinutes,
			Message:          "Monthly attendance minutes limit reached",
		}, nil
	}

	remaining := Unlimited
	if kind == model.SessionKindGroup {
		remaining = CapRemaining(entitlement.GroupCap, row.GroupSessions)
	} else {
		remaining = CapRemaining(entitlement.OneToOneCap, row.OneToOneSessions)
	}
	return &QuotaDecision{Allowed: true, Remaining: remaining}, nil
}

// RecordAttendance increments the student's monthly counters for one
// attendance event. Increments are keyed by (session type, session,
// student): replaying the same event never double-counts.
func (s *QuotaService) RecordAttendance(sessionType string, sessionID, studentID uint, kind, period string, minutes int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.recordAttendance(tx, sessionType, sessionID, studentID, kind, period, minutes)
	})
}

// recordAttendance runs the event insert and counter increments on the
// caller's transaction, so callers can bundle their own writes with the
// quota update atomically.
func (s *QuotaService) recordAttendance(tx *gorm.DB, sessionType string, sessionID, studentID uint, kind, period string, minutes int) error {
	event := model.AttendanceEvent{
		SessionType: sessionType,
		SessionID:   sessionID,
		StudentID:   studentID,
		Kind:        kind,
		Minutes:     minutes,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
	if result.Error != nil {
		return fmt.Errorf("record attendance event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Duplicate event: counters already include it.
		return nil
	}

	var row model.MonthlyUsage
	err := tx.Where(model.MonthlyUsage{StudentID: studentID, Period: period}).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("upsert monthly usage: %w", err)
	}

	updates := map[string]interface{}{
		"minutes_attended": gorm.Expr("minutes_attended + ?", minutes),
	}
	switch kind {
	case model.SessionKindGroup:
		updates["group_sessions"] = gorm.Expr("group_sessions + 1")
	case model.SessionKindOneToOne:
		updates["one_to_one_sessions"] = gorm.Expr("one_to_one_sessions + 1")
	default:
		return fmt.Errorf("unknown session kind %q", kind)
	}
	err = tx.Model(&model.MonthlyUsage{}).Where("id = ?", row.ID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("increment monthly usage: %w", err)
	}
	return nil
}
