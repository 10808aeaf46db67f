package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when the conversation/session is missing.
var ErrSessionNotFound = errors.New("session not found")

// SessionCommissionService computes host/instructor commissions for live
// conversations and video sessions. Creation is idempotent: one row per
// (session, leader); a second calculation returns the existing record.
type SessionCommissionService struct {
	db *gorm.DB
}

// NewSessionCommissionService creates a new session commission service
func NewSessionCommissionService(db *gorm.DB) *SessionCommissionService {
	return &SessionCommissionService{db: db}
}

// CalculateHostCommission computes (or returns) the commission for a live
// conversation's host. Conversation revenue is booking-based: bookings *
// price, or participants * credit price for credit-based conversations.
func (s *SessionCommissionService) CalculateHostCommission(conversationID uint) (*model.HostCommission, error) {
	var existing model.HostCommission
	err := s.db.Where("conversation_id = ?", conversationID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetch host commission: %w", err)
	}

	var conversation model.LiveConversation
	err = s.db.Preload("Bookings").First(&conversation, conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}

	participants := len(conversation.Bookings)
	revenue, meta := sessionRevenue(conversation.IsCreditBased, conversation.CreditPrice, conversation.Price, participants)
	rate := LeaderRate(conversation.HostCommissionRate)
	meta.RatePercent = rate

	split, err := SplitRevenue(revenue, rate)
	if err != nil {
		return nil, fmt.Errorf("split revenue: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal commission metadata: %w", err)
	}

	row := model.HostCommission{
		ConversationID: conversationID,
		HostID:         conversation.HostID,
		TotalRevenue:   split.TotalRevenue,
		Amount:         split.CommissionAmount, // the leader's share
		PlatformAmount: split.RemainderAmount,
		Status:         model.PayoutStatusPending,
		Metadata:       datatypes.JSON(metaJSON),
	}
	if err := s.db.Create(&row).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// Lost a race with a concurrent calculation; return its row.
			if err := s.db.Where("conversation_id = ?", conversationID).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("fetch host commission after conflict: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("create host commission: %w", err)
	}
	return &row, nil
}

// CalculateInstructorCommission computes (or returns) the commission for a
// video session's instructor. Video session revenue is attendance-based:
// attendance count * price, or participants * credit price.
func (s *SessionCommissionService) CalculateInstructorCommission(sessionID uint) (*model.InstructorCommission, error) {
	var existing model.InstructorCommission
	err := s.db.Where("session_id = ?", sessionID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fetch instructor commission: %w", err)
	}

	var session model.VideoSession
	err = s.db.Preload("Attendance").First(&session, sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("fetch video session: %w", err)
	}

	participants := len(session.Attendance)
	revenue, meta := sessionRevenue(session.IsCreditBased, session.CreditPrice, session.Price, participants)
	rate := LeaderRate(session.InstructorCommissionRate)
	meta.RatePercent = rate

	split, err := SplitRevenue(revenue, rate)
	if err != nil {
		return nil, fmt.Errorf("split revenue: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal commission metadata: %w", err)
	}

	row := model.InstructorCommission{
		SessionID:      sessionID,
		InstructorID:   session.InstructorID,
		TotalRevenue:   split.TotalRevenue,
		Amount:         split.CommissionAmount,
		PlatformAmount: split.RemainderAmount,
		Status:         model.PayoutStatusPending,
		Metadata:       datatypes.JSON(metaJSON),
	}
	if err := s.db.Create(&row).Error; err != nil {
		if database.IsUniqueViolation(err) {
			if err := s.db.Where("session_id = ?", sessionID).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("fetch instructor commission after conflict: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("create instructor commission: %w", err)
	}
	return &row, nil
}

func sessionRevenue(creditBased bool, creditPrice, price float64, participants int) (float64, model.CommissionMetadata) {
	if creditBased {
		return CreditRevenue(participants, creditPrice), model.CommissionMetadata{
			Basis:        "credits",
			UnitPrice:    creditPrice,
			Participants: participants,
		}
	}
	return PriceRevenue(price, participants), model.CommissionMetadata{
		Basis:        "price",
		UnitPrice:    price,
		Participants: participants,
	}
}
