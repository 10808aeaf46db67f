package session

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
	"github.com/linguahub/api/utils/validation"
)

var validate = validation.NewValidator()

// SessionHandler handles live conversation and video session endpoints
type SessionHandler struct {
	sessions    *services.SessionService
	commissions *services.SessionCommissionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService, commissions *services.SessionCommissionService) *SessionHandler {
	return &SessionHandler{sessions: sessions, commissions: commissions}
}

// CreateConversationRequest represents a new live conversation
type CreateConversationRequest struct {
	Title              string    `json:"title" validate:"required,min=2"`
	Language           string    `json:"language,omitempty"`
	StartTime          time.Time `json:"start_time" validate:"required"`
	EndTime            time.Time `json:"end_time" validate:"required"`
	MaxParticipants    int       `json:"max_participants" validate:"required,gt=0"`
	Price              float64   `json:"price,omitempty"`
	IsCreditBased      bool      `json:"is_credit_based,omitempty"`
	CreditPrice        float64   `json:"credit_price,omitempty"`
	HostCommissionRate *float64  `json:"host_commission_rate,omitempty"`
}

// CreateConversation schedules a live conversation hosted by the caller.
// POST /sessions/conversations
func (h *SessionHandler) CreateConversation(c *fiber.Ctx) error {
	hostID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	conversation := model.LiveConversation{
		HostID:             hostID,
		Title:              req.Title,
		Language:           req.Language,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		MaxParticipants:    req.MaxParticipants,
		Price:              req.Price,
		IsCreditBased:      req.IsCreditBased,
		CreditPrice:        req.CreditPrice,
		HostCommissionRate: req.HostCommissionRate,
	}
	if err := h.sessions.CreateConversation(&conversation); err != nil {
		if errors.Is(err, services.ErrInvalidWindow) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to create conversation")
	}

	return response.Created(c, conversation)
}

// CreateVideoSessionRequest represents a new video session
type CreateVideoSessionRequest struct {
	Title                    string    `json:"title" validate:"required,min=2"`
	Kind                     string    `json:"kind,omitempty"` // GROUP or ONE_TO_ONE
	StartTime                time.Time `json:"start_time" validate:"required"`
	EndTime                  time.Time `json:"end_time" validate:"required"`
	MaxParticipants          int       `json:"max_participants" validate:"required,gt=0"`
	Price                    float64   `json:"price,omitempty"`
	IsCreditBased            bool      `json:"is_credit_based,omitempty"`
	CreditPrice              float64   `json:"credit_price,omitempty"`
	InstructorCommissionRate *float64  `json:"instructor_commission_rate,omitempty"`
}

// CreateVideoSession schedules a video session taught by the caller.
// POST /sessions/video
func (h *SessionHandler) CreateVideoSession(c *fiber.Ctx) error {
	instructorID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateVideoSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	kind := req.Kind
	if kind == "" {
		kind = model.SessionKindGroup
	}
	if kind != model.SessionKindGroup && kind != model.SessionKindOneToOne {
		return response.BadRequest(c, "Invalid session kind")
	}

	session := model.VideoSession{
		InstructorID:             instructorID,
		Title:                    req.Title,
		Kind:                     kind,
		StartTime:                req.StartTime,
		EndTime:                  req.EndTime,
		MaxParticipants:          req.MaxParticipants,
		Price:                    req.Price,
		IsCreditBased:            req.IsCreditBased,
		CreditPrice:              req.CreditPrice,
		InstructorCommissionRate: req.InstructorCommissionRate,
	}
	if err := h.sessions.CreateVideoSession(&session); err != nil {
		if errors.Is(err, services.ErrInvalidWindow) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to create video session")
	}

	return response.Created(c, session)
}

// BookConversation books the caller into a conversation, subject to the
// monthly group session quota and the participant limit.
// POST /sessions/conversations/:id/book
func (h *SessionHandler) BookConversation(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	conversationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid conversation id")
	}

	decision, err := h.sessions.BookConversation(uint(conversationID), studentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return response.NotFound(c, "Conversation not found")
		case errors.Is(err, services.ErrNoSubscription):
			return response.Forbidden(c, "An active subscription is required to book sessions")
		case errors.Is(err, services.ErrQuotaExhausted):
			return c.Status(fiber.StatusForbidden).JSON(response.Response{
				Success: false,
				Data:    decision,
				Error: &response.ErrorDetail{
					Code:    "QUOTA_EXHAUSTED",
					Message: decision.Message,
				},
			})
		case errors.Is(err, services.ErrSessionFull):
			return response.Conflict(c, "Conversation is full")
		case errors.Is(err, services.ErrAlreadyBooked):
			return response.Conflict(c, "Already booked this conversation")
		default:
			return response.InternalServerError(c, "Failed to book conversation")
		}
	}

	return response.SuccessWithMessage(c, "Conversation booked", decision)
}

// AttendConversation records the caller's attendance for a conversation.
// POST /sessions/conversations/:id/attend
func (h *SessionHandler) AttendConversation(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	conversationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid conversation id")
	}

	err = h.sessions.RecordConversationAttendance(uint(conversationID), studentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			return response.NotFound(c, "Conversation not found")
		case errors.Is(err, services.ErrSessionNotStarted):
			return response.BadRequest(c, "Conversation has not started yet")
		default:
			return response.InternalServerError(c, "Failed to record attendance")
		}
	}

	return response.Success(c, fiber.Map{"attended": true})
}

// AttendVideoRequest carries the attended minutes
type AttendVideoRequest struct {
	Minutes int `json:"minutes" validate:"required,gt=0"`
}

// AttendVideoSession records the caller's attendance for a video session.
// POST /sessions/video/:id/attend
func (h *SessionHandler) AttendVideoSession(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session id")
	}

	var req AttendVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Minutes <= 0 {
		return response.BadRequest(c, "minutes must be positive")
	}

	err = h.sessions.RecordVideoAttendance(uint(sessionID), studentID, req.Minutes)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Video session not found")
		}
		return response.InternalServerError(c, "Failed to record attendance")
	}

	return response.Success(c, fiber.Map{"attended": true})
}

// CalculateConversationCommission computes (or returns) the host's payout
// for a finished conversation.
// POST /sessions/conversations/:id/commission
func (h *SessionHandler) CalculateConversationCommission(c *fiber.Ctx) error {
	conversationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid conversation id")
	}

	commission, err := h.commissions.CalculateHostCommission(uint(conversationID))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Conversation not found")
		}
		return response.InternalServerError(c, "Failed to calculate commission")
	}

	return response.Success(c, commission)
}

// CalculateVideoCommission computes (or returns) the instructor's payout
// for a finished video session.
// POST /sessions/video/:id/commission
func (h *SessionHandler) CalculateVideoCommission(c *fiber.Ctx) error {
	sessionID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid session id")
	}

	commission, err := h.commissions.CalculateInstructorCommission(uint(sessionID))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return response.NotFound(c, "Video session not found")
		}
		return response.InternalServerError(c, "Failed to calculate commission")
	}

	return response.Success(c, commission)
}
