package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/services/payments"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
	"github.com/linguahub/api/utils/validation"
	"gorm.io/gorm"
)

var validate = validation.NewValidator()

// PaymentHandler handles payment intents, webhooks and payment listings
type PaymentHandler struct {
	db            *gorm.DB
	payments      *services.PaymentService
	webhookSecret string
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, paymentService *services.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		db:            db,
		payments:      paymentService,
		webhookSecret: webhookSecret,
	}
}

// CreateIntentRequest identifies the enrollment to pay for
type CreateIntentRequest struct {
	EnrollmentID uint `json:"enrollment_id" validate:"required"`
}

// CreateIntent creates a payment intent at the provider for a pending
// enrollment owned by the caller.
// POST /payments/intent
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	// The enrollment must belong to the caller
	var enrollment model.Enrollment
	if err := h.db.First(&enrollment, req.EnrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to fetch enrollment")
	}
	if enrollment.StudentID != studentID {
		return response.Forbidden(c, "Enrollment belongs to another student")
	}
	if enrollment.PaymentStatus == model.PaymentStatusPaid {
		return response.Conflict(c, "Enrollment is already paid")
	}

	intent, err := h.payments.CreatePaymentIntent(c.Context(), req.EnrollmentID)
	if err != nil {
		if errors.Is(err, services.ErrEnrollmentNotFound) {
			return response.NotFound(c, "Enrollment not found")
		}
		return response.InternalServerError(c, "Failed to create payment intent")
	}

	return response.Success(c, intent)
}

// Webhook ingests provider events. The raw body is authenticated with an
// HMAC-SHA256 signature before parsing; events are deduplicated by ID so
// provider retries are safe.
// POST /payments/webhook
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	body := c.Body()

	if h.webhookSecret != "" {
		signature := c.Get("X-Webhook-Signature")
		if !verifySignature(body, signature, h.webhookSecret) {
			return response.Unauthorized(c, "Invalid webhook signature")
		}
	}

	var event payments.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return response.BadRequest(c, "Invalid event payload")
	}
	if event.ID == "" || event.Type == "" {
		return response.BadRequest(c, "Event id and type are required")
	}

	if err := h.payments.HandleWebhook(event); err != nil {
		log.Printf("[WEBHOOK] event %s (%s) failed: %v", event.ID, event.Type, err)
		// Non-2xx makes the provider retry; dedupe keeps the retry safe
		return response.InternalServerError(c, "Failed to process event")
	}

	return response.Success(c, fiber.Map{"received": true})
}

func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// MarkPaidRequest records a manual (offline) payment settlement
type MarkPaidRequest struct {
	EnrollmentID uint   `json:"enrollment_id" validate:"required"`
	Method       string `json:"method" validate:"required"`
	Notes        string `json:"notes,omitempty"`
}

// MarkPaid settles an enrollment manually, e.g. for bank transfers. The
// payment method must be on the approved list. Admin only.
// POST /admin/payments/mark-paid
func (h *PaymentHandler) MarkPaid(c *fiber.Ctx) error {
	adminEmail, _ := middleware.GetUserEmail(c)

	var req MarkPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	payment, err := h.payments.MarkPaid(req.EnrollmentID, req.Method, adminEmail, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEnrollmentNotFound):
			return response.NotFound(c, "Enrollment not found")
		case errors.Is(err, services.ErrPaymentMethodNotAllowed):
			return response.BadRequest(c, "Payment method is not approved")
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.SuccessWithMessage(c, "Payment recorded", payment)
}

// MyPayments lists the caller's payments, newest first.
// GET /payments
func (h *PaymentHandler) MyPayments(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.Model(&model.Payment{}).
		Joins("JOIN enrollments ON enrollments.id = payments.enrollment_id").
		Where("enrollments.student_id = ?", studentID)

	var total int64
	query.Count(&total)

	var rows []model.Payment
	offset := (page - 1) * limit
	err := query.Order("payments.created_at DESC").
		Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch payments")
	}

	return response.Paginated(c, rows, response.CalculatePagination(page, limit, total))
}
