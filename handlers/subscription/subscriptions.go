package subscription

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
	"github.com/linguahub/api/utils/validation"
)

var validate = validation.NewValidator()

const defaultTrialDays = 7

// SubscriptionHandler handles student subscription lifecycle requests
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
	settings      *services.SettingsService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions *services.SubscriptionService, settings *services.SettingsService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, settings: settings}
}

// SubscribeRequest selects the tier to subscribe to
type SubscribeRequest struct {
	Tier string `json:"tier" validate:"required"`
}

// Subscribe starts (or switches) the caller's subscription. New
// subscribers get a trial window sized by the admin-configurable
// default.
// POST /subscriptions
func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	sub, err := h.subscriptions.Subscribe(studentID, req.Tier, h.trialDays())
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	return response.Created(c, sub)
}

// Status returns the caller's current subscription state, with trial
// expiry applied lazily at read time.
// GET /subscriptions/status
func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	status, err := h.subscriptions.Resolve(studentID)
	if err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			return response.NotFound(c, "No subscription found")
		}
		return response.InternalServerError(c, "Failed to resolve subscription")
	}

	return response.Success(c, status)
}

// ConfirmPayment records the first post-trial payment, converting a
// trial into a full subscription.
// POST /subscriptions/confirm-payment
func (h *SubscriptionHandler) ConfirmPayment(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if err := h.subscriptions.MarkPostTrialPaid(studentID); err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			return response.NotFound(c, "No subscription found")
		}
		return response.InternalServerError(c, "Failed to confirm payment")
	}

	status, err := h.subscriptions.Resolve(studentID)
	if err != nil {
		return response.InternalServerError(c, "Failed to resolve subscription")
	}
	return response.SuccessWithMessage(c, "Subscription payment confirmed", status)
}

func (h *SubscriptionHandler) trialDays() int {
	if h.settings == nil {
		return defaultTrialDays
	}
	value, err := h.settings.Get(model.SettingDefaultTrialDays)
	if err != nil || value == "" {
		return defaultTrialDays
	}
	days, err := strconv.Atoi(value)
	if err != nil || days < 0 {
		return defaultTrialDays
	}
	return days
}
