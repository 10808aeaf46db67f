package usage

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
)

// UsageHandler exposes monthly usage counters against tier entitlements
type UsageHandler struct {
	quotas        *services.QuotaService
	subscriptions *services.SubscriptionService
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(quotas *services.QuotaService, subscriptions *services.SubscriptionService) *UsageHandler {
	return &UsageHandler{quotas: quotas, subscriptions: subscriptions}
}

// MyUsage returns the caller's usage for a period (default: current month)
// alongside their entitlement caps.
// GET /usage?period=2026-08
func (h *UsageHandler) MyUsage(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	period := c.Query("period")
	if period == "" {
		period = model.UsagePeriod(time.Now())
	} else if _, err := time.Parse("2006-01", period); err != nil {
		return response.BadRequest(c, "Invalid period, expected YYYY-MM")
	}

	// Expired or absent subscriptions report a zero entitlement
	tier := ""
	if active, activeTier, err := h.subscriptions.HasActive(studentID); err == nil && active {
		tier = activeTier
	}

	report, err := h.quotas.Report(studentID, tier, period)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch usage")
	}

	return response.Success(c, report)
}
