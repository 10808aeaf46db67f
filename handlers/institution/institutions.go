package institution

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
	"github.com/linguahub/api/utils/validation"
	"gorm.io/gorm"
)

var validate = validation.NewValidator()

// defaultCommissionRate is applied to newly registered institutions until
// an admin sets a per-institution rate. Overridden at boot from
// DEFAULT_COMMISSION_RATE.
var defaultCommissionRate = 15.0

// SetDefaultCommissionRate overrides the rate applied to new institutions.
// Out-of-range values are ignored.
func SetDefaultCommissionRate(rate float64) {
	if rate >= 0 && rate <= 100 {
		defaultCommissionRate = rate
	}
}

// RegisterInstitutionRequest represents a new institution application
type RegisterInstitutionRequest struct {
	Name             string `json:"name" validate:"required,min=2"`
	SubscriptionPlan string `json:"subscription_plan,omitempty"`
}

// RegisterInstitution creates a pending institution owned by the current user.
// POST /institutions
func RegisterInstitution(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	if user.InstitutionID != nil {
		return response.Conflict(c, "User already manages an institution")
	}

	var req RegisterInstitutionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	plan := req.SubscriptionPlan
	if plan == "" {
		plan = model.InstitutionPlanStarter
	}
	switch plan {
	case model.InstitutionPlanStarter, model.InstitutionPlanProfessional, model.InstitutionPlanEnterprise:
	default:
		return response.BadRequest(c, "Invalid subscription plan")
	}

	institution := model.Institution{
		Name:             req.Name,
		SubscriptionPlan: plan,
		Status:           model.InstitutionStatusPending,
		CommissionRate:   defaultCommissionRate,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&institution).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"institution_id": institution.ID,
				"role":           model.RoleInstitution,
			}).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to register institution")
	}

	return response.Created(c, institution)
}

// ListInstitutions lists approved institutions, featured first.
// GET /institutions
func ListInstitutions(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := db.Model(&model.Institution{}).
		Where("is_approved = ? AND status = ?", true, model.InstitutionStatusActive)

	if c.Query("featured") == "true" {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	query.Count(&total)

	var institutions []model.Institution
	offset := (page - 1) * limit
	err := query.Order("is_featured DESC, name ASC").
		Offset(offset).Limit(limit).Find(&institutions).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch institutions")
	}

	return response.Paginated(c, institutions, response.CalculatePagination(page, limit, total))
}

// GetInstitution retrieves a single institution with its published courses.
// GET /institutions/:id
func GetInstitution(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	var institution model.Institution
	err = db.Preload("Courses", "status = ?", model.CourseStatusPublished).
		First(&institution, uint(id)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Institution not found")
		}
		return response.InternalServerError(c, "Failed to fetch institution")
	}

	return response.Success(c, institution)
}

// ApproveInstitution marks an institution approved and active.
// POST /admin/institutions/:id/approve
func ApproveInstitution(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	var institution model.Institution
	if err := db.First(&institution, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Institution not found")
		}
		return response.InternalServerError(c, "Failed to fetch institution")
	}

	updates := map[string]interface{}{
		"is_approved": true,
		"status":      model.InstitutionStatusActive,
	}
	if err := db.Model(&institution).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to approve institution")
	}

	return response.SuccessWithMessage(c, "Institution approved", institution)
}

// SetCommissionRateRequest carries the new platform commission rate.
type SetCommissionRateRequest struct {
	// A zero rate is valid: the platform keeps nothing.
	CommissionRate float64 `json:"commission_rate" validate:"gte=0,lte=100"`
}

// SetCommissionRate updates an institution's platform commission rate.
// Existing payment and payout records keep the rate they were computed
// with; only future payments use the new rate.
// PUT /admin/institutions/:id/commission-rate
func SetCommissionRate(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid institution id")
	}

	var req SetCommissionRateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var institution model.Institution
	if err := db.First(&institution, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Institution not found")
		}
		return response.InternalServerError(c, "Failed to fetch institution")
	}

	err = db.Model(&institution).Update("commission_rate", req.CommissionRate).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to update commission rate")
	}

	return response.SuccessWithMessage(c, "Commission rate updated", institution)
}
