package course

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
	"github.com/linguahub/api/utils/validation"
	"gorm.io/gorm"
)

var validate = validation.NewValidator()

// CreateCourseRequest represents a new course listing
type CreateCourseRequest struct {
	Title                string  `json:"title" validate:"required,min=2"`
	Description          string  `json:"description,omitempty"`
	Language             string  `json:"language,omitempty"`
	BasePrice            float64 `json:"base_price" validate:"gte=0"`
	PricingPeriod        string  `json:"pricing_period,omitempty"`
	MaxStudents          int     `json:"max_students,omitempty"`
	RequiresSubscription bool    `json:"requires_subscription,omitempty"`
	SubscriptionTier     string  `json:"subscription_tier,omitempty"`
	MarketingType        string  `json:"marketing_type,omitempty"`
}

// CreateCourse creates a draft course for the caller's institution. Admins
// may create platform-owned courses (no institution).
// POST /courses
func CreateCourse(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	marketingType := req.MarketingType
	if marketingType == "" {
		marketingType = model.MarketingTypeSelfPaced
	}
	switch marketingType {
	case model.MarketingTypeSelfPaced, model.MarketingTypeLiveOnline, model.MarketingTypeBlended:
	default:
		return response.BadRequest(c, "Invalid marketing type")
	}

	pricingPeriod := req.PricingPeriod
	if pricingPeriod == "" {
		pricingPeriod = model.PricingPeriodOneTime
	}
	switch pricingPeriod {
	case model.PricingPeriodOneTime, model.PricingPeriodMonthly:
	default:
		return response.BadRequest(c, "Invalid pricing period")
	}

	course := model.Course{
		Title:                req.Title,
		Description:          req.Description,
		Language:             req.Language,
		BasePrice:            req.BasePrice,
		PricingPeriod:        pricingPeriod,
		MaxStudents:          req.MaxStudents,
		RequiresSubscription: req.RequiresSubscription,
		SubscriptionTier:     req.SubscriptionTier,
		MarketingType:        marketingType,
		Status:               model.CourseStatusDraft,
	}

	switch user.Role {
	case model.RoleInstitution:
		if user.InstitutionID == nil {
			return response.Forbidden(c, "User is not linked to an institution")
		}
		var institution model.Institution
		if err := db.First(&institution, *user.InstitutionID).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch institution")
		}
		reached, err := monthlyCourseCapReached(db, &institution, time.Now())
		if err != nil {
			return response.InternalServerError(c, "Failed to check course allowance")
		}
		if reached {
			return response.Forbidden(c, "Monthly course limit reached for your subscription plan")
		}
		course.InstitutionID = user.InstitutionID
	case model.RoleAdmin:
		// Platform-owned course, InstitutionID stays nil
	default:
		return response.Forbidden(c, "Only institutions can create courses")
	}

	if err := db.Create(&course).Error; err != nil {
		return response.InternalServerError(c, "Failed to create course")
	}

	return response.Created(c, course)
}

// monthlyCourseCapReached reports whether the institution has used up its
// plan's course allowance for the current calendar month.
func monthlyCourseCapReached(db *gorm.DB, institution *model.Institution, now time.Time) (bool, error) {
	plan := services.ResolveInstitutionPlan(institution.SubscriptionPlan)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var created int64
	err := db.Model(&model.Course{}).
		Where("institution_id = ? AND created_at >= ?", institution.ID, monthStart).
		Count(&created).Error
	if err != nil {
		return false, err
	}
	return !services.CapAllows(plan.MonthlyCourseCap, int(created)), nil
}

// ListCourses lists published courses with optional filters.
// GET /courses
func ListCourses(c *fiber.Ctx, store database.Storage) error {
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

	query := db.Model(&model.Course{}).
		Where("status = ?", model.CourseStatusPublished)

	if language := c.Query("language"); language != "" {
		query = query.Where("language = ?", language)
	}
	if marketingType := c.Query("marketing_type"); marketingType != "" {
		query = query.Where("marketing_type = ?", marketingType)
	}
	if institutionID := c.Query("institution_id"); institutionID != "" {
		if id, err := strconv.ParseUint(institutionID, 10, 32); err == nil {
			query = query.Where("institution_id = ?", uint(id))
		}
	}
	if c.Query("free") == "true" {
		query = query.Where("base_price <= 0")
	}

	var total int64
	query.Count(&total)

	var courses []model.Course
	offset := (page - 1) * limit
	err := query.Preload("Institution").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, response.CalculatePagination(page, limit, total))
}

// GetCourse retrieves a single course.
// GET /courses/:id
func GetCourse(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var course model.Course
	if err := db.Preload("Institution").First(&course, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// PublishCourse transitions a draft course to published. Only the owning
// institution or an admin may publish.
// POST /courses/:id/publish
func PublishCourse(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	var course model.Course
	if err := db.First(&course, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	if user.Role != model.RoleAdmin {
		if user.InstitutionID == nil || course.InstitutionID == nil ||
			*user.InstitutionID != *course.InstitutionID {
			return response.Forbidden(c, "Only the owning institution can publish this course")
		}
	}

	if course.Status == model.CourseStatusPublished {
		return response.SuccessWithMessage(c, "Course already published", course)
	}

	if err := db.Model(&course).Update("status", model.CourseStatusPublished).Error; err != nil {
		return response.InternalServerError(c, "Failed to publish course")
	}

	return response.SuccessWithMessage(c, "Course published", course)
}
