package enrollment

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/utils/middleware"
	"github.com/linguahub/api/utils/response"
	"github.com/linguahub/api/utils/validation"
	"gorm.io/gorm"
)

var validate = validation.NewValidator()

// EnrollmentHandler handles enrollment eligibility and creation
type EnrollmentHandler struct {
	db          *gorm.DB
	eligibility *services.EligibilityService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(db *gorm.DB, eligibility *services.EligibilityService) *EnrollmentHandler {
	return &EnrollmentHandler{db: db, eligibility: eligibility}
}

// CheckEligibility returns the eligibility verdict without side effects.
// GET /courses/:id/eligibility
func (h *EnrollmentHandler) CheckEligibility(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	result, err := h.eligibility.CheckEligibility(studentID, uint(courseID))
	if err != nil {
		return response.InternalServerError(c, "Failed to check eligibility")
	}

	return response.Success(c, result)
}

// EnrollRequest identifies the course to enroll in
type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// Enroll enrolls the current student into a course. Paid courses produce a
// PENDING_PAYMENT enrollment that must be settled separately; free and
// subscription-covered courses enroll immediately.
// POST /enrollments
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validate.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	enrollment, result, err := h.eligibility.Enroll(studentID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseUnavailable):
			return response.NotFound(c, "Course is not available for enrollment")
		case errors.Is(err, services.ErrAlreadyEnrolled):
			return response.Conflict(c, "Already enrolled in this course")
		case errors.Is(err, services.ErrCourseFull):
			return response.Conflict(c, "Course has reached its enrollment limit")
		case errors.Is(err, services.ErrPolicyBlocked):
			return c.Status(fiber.StatusForbidden).JSON(response.Response{
				Success: false,
				Data:    result,
				Error: &response.ErrorDetail{
					Code:    "SUBSCRIPTION_REQUIRED",
					Message: result.Message,
				},
			})
		default:
			return response.InternalServerError(c, "Failed to enroll")
		}
	}

	return response.Created(c, enrollment)
}

// MyEnrollments lists the current student's enrollments.
// GET /enrollments
func (h *EnrollmentHandler) MyEnrollments(c *fiber.Ctx) error {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var enrollments []model.Enrollment
	err := h.db.Preload("Course").Preload("Course.Institution").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch enrollments")
	}

	return response.Success(c, enrollments)
}
