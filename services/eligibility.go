package services

import (
	"errors"
	"fmt"

	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Eligibility rejection reasons, surfaced to the UI layer.
const (
	ReasonCourseUnavailable    = "course_unavailable"
	ReasonSubscriptionRequired = "subscription_required"
	ReasonTierInsufficient     = "subscription_tier_insufficient"
	ReasonAlreadyEnrolled      = "already_enrolled"
	ReasonCourseFull           = "course_full"
)

// Enrollment errors returned by Enroll. CheckEligibility never returns
// these; it reports reasons in the result instead.
var (
	ErrCourseUnavailable = errors.New("course is not available for enrollment")
	ErrAlreadyEnrolled   = errors.New("student already has an active enrollment")
	ErrCourseFull        = errors.New("course has reached its student capacity")
	ErrPolicyBlocked     = errors.New("enrollment blocked by subscription policy")
)

// CourseSummary echoes the course back to the caller on an eligible result.
type CourseSummary struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	BasePrice     float64 `json:"base_price"`
	PricingPeriod string  `json:"pricing_period"`
	MarketingType string  `json:"marketing_type"`
}

// EligibilityResult is the read-only decision payload. The decision is
// binary; Message is informational only.
type EligibilityResult struct {
	Eligible     bool           `json:"eligible"`
	Reason       string         `json:"reason,omitempty"`
	Message      string         `json:"message,omitempty"`
	RedirectURL  string         `json:"redirect_url,omitempty"`
	RequiredTier string         `json:"required_tier,omitempty"`
	CurrentTier  string         `json:"current_tier,omitempty"`
	Course       *CourseSummary `json:"course,omitempty"`
}

// EligibilityService decides whether a student may enroll in a course and
// performs the enrollment itself. Checks are read-only; all mutation
// happens in Enroll, which re-validates inside its transaction.
type EligibilityService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
	settings      *SettingsService
	upgradeURL    string
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(db *gorm.DB, subscriptions *SubscriptionService, settings *SettingsService, upgradeURL string) *EligibilityService {
	return &EligibilityService{
		db:            db,
		subscriptions: subscriptions,
		settings:      settings,
		upgradeURL:    upgradeURL,
	}
}

// enrolledMessages give a distinct message per existing-enrollment status.
var enrolledMessages = map[string]string{
	model.EnrollmentStatusPendingPayment: "You already have an enrollment awaiting payment for this course",
	model.EnrollmentStatusEnrolled:       "You are already enrolled in this course",
	model.EnrollmentStatusActive:         "You already have an active enrollment in this course",
	model.EnrollmentStatusInProgress:     "You are already working through this course",
	model.EnrollmentStatusCompleted:      "You have already completed this course",
}

// CheckEligibility runs the enrollment decision procedure without mutating
// any state. Order: publication, subscription gate, duplicate enrollment,
// capacity.
func (s *EligibilityService) CheckEligibility(studentID, courseID uint) (*EligibilityResult, error) {
	return s.check(s.db, studentID, courseID, false)
}

func (s *EligibilityService) check(tx *gorm.DB, studentID, courseID uint, forUpdate bool) (*EligibilityResult, error) {
	query := tx.Model(&model.Course{})
	if forUpdate {
		// Serialize concurrent enrollments on the same course so the
		// capacity count below cannot be oversold.
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var course model.Course
	if err := query.Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &EligibilityResult{
				Reason:  ReasonCourseUnavailable,
				Message: "Course not found",
			}, nil
		}
		return nil, fmt.Errorf("fetch course: %w", err)
	}
	if course.Status != model.CourseStatusPublished {
		return &EligibilityResult{
			Reason:  ReasonCourseUnavailable,
			Message: "Course is not open for enrollment",
		}, nil
	}

	// LIVE_ONLINE and BLENDED courses are subscription-gated regardless of
	// the explicit flag. Students on the admin exemption list skip the
	// gate entirely; the list is re-read per operation.
	if course.SubscriptionGated() && !s.studentExempt(studentID) {
		active, currentTier, err := s.subscriptions.HasActive(studentID)
		if err != nil {
			return nil, err
		}
		if !active {
			return &EligibilityResult{
				Reason:       ReasonSubscriptionRequired,
				Message:      "This course requires an active subscription",
				RedirectURL:  s.upgradeURL,
				RequiredTier: course.SubscriptionTier,
				CurrentTier:  currentTier,
			}, nil
		}
		if !TierSatisfies(currentTier, course.SubscriptionTier) {
			return &EligibilityResult{
				Reason:       ReasonTierInsufficient,
				Message:      fmt.Sprintf("This course requires the %s tier or higher", course.SubscriptionTier),
				RedirectURL:  s.upgradeURL,
				RequiredTier: course.SubscriptionTier,
				CurrentTier:  currentTier,
			}, nil
		}
	}

	var existing model.Enrollment
	err := tx.Where("student_id = ? AND course_id = ? AND status IN ?",
		studentID, courseID, nonTerminalStatuses()).
		First(&existing).Error
	if err == nil {
		msg := enrolledMessages[existing.Status]
		if msg == "" {
			msg = "You already have an enrollment in this course"
		}
		return &EligibilityResult{
			Reason:  ReasonAlreadyEnrolled,
			Message: msg,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing enrollment: %w", err)
	}

	// Capacity counts pending-payment seats so a checkout in flight cannot
	// be oversold.
	if course.MaxStudents > 0 {
		var occupied int64
		err := tx.Model(&model.Enrollment{}).
			Where("course_id = ? AND status IN ?", courseID, model.ActiveEnrollmentStatuses).
			Count(&occupied).Error
		if err != nil {
			return nil, fmt.Errorf("count enrollments: %w", err)
		}
		if occupied >= int64(course.MaxStudents) {
			return &EligibilityResult{
				Reason:  ReasonCourseFull,
				Message: "Course has reached its maximum number of students",
			}, nil
		}
	}

	return &EligibilityResult{
		Eligible: true,
		Course: &CourseSummary{
			ID:            course.ID,
			Title:         course.Title,
			BasePrice:     course.BasePrice,
			PricingPeriod: course.PricingPeriod,
			MarketingType: course.MarketingType,
		},
	}, nil
}

func (s *EligibilityService) studentExempt(studentID uint) bool {
	if s.settings == nil {
		return false
	}
	exempt, err := s.settings.StudentExempt(studentID)
	if err != nil {
		// A settings read failure must not fail open.
		return false
	}
	return exempt
}

// nonTerminalStatuses are the enrollment statuses that block a new
// enrollment for the same (student, course) pair. COMPLETED blocks too: a
// completed course is not re-enrollable.
func nonTerminalStatuses() []string {
	return []string{
		model.EnrollmentStatusPendingPayment,
		model.EnrollmentStatusEnrolled,
		model.EnrollmentStatusActive,
		model.EnrollmentStatusInProgress,
		model.EnrollmentStatusCompleted,
	}
}

// Enroll re-validates eligibility and creates the enrollment row inside one
// transaction; the course row is locked so two concurrent requests cannot
// both pass the capacity gate. Free and subscription-covered courses enroll
// immediately; paid courses start in PENDING_PAYMENT with the price locked.
func (s *EligibilityService) Enroll(studentID, courseID uint) (*model.Enrollment, *EligibilityResult, error) {
	var enrollment *model.Enrollment
	var verdict *EligibilityResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result, err := s.check(tx, studentID, courseID, true)
		if err != nil {
			return err
		}
		verdict = result
		if !result.Eligible {
			return reasonError(result.Reason)
		}

		row := model.Enrollment{
			StudentID: studentID,
			CourseID:  courseID,
			Currency:  "USD",
		}
		needsPayment := result.Course.BasePrice > 0
		var course model.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return fmt.Errorf("fetch course: %w", err)
		}
		if course.SubscriptionGated() && !course.IsFree() {
			// Subscription already pays for gated courses; no separate
			// one-time charge.
			needsPayment = false
		}
		if needsPayment {
			row.Status = model.EnrollmentStatusPendingPayment
			row.PaymentStatus = model.PaymentStatusUnpaid
			row.AmountDue = course.BasePrice
		} else {
			row.Status = model.EnrollmentStatusEnrolled
			row.PaymentStatus = model.PaymentStatusPaid
		}

		if err := tx.Create(&row).Error; err != nil {
			if database.IsUniqueViolation(err) {
				verdict = &EligibilityResult{
					Reason:  ReasonAlreadyEnrolled,
					Message: "You already have an enrollment in this course",
				}
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		enrollment = &row
		return nil
	})
	if err != nil {
		return nil, verdict, err
	}
	return enrollment, verdict, nil
}

func reasonError(reason string) error {
	switch reason {
	case ReasonCourseUnavailable:
		return ErrCourseUnavailable
	case ReasonAlreadyEnrolled:
		return ErrAlreadyEnrolled
	case ReasonCourseFull:
		return ErrCourseFull
	default:
		return ErrPolicyBlocked
	}
}
