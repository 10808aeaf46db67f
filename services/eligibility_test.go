package services

import (
	"fmt"
	"testing"

	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUpgradeURL = "https://linguahub.test/upgrade"

func TestCheckEligibilityCourseUnavailable(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)
	student := createStudent(t, db, "student@example.com")

	t.Run("missing course", func(t *testing.T) {
		result, err := svc.CheckEligibility(student.ID, 999)
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Equal(t, ReasonCourseUnavailable, result.Reason)
	})

	t.Run("draft course", func(t *testing.T) {
		course := createCourse(t, db, model.Course{
			Title:  "Draft Swedish",
			Status: model.CourseStatusDraft,
		})
		result, err := svc.CheckEligibility(student.ID, course.ID)
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Equal(t, ReasonCourseUnavailable, result.Reason)

		_, _, enrollErr := svc.Enroll(student.ID, course.ID)
		assert.ErrorIs(t, enrollErr, ErrCourseUnavailable)
	})
}

func TestEnrollFreeCourse(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	student := createStudent(t, db, "free@example.com")
	course := createCourse(t, db, model.Course{Title: "Free Spanish", BasePrice: 0})

	enrollment, verdict, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.True(t, verdict.Eligible)

	assert.Equal(t, model.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Equal(t, model.PaymentStatusPaid, enrollment.PaymentStatus)
	assert.Equal(t, 0.0, enrollment.AmountDue)
}

func TestEnrollPaidCourseLocksPrice(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	student := createStudent(t, db, "paid@example.com")
	course := createCourse(t, db, model.Course{Title: "Norwegian A1", BasePrice: 99})

	enrollment, _, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusPendingPayment, enrollment.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, enrollment.PaymentStatus)
	assert.Equal(t, 99.0, enrollment.AmountDue)

	// A later price change does not touch the locked amount.
	require.NoError(t, db.Model(course).Update("base_price", 149).Error)
	var stored model.Enrollment
	require.NoError(t, db.First(&stored, enrollment.ID).Error)
	assert.Equal(t, 99.0, stored.AmountDue)
}

func TestEnrollSubscriptionGate(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	student := createStudent(t, db, "gated@example.com")
	course := createCourse(t, db, model.Course{
		Title:            "Live Norwegian",
		BasePrice:        199,
		MarketingType:    model.MarketingTypeLiveOnline,
		SubscriptionTier: model.StudentTierPremium,
	})

	t.Run("blocked without a subscription", func(t *testing.T) {
		result, err := svc.CheckEligibility(student.ID, course.ID)
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Equal(t, ReasonSubscriptionRequired, result.Reason)
		assert.Equal(t, testUpgradeURL, result.RedirectURL)
		assert.Equal(t, model.StudentTierPremium, result.RequiredTier)

		_, verdict, enrollErr := svc.Enroll(student.ID, course.ID)
		assert.ErrorIs(t, enrollErr, ErrPolicyBlocked)
		require.NotNil(t, verdict)
		assert.Equal(t, ReasonSubscriptionRequired, verdict.Reason)
	})

	t.Run("blocked on insufficient tier", func(t *testing.T) {
		subscribeActive(t, db, student.ID, model.StudentTierBasic)

		result, err := svc.CheckEligibility(student.ID, course.ID)
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Equal(t, ReasonTierInsufficient, result.Reason)
		assert.Equal(t, model.StudentTierBasic, result.CurrentTier)
		assert.Equal(t, testUpgradeURL, result.RedirectURL)

		_, _, enrollErr := svc.Enroll(student.ID, course.ID)
		assert.ErrorIs(t, enrollErr, ErrPolicyBlocked)
	})

	t.Run("subscription covers the gated course", func(t *testing.T) {
		require.NoError(t, db.Model(&model.StudentSubscription{}).
			Where("student_id = ?", student.ID).
			Update("tier", model.StudentTierPremium).Error)

		enrollment, verdict, err := svc.Enroll(student.ID, course.ID)
		require.NoError(t, err)
		assert.True(t, verdict.Eligible)

		// No separate one-time charge on top of the subscription.
		assert.Equal(t, model.EnrollmentStatusEnrolled, enrollment.Status)
		assert.Equal(t, model.PaymentStatusPaid, enrollment.PaymentStatus)
	})
}

func TestEnrollExemptStudentSkipsGate(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	settings := NewSettingsService(db, nil)
	svc := NewEligibilityService(db, subs, settings, testUpgradeURL)

	student := createStudent(t, db, "exempt@example.com")
	course := createCourse(t, db, model.Course{
		Title:         "Live Finnish",
		MarketingType: model.MarketingTypeLiveOnline,
	})

	result, err := svc.CheckEligibility(student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, ReasonSubscriptionRequired, result.Reason)

	require.NoError(t, db.Create(&model.AppSetting{
		Key:   model.SettingSubscriptionExemptions,
		Value: fmt.Sprintf("%d", student.ID),
	}).Error)

	result, err = svc.CheckEligibility(student.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, result.Eligible)
}

func TestEnrollDuplicate(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	student := createStudent(t, db, "dup@example.com")
	course := createCourse(t, db, model.Course{Title: "Swedish A2", BasePrice: 50})

	_, _, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	result, err := svc.CheckEligibility(student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonAlreadyEnrolled, result.Reason)

	_, _, err = svc.Enroll(student.ID, course.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestDuplicateMessageReflectsStatus(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	student := createStudent(t, db, "active@example.com")
	course := createCourse(t, db, model.Course{Title: "Swedish B1", BasePrice: 50})

	enrollment, _, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(enrollment).Update("status", model.EnrollmentStatusActive).Error)

	result, err := svc.CheckEligibility(student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonAlreadyEnrolled, result.Reason)
	assert.Equal(t, "You already have an active enrollment in this course", result.Message)
}

func TestEnrollAfterTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	student := createStudent(t, db, "retry@example.com")
	course := createCourse(t, db, model.Course{Title: "Danish A1", BasePrice: 50})

	first, _, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	t.Run("completed blocks re-enrollment", func(t *testing.T) {
		require.NoError(t, db.Model(first).Update("status", model.EnrollmentStatusCompleted).Error)

		result, err := svc.CheckEligibility(student.ID, course.ID)
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		assert.Equal(t, ReasonAlreadyEnrolled, result.Reason)
	})

	t.Run("failed allows re-enrollment", func(t *testing.T) {
		require.NoError(t, db.Model(first).Update("status", model.EnrollmentStatusFailed).Error)

		second, verdict, err := svc.Enroll(student.ID, course.ID)
		require.NoError(t, err)
		assert.True(t, verdict.Eligible)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestEnrollCapacity(t *testing.T) {
	db := newTestDB(t)
	subs := NewSubscriptionService(db)
	svc := NewEligibilityService(db, subs, NewSettingsService(db, nil), testUpgradeURL)

	course := createCourse(t, db, model.Course{
		Title:       "Small Group Italian",
		BasePrice:   75,
		MaxStudents: 2,
	})

	for i := 0; i < 2; i++ {
		student := createStudent(t, db, fmt.Sprintf("seat%d@example.com", i))
		_, _, err := svc.Enroll(student.ID, course.ID)
		require.NoError(t, err)
	}

	// Both seats are PENDING_PAYMENT; in-flight checkouts still occupy
	// capacity so the course cannot be oversold.
	late := createStudent(t, db, "late@example.com")
	result, err := svc.CheckEligibility(late.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, ReasonCourseFull, result.Reason)

	_, _, err = svc.Enroll(late.ID, course.ID)
	assert.ErrorIs(t, err, ErrCourseFull)
}
