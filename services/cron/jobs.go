package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
)

// stalePendingAge is how long an enrollment may sit in PENDING_PAYMENT
// before it is reported. Enrollments are never expired automatically;
// whether to reclaim the seat is an operator decision.
const stalePendingAge = 24 * time.Hour

// ReportStalePendingPayments reports enrollments that have been waiting on
// payment for longer than stalePendingAge. The job only logs: stale rows
// keep occupying course capacity until an operator intervenes.
func (m *CronManager) ReportStalePendingPayments() {
	jobName := "report_stale_pending_payments"
	cutoff := time.Now().Add(-stalePendingAge)

	var enrollments []model.Enrollment
	err := m.db.Preload("Course").
		Where("status = ? AND created_at < ?", model.EnrollmentStatusPendingPayment, cutoff).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query enrollments: %w", err))
		return
	}

	if len(enrollments) == 0 {
		m.logJobComplete(jobName, "No stale pending enrollments")
		return
	}

	for _, enrollment := range enrollments {
		log.Printf("[CRON] Stale pending payment: enrollment %d (student %d, course %q) waiting since %s",
			enrollment.ID, enrollment.StudentID, enrollment.Course.Title,
			enrollment.CreatedAt.Format(time.RFC3339))
	}

	m.logJobComplete(jobName, fmt.Sprintf("Reported %d stale pending enrollments", len(enrollments)))
}

// ReportExpiredTrials reports subscriptions whose trial window has lapsed
// without a post-trial payment. Status transitions stay lazy (applied on
// read); this job only surfaces the lapses for follow-up.
func (m *CronManager) ReportExpiredTrials() {
	jobName := "report_expired_trials"
	now := time.Now()

	var subscriptions []model.StudentSubscription
	err := m.db.
		Where("status IN ?", []string{model.SubscriptionStatusTrialing, model.SubscriptionStatusActive}).
		Where("trial_ends_at IS NOT NULL AND trial_ends_at < ?", now).
		Where("has_post_trial_payment = ?", false).
		Find(&subscriptions).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query subscriptions: %w", err))
		return
	}

	if len(subscriptions) == 0 {
		m.logJobComplete(jobName, "No lapsed trials")
		return
	}

	for _, sub := range subscriptions {
		resolved := services.ResolveTrialStatus(now, sub.TrialStartsAt, sub.TrialEndsAt, sub.HasPostTrialPayment)
		if resolved != model.SubscriptionStatusExpired {
			continue
		}
		log.Printf("[CRON] Lapsed trial: student %d tier %s, trial ended %s",
			sub.StudentID, sub.Tier, sub.TrialEndsAt.Format(time.RFC3339))
	}

	m.logJobComplete(jobName, fmt.Sprintf("Reported %d lapsed trials", len(subscriptions)))
}

// CleanupOldData removes cron job logs older than 30 days.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Unscoped().Where("created_at < ?", cutoff).Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old job logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deleted %d old job logs", result.RowsAffected))
}
