package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/linguahub/api/model"
	"gorm.io/gorm"
)

// ErrSubscriptionNotFound is returned when a student has no subscription row.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// ResolveTrialStatus computes the subscription status from timestamps at
// read time. There is no background sweep flipping stored statuses; any
// read path that needs subscription status calls this.
//
//   - ACTIVE once a post-trial payment has landed
//   - TRIALING while now < trial end
//   - EXPIRED once now >= trial end with no post-trial payment
//
// A subscription without a trial window is ACTIVE (it was paid up front).
func ResolveTrialStatus(now time.Time, start, end *time.Time, hasPostTrialPayment bool) string {
	if hasPostTrialPayment {
		return model.SubscriptionStatusActive
	}
	if start == nil || end == nil {
		return model.SubscriptionStatusActive
	}
	if now.Before(*end) {
		return model.SubscriptionStatusTrialing
	}
	return model.SubscriptionStatusExpired
}

// SubscriptionStatus is the caller-facing view of a student's subscription,
// with the trial transition already resolved.
type SubscriptionStatus struct {
	Tier            string     `json:"tier"`
	Status          string     `json:"status"`
	TrialEndsAt     *time.Time `json:"trial_ends_at,omitempty"`
	PaymentRequired bool       `json:"payment_required"`
}

// SubscriptionService resolves subscriptions with lazy trial expiry.
type SubscriptionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db, now: time.Now}
}

// Resolve fetches the student's subscription and computes its effective
// status. A stored CANCELLED status wins over the timestamp computation.
// Returns ErrSubscriptionNotFound when the student never subscribed.
func (s *SubscriptionService) Resolve(studentID uint) (*SubscriptionStatus, error) {
	var sub model.StudentSubscription
	if err := s.db.Where("student_id = ?", studentID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("fetch subscription: %w", err)
	}
	return s.statusOf(&sub), nil
}

func (s *SubscriptionService) statusOf(sub *model.StudentSubscription) *SubscriptionStatus {
	status := sub.Status
	if status != model.SubscriptionStatusCancelled {
		status = ResolveTrialStatus(s.now(), sub.TrialStartsAt, sub.TrialEndsAt, sub.HasPostTrialPayment)
	}
	return &SubscriptionStatus{
		Tier:            sub.Tier,
		Status:          status,
		TrialEndsAt:     sub.TrialEndsAt,
		PaymentRequired: status == model.SubscriptionStatusExpired,
	}
}

// HasActive reports whether the student currently holds a usable
// subscription (trialing counts as usable).
func (s *SubscriptionService) HasActive(studentID uint) (bool, string, error) {
	status, err := s.Resolve(studentID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return false, "", nil
		}
		return false, "", err
	}
	switch status.Status {
	case model.SubscriptionStatusActive, model.SubscriptionStatusTrialing:
		return true, status.Tier, nil
	}
	return false, status.Tier, nil
}

// Subscribe creates the student's subscription or updates it in place;
// there is only ever one row per student. A fresh subscription starts a
// trial of trialDays.
func (s *SubscriptionService) Subscribe(studentID uint, tier string, trialDays int) (*model.StudentSubscription, error) {
	info := ResolveStudentTier(tier)
	if info.Rank == 0 {
		return nil, fmt.Errorf("unknown subscription tier %q", tier)
	}

	var sub model.StudentSubscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("student_id = ?", studentID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := s.now()
			end := now.AddDate(0, 0, trialDays)
			sub = model.StudentSubscription{
				StudentID:     studentID,
				Tier:          info.Name,
				Status:        model.SubscriptionStatusTrialing,
				TrialStartsAt: &now,
				TrialEndsAt:   &end,
			}
			return tx.Create(&sub).Error
		}
		if err != nil {
			return fmt.Errorf("fetch subscription: %w", err)
		}

		// Re-subscribing updates in place. The original trial window is
		// kept; a lapsed trial still requires a post-trial payment.
		sub.Tier = info.Name
		if sub.Status == model.SubscriptionStatusCancelled {
			sub.Status = model.SubscriptionStatusTrialing
		}
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// MarkPostTrialPaid records a successful post-trial payment, promoting the
// lazily-resolved status to ACTIVE.
func (s *SubscriptionService) MarkPostTrialPaid(studentID uint) error {
	result := s.db.Model(&model.StudentSubscription{}).
		Where("student_id = ?", studentID).
		Updates(map[string]interface{}{
			"has_post_trial_payment": true,
			"status":                 model.SubscriptionStatusActive,
		})
	if result.Error != nil {
		return fmt.Errorf("mark post-trial payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
