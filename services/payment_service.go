package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services/payments"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment reconciliation errors
var (
	ErrEnrollmentNotFound      = errors.New("enrollment not found")
	ErrPaymentMethodNotAllowed = errors.New("payment method is not approved")
)

// PaymentService reconciles the payment lifecycle: intent creation,
// settlement, failure and refunds. Every monetary mutation runs inside a
// single transaction; a partial application (enrollment updated but no
// payout created) is never observable.
type PaymentService struct {
	db       *gorm.DB
	provider payments.Provider
	settings *SettingsService
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, provider payments.Provider, settings *SettingsService) *PaymentService {
	return &PaymentService{
		db:       db,
		provider: provider,
		settings: settings,
	}
}

// CreatePaymentIntent looks up the enrollment's institution commission rate
// and creates a provider intent carrying it as opaque string metadata, so
// the webhook round-trips the frozen rate.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, enrollmentID uint) (*payments.Intent, error) {
	var enrollment model.Enrollment
	err := s.db.Preload("Course.Institution").First(&enrollment, enrollmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("fetch enrollment: %w", err)
	}

	amount := enrollment.AmountDue
	if amount <= 0 {
		amount = enrollment.Course.BasePrice
	}

	var institutionID uint
	rate := 100.0 // platform course: the platform keeps everything
	if inst := enrollment.Course.Institution; inst != nil {
		institutionID = inst.ID
		rate = inst.CommissionRate
	}

	metadata := payments.IntentMetadata{
		EnrollmentID:   strconv.FormatUint(uint64(enrollment.ID), 10),
		InstitutionID:  strconv.FormatUint(uint64(institutionID), 10),
		CommissionRate: strconv.FormatFloat(rate, 'f', -1, 64),
	}

	intent, err := s.provider.CreateIntent(ctx, amount, enrollment.Currency, metadata)
	if err != nil {
		return nil, fmt.Errorf("provider create intent: %w", err)
	}
	return intent, nil
}

// markPaidOptions carries optional settlement context.
type markPaidOptions struct {
	Amount      float64 // 0 = derive from enrollment/course
	ProviderRef string
	ProcessedBy string
	Notes       string
}

// MarkPaid settles an enrollment payment in one transaction: enrollment to
// ENROLLED/PAID, a Payment row, and a PENDING InstitutionPayout. The
// booking's recorded amount wins over the course's current price. Calling
// it again for an already-paid enrollment returns the existing payment.
func (s *PaymentService) MarkPaid(enrollmentID uint, method string, processedBy, notes string) (*model.Payment, error) {
	// Manual settlement honors the admin approval policy; the list is
	// re-read per operation through the settings cache.
	if method != "" && s.settings != nil {
		allowed, err := s.settings.PaymentMethodApproved(method)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrPaymentMethodNotAllowed, method)
		}
	}
	return s.settle(s.db, enrollmentID, method, markPaidOptions{
		ProcessedBy: processedBy,
		Notes:       notes,
	})
}

func (s *PaymentService) settle(db *gorm.DB, enrollmentID uint, method string, opts markPaidOptions) (*model.Payment, error) {
	var payment *model.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		var enrollment model.Enrollment
		err := tx.Preload("Course.Institution").First(&enrollment, enrollmentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("fetch enrollment: %w", err)
		}

		// Re-applying a settlement to an already-paid enrollment is a
		// no-op; providers deliver webhooks at least once.
		if enrollment.PaymentStatus == model.PaymentStatusPaid {
			var existing model.Payment
			err := tx.Where("enrollment_id = ? AND status = ?", enrollment.ID, model.PaymentRecordStatusCompleted).
				First(&existing).Error
			if err == nil {
				payment = &existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("fetch existing payment: %w", err)
			}
			payment = nil
			return nil
		}

		// The booking's recorded amount is authoritative; the price may
		// have been locked at checkout before a course price change.
		amount := opts.Amount
		if amount <= 0 {
			amount = enrollment.AmountDue
		}
		if amount <= 0 {
			amount = enrollment.Course.BasePrice
		}

		rate := 100.0
		var institution *model.Institution
		if inst := enrollment.Course.Institution; inst != nil {
			institution = inst
			rate = inst.CommissionRate
		}

		split, err := SplitRevenue(amount, rate)
		if err != nil {
			return fmt.Errorf("split revenue: %w", err)
		}

		meta, err := json.Marshal(model.PaymentMetadata{
			ProcessedBy:    opts.ProcessedBy,
			Notes:          opts.Notes,
			CommissionRate: rate,
		})
		if err != nil {
			return fmt.Errorf("marshal payment metadata: %w", err)
		}

		// ProviderRef is unique; manual settlements have no provider
		// reference so they get a generated one.
		providerRef := opts.ProviderRef
		if providerRef == "" {
			providerRef = "manual_" + uuid.New().String()
		}

		row := model.Payment{
			EnrollmentID:      enrollment.ID,
			Amount:            split.TotalRevenue,
			Currency:          enrollment.Currency,
			Status:            model.PaymentRecordStatusCompleted,
			CommissionAmount:  split.CommissionAmount,
			InstitutionAmount: split.RemainderAmount,
			PaymentMethod:     method,
			ProviderRef:       providerRef,
			Metadata:          datatypes.JSON(meta),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":         model.EnrollmentStatusEnrolled,
			"payment_status": model.PaymentStatusPaid,
			"payment_method": method,
			"payment_date":   &now,
		}
		if err := tx.Model(&enrollment).Updates(updates).Error; err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}

		if institution != nil {
			payoutMeta, err := json.Marshal(model.PayoutMetadata{
				PaymentID:      row.ID,
				CommissionRate: rate,
			})
			if err != nil {
				return fmt.Errorf("marshal payout metadata: %w", err)
			}
			payout := model.InstitutionPayout{
				InstitutionID: institution.ID,
				EnrollmentID:  enrollment.ID,
				Amount:        split.RemainderAmount,
				Status:        model.PayoutStatusPending,
				Metadata:      datatypes.JSON(payoutMeta),
			}
			if err := tx.Create(&payout).Error; err != nil {
				return fmt.Errorf("create payout: %w", err)
			}
		}

		payment = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// HandleWebhook dispatches an inbound provider event. Events are applied
// exactly once: a replayed event id is acknowledged and skipped. Handlers
// never return an error for a permanently-unprocessable event, so the
// provider does not retry forever.
func (s *PaymentService) HandleWebhook(event payments.Event) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		seen := model.PaymentWebhookEvent{
			EventID:     event.ID,
			EventType:   event.Type,
			ProcessedAt: time.Now(),
		}
		if err := tx.Create(&seen).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Printf("[WEBHOOK] duplicate event %s (%s), skipping", event.ID, event.Type)
				return nil
			}
			return fmt.Errorf("record webhook event: %w", err)
		}

		switch event.Type {
		case payments.EventPaymentSucceeded:
			return s.handleSucceeded(tx, event)
		case payments.EventPaymentFailed:
			return s.handleFailed(tx, event)
		case payments.EventChargeRefunded:
			return s.handleRefund(tx, event)
		default:
			log.Printf("[WEBHOOK] ignoring event %s of unknown type %s", event.ID, event.Type)
			return nil
		}
	})
}

func parseEnrollmentID(metadata payments.IntentMetadata) (uint, error) {
	id, err := strconv.ParseUint(metadata.EnrollmentID, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid enrollment id %q in metadata", metadata.EnrollmentID)
	}
	return uint(id), nil
}

// handleSucceeded settles the enrollment using the provider's reported
// amount converted from minor units, not a re-queried price.
func (s *PaymentService) handleSucceeded(tx *gorm.DB, event payments.Event) error {
	enrollmentID, err := parseEnrollmentID(event.Metadata)
	if err != nil {
		log.Printf("[WEBHOOK] %s: %v, acknowledging", event.ID, err)
		return nil
	}

	_, err = s.settle(tx, enrollmentID, "card", markPaidOptions{
		Amount:      RoundCents(float64(event.AmountMinor) / 100),
		ProviderRef: event.IntentRef,
		ProcessedBy: "webhook",
	})
	if errors.Is(err, ErrEnrollmentNotFound) {
		log.Printf("[WEBHOOK] %s: enrollment %d no longer exists, acknowledging", event.ID, enrollmentID)
		return nil
	}
	return err
}

// handleFailed records the failure on the enrollment's payment status only.
// The enrollment status is untouched so the student can retry checkout.
func (s *PaymentService) handleFailed(tx *gorm.DB, event payments.Event) error {
	enrollmentID, err := parseEnrollmentID(event.Metadata)
	if err != nil {
		log.Printf("[WEBHOOK] %s: %v, acknowledging", event.ID, err)
		return nil
	}

	result := tx.Model(&model.Enrollment{}).
		Where("id = ? AND payment_status <> ?", enrollmentID, model.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusFailed,
			"failure_reason": event.Reason,
		})
	if result.Error != nil {
		return fmt.Errorf("mark payment failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		log.Printf("[WEBHOOK] %s: no unpaid enrollment %d to fail, acknowledging", event.ID, enrollmentID)
	}
	return nil
}

// handleRefund recomputes the commission share of the refunded amount at
// the payment's frozen proportional rate and appends a negative payout
// adjustment. An unmatched refund is logged and acknowledged, never thrown.
func (s *PaymentService) handleRefund(tx *gorm.DB, event payments.Event) error {
	ref := event.ChargeRef
	if ref == "" {
		ref = event.IntentRef
	}

	var payment model.Payment
	err := tx.Where("provider_ref = ?", ref).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[WEBHOOK] %s: no payment matching charge %s, acknowledging", event.ID, ref)
			return nil
		}
		return fmt.Errorf("fetch payment: %w", err)
	}

	refundAmount := RoundCents(float64(event.AmountMinor) / 100)
	if refundAmount <= 0 || refundAmount > payment.Amount {
		refundAmount = payment.Amount
	}

	split, err := RefundSplit(payment.Amount, payment.CommissionAmount, refundAmount)
	if err != nil {
		return fmt.Errorf("refund split: %w", err)
	}

	err = tx.Model(&payment).Updates(map[string]interface{}{
		"status":        model.PaymentRecordStatusRefunded,
		"refund_amount": refundAmount,
	}).Error
	if err != nil {
		return fmt.Errorf("mark payment refunded: %w", err)
	}

	err = tx.Model(&model.Enrollment{}).
		Where("id = ?", payment.EnrollmentID).
		Update("payment_status", model.PaymentStatusRefunded).Error
	if err != nil {
		return fmt.Errorf("mark enrollment refunded: %w", err)
	}

	// The original payout row is never mutated; refunds append a negative
	// adjustment to the ledger.
	var original model.InstitutionPayout
	err = tx.Where("enrollment_id = ?", payment.EnrollmentID).
		Order("id ASC").First(&original).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Platform course: no payout ledger to adjust.
			return nil
		}
		return fmt.Errorf("fetch original payout: %w", err)
	}

	adjMeta, err := json.Marshal(model.PayoutMetadata{
		PaymentID:      payment.ID,
		CommissionRate: payment.CommissionAmount / payment.Amount * 100,
		Reason:         "refund_adjustment",
	})
	if err != nil {
		return fmt.Errorf("marshal payout metadata: %w", err)
	}
	adjustment := model.InstitutionPayout{
		InstitutionID: original.InstitutionID,
		EnrollmentID:  payment.EnrollmentID,
		Amount:        -split.RemainderAmount,
		Status:        model.PayoutStatusPending,
		Metadata:      datatypes.JSON(adjMeta),
	}
	if err := tx.Create(&adjustment).Error; err != nil {
		return fmt.Errorf("create payout adjustment: %w", err)
	}
	return nil
}
