package services

import (
	"testing"
	"time"

	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTrialStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start := timePtr(now.AddDate(0, 0, -3))
	end := timePtr(now.AddDate(0, 0, 4))
	pastEnd := timePtr(now.AddDate(0, 0, -1))

	t.Run("trialing inside the window", func(t *testing.T) {
		assert.Equal(t, model.SubscriptionStatusTrialing,
			ResolveTrialStatus(now, start, end, false))
	})

	t.Run("expired after the window without payment", func(t *testing.T) {
		assert.Equal(t, model.SubscriptionStatusExpired,
			ResolveTrialStatus(now, start, pastEnd, false))
	})

	t.Run("trial end is exclusive", func(t *testing.T) {
		assert.Equal(t, model.SubscriptionStatusExpired,
			ResolveTrialStatus(*end, start, end, false))
	})

	t.Run("post-trial payment wins", func(t *testing.T) {
		assert.Equal(t, model.SubscriptionStatusActive,
			ResolveTrialStatus(now, start, pastEnd, true))
	})

	t.Run("no trial window means paid up front", func(t *testing.T) {
		assert.Equal(t, model.SubscriptionStatusActive,
			ResolveTrialStatus(now, nil, nil, false))
	})
}

func TestSubscriptionServiceSubscribe(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	student := createStudent(t, db, "trial@example.com")

	t.Run("unknown tier rejected", func(t *testing.T) {
		_, err := svc.Subscribe(student.ID, "PLATINUM", 7)
		assert.Error(t, err)
	})

	t.Run("fresh subscription starts a trial", func(t *testing.T) {
		sub, err := svc.Subscribe(student.ID, "premium", 7)
		require.NoError(t, err)
		assert.Equal(t, model.StudentTierPremium, sub.Tier)
		assert.Equal(t, model.SubscriptionStatusTrialing, sub.Status)
		require.NotNil(t, sub.TrialEndsAt)
		assert.Equal(t, now.AddDate(0, 0, 7), *sub.TrialEndsAt)

		status, err := svc.Resolve(student.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SubscriptionStatusTrialing, status.Status)
		assert.False(t, status.PaymentRequired)
	})

	t.Run("resubscribe keeps the trial window", func(t *testing.T) {
		sub, err := svc.Subscribe(student.ID, model.StudentTierPro, 30)
		require.NoError(t, err)
		assert.Equal(t, model.StudentTierPro, sub.Tier)
		require.NotNil(t, sub.TrialEndsAt)
		assert.Equal(t, now.AddDate(0, 0, 7), *sub.TrialEndsAt)

		var count int64
		require.NoError(t, db.Model(&model.StudentSubscription{}).
			Where("student_id = ?", student.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestSubscriptionServiceLazyExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	student := createStudent(t, db, "lazy@example.com")
	_, err := svc.Subscribe(student.ID, model.StudentTierBasic, 7)
	require.NoError(t, err)

	// Advance past the trial end. The stored row still says TRIALING but
	// every read path resolves it as EXPIRED.
	svc.now = func() time.Time { return now.AddDate(0, 0, 8) }

	var stored model.StudentSubscription
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&stored).Error)
	assert.Equal(t, model.SubscriptionStatusTrialing, stored.Status)

	status, err := svc.Resolve(student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusExpired, status.Status)
	assert.True(t, status.PaymentRequired)

	active, _, err := svc.HasActive(student.ID)
	require.NoError(t, err)
	assert.False(t, active)

	// A post-trial payment promotes the subscription to ACTIVE.
	require.NoError(t, svc.MarkPostTrialPaid(student.ID))

	status, err = svc.Resolve(student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusActive, status.Status)
	assert.False(t, status.PaymentRequired)

	active, tier, err := svc.HasActive(student.ID)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, model.StudentTierBasic, tier)
}

func TestSubscriptionServiceCancelledWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	student := createStudent(t, db, "cancelled@example.com")
	sub := model.StudentSubscription{
		StudentID:           student.ID,
		Tier:                model.StudentTierPremium,
		Status:              model.SubscriptionStatusCancelled,
		HasPostTrialPayment: true,
	}
	require.NoError(t, db.Create(&sub).Error)

	// CANCELLED is an explicit state; timestamps never resurrect it.
	status, err := svc.Resolve(student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCancelled, status.Status)

	active, _, err := svc.HasActive(student.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSubscriptionServiceNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	_, err := svc.Resolve(42)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	active, tier, err := svc.HasActive(42)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Empty(t, tier)

	assert.ErrorIs(t, svc.MarkPostTrialPaid(42), ErrSubscriptionNotFound)
}
