package services

import (
	"testing"

	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGet(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, nil)

	// Unset keys read as empty, not as an error.
	value, err := svc.Get("nonexistent.key")
	require.NoError(t, err)
	assert.Empty(t, value)

	require.NoError(t, db.Create(&model.AppSetting{
		Key:   model.SettingDefaultTrialDays,
		Value: "14",
	}).Error)

	value, err = svc.Get(model.SettingDefaultTrialDays)
	require.NoError(t, err)
	assert.Equal(t, "14", value)

	// Invalidate with no cache configured is a no-op.
	svc.Invalidate(model.SettingDefaultTrialDays)
}

func TestPaymentMethodApproved(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, nil)

	t.Run("defaults when unset", func(t *testing.T) {
		ok, err := svc.PaymentMethodApproved("card")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.PaymentMethodApproved("bank_transfer")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.PaymentMethodApproved("crypto")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin list overrides defaults", func(t *testing.T) {
		require.NoError(t, db.Create(&model.AppSetting{
			Key:   model.SettingApprovedPaymentMethods,
			Value: "cash, Crypto",
		}).Error)

		ok, err := svc.PaymentMethodApproved("crypto")
		require.NoError(t, err)
		assert.True(t, ok)

		// Methods are matched against the configured list only.
		ok, err = svc.PaymentMethodApproved("card")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStudentExempt(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, nil)

	exempt, err := svc.StudentExempt(7)
	require.NoError(t, err)
	assert.False(t, exempt)

	require.NoError(t, db.Create(&model.AppSetting{
		Key:   model.SettingSubscriptionExemptions,
		Value: "3, 7, 21",
	}).Error)

	exempt, err = svc.StudentExempt(7)
	require.NoError(t, err)
	assert.True(t, exempt)

	exempt, err = svc.StudentExempt(8)
	require.NoError(t, err)
	assert.False(t, exempt)
}
