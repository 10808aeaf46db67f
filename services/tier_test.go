package services

import (
	"testing"

	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
)

func TestResolveStudentTier(t *testing.T) {
	basic := ResolveStudentTier(model.StudentTierBasic)
	premium := ResolveStudentTier(model.StudentTierPremium)
	pro := ResolveStudentTier(model.StudentTierPro)

	assert.Equal(t, 1, basic.Rank)
	assert.Equal(t, 2, premium.Rank)
	assert.Equal(t, 3, pro.Rank)

	// Premium strictly dominates basic on every cap.
	assert.Greater(t, premium.GroupSessionCap, basic.GroupSessionCap)
	assert.Greater(t, premium.OneToOneCap, basic.OneToOneCap)
	assert.Greater(t, premium.MinutesCap, basic.MinutesCap)

	assert.Equal(t, Unlimited, pro.GroupSessionCap)
	assert.Equal(t, Unlimited, pro.MinutesCap)

	// Lookup is case and whitespace insensitive.
	assert.Equal(t, 2, ResolveStudentTier(" premium ").Rank)

	// Unknown names fail closed at rank 0.
	assert.Equal(t, 0, ResolveStudentTier("PLATINUM").Rank)
	assert.Equal(t, 0, ResolveStudentTier("").Rank)
}

func TestResolveInstitutionPlan(t *testing.T) {
	assert.Equal(t, 1, ResolveInstitutionPlan(model.InstitutionPlanStarter).Rank)
	assert.Equal(t, 3, ResolveInstitutionPlan(model.InstitutionPlanEnterprise).Rank)
	assert.Equal(t, 0, ResolveInstitutionPlan("FREE").Rank)

	// Student tier names are not institution plans.
	assert.Equal(t, 0, ResolveInstitutionPlan(model.StudentTierPro).Rank)
}

func TestTierSatisfies(t *testing.T) {
	// No requirement is always satisfied, even without a tier.
	assert.True(t, TierSatisfies("", ""))
	assert.True(t, TierSatisfies(model.StudentTierBasic, ""))

	assert.True(t, TierSatisfies(model.StudentTierBasic, model.StudentTierBasic))
	assert.True(t, TierSatisfies(model.StudentTierPro, model.StudentTierBasic))
	assert.True(t, TierSatisfies(model.StudentTierPremium, model.StudentTierPremium))

	assert.False(t, TierSatisfies(model.StudentTierBasic, model.StudentTierPremium))
	assert.False(t, TierSatisfies("", model.StudentTierBasic))
	assert.False(t, TierSatisfies("PLATINUM", model.StudentTierBasic))
}

func TestCapAllows(t *testing.T) {
	assert.True(t, CapAllows(5, 0))
	assert.True(t, CapAllows(5, 4))
	assert.False(t, CapAllows(5, 5))
	assert.False(t, CapAllows(5, 6))
	assert.False(t, CapAllows(0, 0))
	assert.True(t, CapAllows(Unlimited, 1000000))
}

func TestCapRemaining(t *testing.T) {
	assert.Equal(t, 5, CapRemaining(5, 0))
	assert.Equal(t, 1, CapRemaining(5, 4))
	assert.Equal(t, 0, CapRemaining(5, 5))
	assert.Equal(t, 0, CapRemaining(5, 9))
	assert.Equal(t, Unlimited, CapRemaining(Unlimited, 9))
}
