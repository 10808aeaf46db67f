package services

import (
	"strings"

	"github.com/linguahub/api/model"
)

// Unlimited is the sentinel cap value meaning "no limit". Every comparison
// against a cap must special-case it rather than treating it as a ceiling.
const Unlimited = -1

// TierInfo holds the rank and entitlement caps of a subscription tier.
// Rank 0 is reserved for unknown tiers and fails every requirement.
type TierInfo struct {
	Name             string `json:"name"`
	Rank             int    `json:"rank"`
	MonthlyCourseCap int    `json:"monthly_course_cap"`
	GroupSessionCap  int    `json:"group_session_cap"`
	OneToOneCap      int    `json:"one_to_one_cap"`
	MinutesCap       int    `json:"minutes_cap"`
}

// studentTiers orders the student-facing tiers. Caps are per calendar month.
var studentTiers = map[string]TierInfo{
	model.StudentTierBasic: {
		Name:             model.StudentTierBasic,
		Rank:             1,
		MonthlyCourseCap: 2,
		GroupSessionCap:  5,
		OneToOneCap:      1,
		MinutesCap:       300,
	},
	model.StudentTierPremium: {
		Name:             model.StudentTierPremium,
		Rank:             2,
		MonthlyCourseCap: 5,
		GroupSessionCap:  20,
		OneToOneCap:      5,
		MinutesCap:       1200,
	},
	model.StudentTierPro: {
		Name:             model.StudentTierPro,
		Rank:             3,
		MonthlyCourseCap: Unlimited,
		GroupSessionCap:  Unlimited,
		OneToOneCap:      Unlimited,
		MinutesCap:       Unlimited,
	},
}

// institutionPlans orders the institution-facing plans. Same rank semantics
// as student tiers, different names.
var institutionPlans = map[string]TierInfo{
	model.InstitutionPlanStarter:      {Name: model.InstitutionPlanStarter, Rank: 1, MonthlyCourseCap: 10},
	model.InstitutionPlanProfessional: {Name: model.InstitutionPlanProfessional, Rank: 2, MonthlyCourseCap: 50},
	model.InstitutionPlanEnterprise:   {Name: model.InstitutionPlanEnterprise, Rank: 3, MonthlyCourseCap: Unlimited},
}

// ResolveStudentTier maps a student tier name to its entitlements. Unknown
// names resolve to rank 0, which fails every requirement (fail closed).
func ResolveStudentTier(name string) TierInfo {
	if info, ok := studentTiers[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return info
	}
	return TierInfo{Name: name}
}

// ResolveInstitutionPlan maps an institution plan name to its entitlements,
// with the same fail-closed behavior for unknown names.
func ResolveInstitutionPlan(name string) TierInfo {
	if info, ok := institutionPlans[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return info
	}
	return TierInfo{Name: name}
}

// TierSatisfies reports whether a student on userTier meets a course's
// required tier: userRank >= requiredRank. An empty requirement is always
// satisfied.
func TierSatisfies(userTier, requiredTier string) bool {
	if strings.TrimSpace(requiredTier) == "" {
		return true
	}
	return ResolveStudentTier(userTier).Rank >= ResolveStudentTier(requiredTier).Rank
}

// CapAllows reports whether used is still under the limit, honoring the
// Unlimited sentinel.
func CapAllows(limit, used int) bool {
	if limit == Unlimited {
		return true
	}
	return used < limit
}

// CapRemaining returns limit-used, or Unlimited when the limit is Unlimited.
// Never returns a negative number.
func CapRemaining(limit, used int) int {
	if limit == Unlimited {
		return Unlimited
	}
	if remaining := limit - used; remaining > 0 {
		return remaining
	}
	return 0
}
