package services

import (
	"fmt"
	"math"
)

// DefaultLeaderRatePercent is the default share of session revenue paid TO
// the instructor/host when no rate is configured on the session; the
// platform keeps the remainder (30%).
//
// Note the inversion relative to institution commissions: an institution's
// CommissionRate is the percentage the PLATFORM retains, while a leader rate
// is the percentage paid OUT. Both conventions are intentional and the two
// must not be mixed up.
const DefaultLeaderRatePercent = 70.0

// CreditDollarValue converts platform credits to currency: 1 credit = $1.
const CreditDollarValue = 1.0

// CommissionBreakdown is the result of splitting a revenue total at a rate.
// CommissionAmount is rate% of the total; RemainderAmount is what is left.
// Invariant: TotalRevenue == CommissionAmount + RemainderAmount exactly.
type CommissionBreakdown struct {
	TotalRevenue     float64 `json:"total_revenue"`
	CommissionAmount float64 `json:"commission_amount"`
	RemainderAmount  float64 `json:"remainder_amount"`
}

// RoundCents rounds an amount to two decimal places.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// SplitRevenue splits total at ratePercent (0-100). The commission side is
// rounded to cents and the remainder takes up the residue, so the two always
// sum back to the total.
func SplitRevenue(total, ratePercent float64) (CommissionBreakdown, error) {
	if ratePercent < 0 || ratePercent > 100 {
		return CommissionBreakdown{}, fmt.Errorf("commission rate must be between 0 and 100, got %v", ratePercent)
	}
	total = RoundCents(total)
	commission := RoundCents(total * ratePercent / 100)
	return CommissionBreakdown{
		TotalRevenue:     total,
		CommissionAmount: commission,
		RemainderAmount:  RoundCents(total - commission),
	}, nil
}

// CreditRevenue computes the revenue of a credit-based session:
// participants * creditPrice, with the fixed 1 credit = $1 conversion.
func CreditRevenue(participants int, creditPrice float64) float64 {
	if participants < 0 {
		participants = 0
	}
	return RoundCents(float64(participants) * creditPrice * CreditDollarValue)
}

// PriceRevenue computes the revenue of a price-based session:
// price * count, where count is the attendance count for video sessions and
// the booking count for live conversations.
func PriceRevenue(price float64, count int) float64 {
	if count < 0 {
		count = 0
	}
	return RoundCents(price * float64(count))
}

// LeaderRate resolves a session's configured leader rate, falling back to
// the default when none is set.
func LeaderRate(configured *float64) float64 {
	if configured == nil {
		return DefaultLeaderRatePercent
	}
	return *configured
}

// RefundSplit recomputes the commission share of a partial refund using the
// ORIGINAL payment's proportional rate, never the institution's current
// rate. Refunding X% of the amount refunds exactly X% of the original
// commission.
func RefundSplit(originalAmount, originalCommission, refundAmount float64) (CommissionBreakdown, error) {
	if originalAmount <= 0 {
		return CommissionBreakdown{}, fmt.Errorf("original amount must be positive, got %v", originalAmount)
	}
	if refundAmount < 0 || refundAmount > originalAmount {
		return CommissionBreakdown{}, fmt.Errorf("refund amount %v outside [0, %v]", refundAmount, originalAmount)
	}
	frozenRate := originalCommission / originalAmount * 100
	return SplitRevenue(refundAmount, frozenRate)
}
