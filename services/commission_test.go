package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRevenue(t *testing.T) {
	t.Run("basic split", func(t *testing.T) {
		split, err := SplitRevenue(100, 10)
		require.NoError(t, err)
		assert.Equal(t, 100.0, split.TotalRevenue)
		assert.Equal(t, 10.0, split.CommissionAmount)
		assert.Equal(t, 90.0, split.RemainderAmount)
	})

	t.Run("conservation under rounding", func(t *testing.T) {
		// Rates that produce sub-cent commission amounts must still sum
		// back to the total exactly.
		cases := []struct {
			total float64
			rate  float64
		}{
			{99.99, 33.33},
			{0.01, 50},
			{19.95, 12.5},
			{123.45, 7.77},
			{100, 0},
			{100, 100},
		}
		for _, tc := range cases {
			split, err := SplitRevenue(tc.total, tc.rate)
			require.NoError(t, err)
			sum := RoundCents(split.CommissionAmount + split.RemainderAmount)
			assert.Equal(t, split.TotalRevenue, sum,
				"total=%v rate=%v", tc.total, tc.rate)
			assert.Equal(t, RoundCents(split.CommissionAmount), split.CommissionAmount)
			assert.Equal(t, RoundCents(split.RemainderAmount), split.RemainderAmount)
		}
	})

	t.Run("rate out of range", func(t *testing.T) {
		_, err := SplitRevenue(100, -1)
		assert.Error(t, err)
		_, err = SplitRevenue(100, 100.01)
		assert.Error(t, err)
	})

	t.Run("zero total", func(t *testing.T) {
		split, err := SplitRevenue(0, 15)
		require.NoError(t, err)
		assert.Equal(t, 0.0, split.CommissionAmount)
		assert.Equal(t, 0.0, split.RemainderAmount)
	})
}

func TestRefundSplit(t *testing.T) {
	t.Run("proportional partial refund", func(t *testing.T) {
		// $100 payment at 10% commission. Refunding $40 refunds $4 of
		// commission, regardless of any later rate change.
		split, err := RefundSplit(100, 10, 40)
		require.NoError(t, err)
		assert.Equal(t, 40.0, split.TotalRevenue)
		assert.Equal(t, 4.0, split.CommissionAmount)
		assert.Equal(t, 36.0, split.RemainderAmount)
	})

	t.Run("full refund", func(t *testing.T) {
		split, err := RefundSplit(100, 15, 100)
		require.NoError(t, err)
		assert.Equal(t, 15.0, split.CommissionAmount)
		assert.Equal(t, 85.0, split.RemainderAmount)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		_, err := RefundSplit(0, 0, 0)
		assert.Error(t, err)
		_, err = RefundSplit(100, 10, -5)
		assert.Error(t, err)
		_, err = RefundSplit(100, 10, 150)
		assert.Error(t, err)
	})
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 10.0, RoundCents(10.004))
	assert.Equal(t, 10.01, RoundCents(10.005))
	assert.Equal(t, 33.33, RoundCents(99.99*33.33/100))
	assert.Equal(t, -2.5, RoundCents(-2.504))
}

func TestCreditRevenue(t *testing.T) {
	// 1 credit = $1, so revenue is participants * credit price.
	assert.Equal(t, 25.0, CreditRevenue(5, 5))
	assert.Equal(t, 0.0, CreditRevenue(0, 5))
	assert.Equal(t, 0.0, CreditRevenue(-3, 5))
}

func TestPriceRevenue(t *testing.T) {
	assert.Equal(t, 59.96, PriceRevenue(14.99, 4))
	assert.Equal(t, 0.0, PriceRevenue(14.99, 0))
	assert.Equal(t, 0.0, PriceRevenue(14.99, -1))
}

func TestLeaderRate(t *testing.T) {
	assert.Equal(t, DefaultLeaderRatePercent, LeaderRate(nil))

	custom := 80.0
	assert.Equal(t, 80.0, LeaderRate(&custom))

	zero := 0.0
	assert.Equal(t, 0.0, LeaderRate(&zero))
}
