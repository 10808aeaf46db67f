package institution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaultCommissionRate(t *testing.T) {
	original := defaultCommissionRate
	defer SetDefaultCommissionRate(original)

	SetDefaultCommissionRate(22.5)
	assert.Equal(t, 22.5, defaultCommissionRate)

	// Out-of-range values keep the current rate.
	SetDefaultCommissionRate(-1)
	assert.Equal(t, 22.5, defaultCommissionRate)
	SetDefaultCommissionRate(101)
	assert.Equal(t, 22.5, defaultCommissionRate)

	SetDefaultCommissionRate(0)
	assert.Equal(t, 0.0, defaultCommissionRate)
}
