package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))

	// Translated gorm error, wrapped or not.
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create enrollment: %w", gorm.ErrDuplicatedKey)))

	// Raw postgres error from a path that bypasses gorm's translation.
	pqErr := &pq.Error{Code: pqUniqueViolation}
	assert.True(t, IsUniqueViolation(pqErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", pqErr)))

	// Other postgres errors are not unique violations.
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
}
