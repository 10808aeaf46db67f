package course

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:course_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createInstitutionCourses(t *testing.T, db *gorm.DB, institutionID uint, n int, createdAt time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		course := model.Course{
			Title:         fmt.Sprintf("Course %d", i),
			InstitutionID: &institutionID,
			MarketingType: model.MarketingTypeSelfPaced,
			Status:        model.CourseStatusDraft,
		}
		course.CreatedAt = createdAt
		require.NoError(t, db.Create(&course).Error)
	}
}

func TestMonthlyCourseCapReached(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

	institution := model.Institution{
		Name:             "Lingua Nord",
		SubscriptionPlan: model.InstitutionPlanStarter,
		Status:           model.InstitutionStatusActive,
	}
	require.NoError(t, db.Create(&institution).Error)

	reached, err := monthlyCourseCapReached(db, &institution, now)
	require.NoError(t, err)
	assert.False(t, reached)

	// Starter allows 10 courses per month. Fill the allowance.
	createInstitutionCourses(t, db, institution.ID, 10, now.Add(-24*time.Hour))

	reached, err = monthlyCourseCapReached(db, &institution, now)
	require.NoError(t, err)
	assert.True(t, reached)

	// Last month's courses do not count against this month.
	require.NoError(t, db.Where("institution_id = ?", institution.ID).
		Delete(&model.Course{}).Error)
	createInstitutionCourses(t, db, institution.ID, 10, now.AddDate(0, -1, 0))

	reached, err = monthlyCourseCapReached(db, &institution, now)
	require.NoError(t, err)
	assert.False(t, reached)

	t.Run("enterprise is unlimited", func(t *testing.T) {
		require.NoError(t, db.Model(&institution).
			Update("subscription_plan", model.InstitutionPlanEnterprise).Error)
		institution.SubscriptionPlan = model.InstitutionPlanEnterprise

		createInstitutionCourses(t, db, institution.ID, 60, now.Add(-time.Hour))
		reached, err := monthlyCourseCapReached(db, &institution, now)
		require.NoError(t, err)
		assert.False(t, reached)
	})

	t.Run("unknown plan fails closed", func(t *testing.T) {
		institution.SubscriptionPlan = "LEGACY"
		reached, err := monthlyCourseCapReached(db, &institution, now)
		require.NoError(t, err)
		assert.True(t, reached)
	})
}
