package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database migrated with the full
// schema. Each test gets its own database; cache=shared keeps it alive
// across the connection pool for the duration of the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createStudent(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := model.User{
		Email:        email,
		PasswordHash: "x",
		Name:         "Test Student",
		Role:         model.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createInstitution(t *testing.T, db *gorm.DB, name string, commissionRate float64) *model.Institution {
	t.Helper()

	inst := model.Institution{
		Name:           name,
		CommissionRate: commissionRate,
		IsApproved:     true,
		Status:         model.InstitutionStatusActive,
	}
	require.NoError(t, db.Create(&inst).Error)
	return &inst
}

func createCourse(t *testing.T, db *gorm.DB, course model.Course) *model.Course {
	t.Helper()

	if course.Title == "" {
		course.Title = "Test Course"
	}
	if course.Status == "" {
		course.Status = model.CourseStatusPublished
	}
	if course.MarketingType == "" {
		course.MarketingType = model.MarketingTypeSelfPaced
	}
	require.NoError(t, db.Create(&course).Error)
	return &course
}

// subscribeActive gives the student a subscription resolved as ACTIVE at
// any point in time (post-trial payment already recorded).
func subscribeActive(t *testing.T, db *gorm.DB, studentID uint, tier string) {
	t.Helper()

	sub := model.StudentSubscription{
		StudentID:           studentID,
		Tier:                tier,
		Status:              model.SubscriptionStatusActive,
		HasPostTrialPayment: true,
	}
	require.NoError(t, db.Create(&sub).Error)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
