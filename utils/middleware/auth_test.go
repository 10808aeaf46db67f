package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/utils/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:middleware_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestRequireAdmin(t *testing.T) {
	db := newTestDB(t)
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
		Issuer: "linguahub-test",
	})
	m := NewAuthMiddleware(jwtManager, db)

	app := fiber.New()
	app.Get("/admin", m.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	admin := model.User{Email: "admin@example.com", PasswordHash: "x", Name: "Admin", Role: model.RoleAdmin}
	require.NoError(t, db.Create(&admin).Error)
	student := model.User{Email: "student@example.com", PasswordHash: "x", Name: "Student", Role: model.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	request := func(token string) int {
		req := httptest.NewRequest("GET", "/admin", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	adminToken, _, err := jwtManager.GenerateAccessToken(admin.ID, admin.Email, admin.Role, admin.TokenVersion)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, request(adminToken))

	studentToken, _, err := jwtManager.GenerateAccessToken(student.ID, student.Email, student.Role, student.TokenVersion)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, request(studentToken))

	assert.Equal(t, fiber.StatusUnauthorized, request(""))

	t.Run("demoted admin loses access", func(t *testing.T) {
		// The stored role decides, even while the token still says admin.
		require.NoError(t, db.Model(&admin).Update("role", model.RoleStudent).Error)
		assert.Equal(t, fiber.StatusForbidden, request(adminToken))
	})
}
