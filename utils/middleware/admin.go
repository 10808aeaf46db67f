package middleware

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/database"
	"github.com/linguahub/api/model"
	"gorm.io/gorm"
)

// AdminAuditLog creates an audit log entry for admin actions
func AdminAuditLog(store database.Storage, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get admin user from context (set by auth middleware)
		adminUser, ok := GetUser(c)
		if !ok {
			return c.Next() // Continue without logging if user not found
		}

		// Get database connection
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			return c.Next() // Continue without logging if db error
		}

		// Parse resource ID from params if available
		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		// Capture request body for "old value" tracking
		var oldValue interface{}
		var newValue interface{}

		// Get body for POST/PUT requests
		if c.Method() == "POST" || c.Method() == "PUT" {
			body := c.Body()
			if len(body) > 0 {
				json.Unmarshal(body, &newValue)
			}
		}

		// For DELETE or GET, we might want to capture the existing state
		if resourceID > 0 && (c.Method() == "DELETE" || c.Method() == "PUT") {
			// Attempt to get existing record (generic approach)
			switch resource {
			case "users":
				var user model.User
				if err := db.First(&user, resourceID).Error; err == nil {
					oldValue = user
				}
			case "institutions":
				var institution model.Institution
				if err := db.First(&institution, resourceID).Error; err == nil {
					oldValue = institution
				}
			case "settings":
				var setting model.AppSetting
				if err := db.Where("id = ?", resourceID).First(&setting).Error; err == nil {
					oldValue = setting
				}
			}
		}

		// Execute the actual handler
		err := c.Next()

		// Log the action after completion
		go func() {
			oldValueJSON, _ := json.Marshal(oldValue)
			newValueJSON, _ := json.Marshal(newValue)

			auditLog := model.AdminAuditLog{
				AdminID:     adminUser.ID,
				Action:      action,
				Resource:    resource,
				ResourceID:  resourceID,
				OldValue:    string(oldValueJSON),
				NewValue:    string(newValueJSON),
				IPAddress:   c.IP(),
				UserAgent:   c.Get("User-Agent"),
				Description: c.Method() + " " + c.Path(),
			}

			db.Create(&auditLog)
		}()

		return err
	}
}
