package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/utils/response"
	"gorm.io/gorm"
)

// SettingsHandler manages app settings. Writes invalidate the settings
// cache so the billing core picks up changes on the next read.
type SettingsHandler struct {
	db       *gorm.DB
	settings *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(db *gorm.DB, settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{db: db, settings: settings}
}

// ListSettings retrieves all app settings
// GET /admin/settings
func (h *SettingsHandler) ListSettings(c *fiber.Ctx) error {
	var settings []model.AppSetting
	if err := h.db.Find(&settings).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch settings")
	}

	return response.SuccessWithMessage(c, "Settings retrieved successfully", settings)
}

// GetSetting retrieves a specific setting by key
// GET /admin/settings/:key
func (h *SettingsHandler) GetSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	var setting model.AppSetting
	if err := h.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch setting")
	}

	return response.SuccessWithMessage(c, "Setting retrieved successfully", setting)
}

// SettingRequest carries a setting value
type SettingRequest struct {
	Value       string `json:"value"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// CreateSetting creates a new setting
// POST /admin/settings/:key
func (h *SettingsHandler) CreateSetting(c *fiber.Ctx) error {
	key := c.Params("key")

	var req SettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	setting := model.AppSetting{
		Key:         key,
		Value:       req.Value,
		Type:        req.Type,
		Description: req.Description,
		Category:    req.Category,
	}
	if setting.Type == "" {
		setting.Type = "string"
	}

	if err := h.db.Create(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Setting already exists")
		}
		return response.InternalServerError(c, "Failed to create setting")
	}

	h.settings.Invalidate(key)
	return response.Created(c, setting)
}

// UpdateSetting updates an existing setting
// PUT /admin/settings/:key
func (h *SettingsHandler) UpdateSetting(c *fiber.Ctx) error {
	key := c.Params("key")

	var req SettingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var setting model.AppSetting
	if err := h.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Setting not found")
		}
		return response.InternalServerError(c, "Failed to fetch setting")
	}

	updates := map[string]interface{}{"value": req.Value}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if err := h.db.Model(&setting).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update setting")
	}

	h.settings.Invalidate(key)
	return response.SuccessWithMessage(c, "Setting updated successfully", setting)
}

// DeleteSetting deletes a setting
// DELETE /admin/settings/:key
func (h *SettingsHandler) DeleteSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	result := h.db.Where("key = ?", key).Delete(&model.AppSetting{})

	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete setting")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Setting not found")
	}

	h.settings.Invalidate(key)
	return response.SuccessWithMessage(c, "Setting deleted successfully", fiber.Map{"key": key})
}
