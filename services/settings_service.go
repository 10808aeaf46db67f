package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/linguahub/api/model"
	"github.com/linguahub/api/utils/cache"
	"gorm.io/gorm"
)

const settingsCacheTTL = 5 * time.Minute

// SettingsService reads admin settings through an injectable cache. The
// cache is nil-tolerant (tests and cacheless deployments hit the database
// directly) and the admin write path calls Invalidate so policy changes
// take effect on the next operation.
type SettingsService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

// NewSettingsService creates a new settings service
func NewSettingsService(db *gorm.DB, redisCache *cache.RedisCache) *SettingsService {
	return &SettingsService{db: db, cache: redisCache}
}

func settingsCacheKey(key string) string {
	return "settings:" + key
}

// Get returns the setting value for key, or "" when unset.
func (s *SettingsService) Get(key string) (string, error) {
	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if val, err := s.cache.Get(ctx, settingsCacheKey(key)); err == nil {
			return val, nil
		}
	}

	var setting model.AppSetting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fetch setting %s: %w", key, err)
	}

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(ctx, settingsCacheKey(key), setting.Value, settingsCacheTTL); err != nil {
			log.Printf("[SETTINGS] cache set failed for %s: %v", key, err)
		}
	}
	return setting.Value, nil
}

// Invalidate drops the cached value for key. Called by the admin settings
// write path whenever approval policy changes.
func (s *SettingsService) Invalidate(key string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, settingsCacheKey(key)); err != nil {
		log.Printf("[SETTINGS] cache invalidate failed for %s: %v", key, err)
	}
}

// PaymentMethodApproved reports whether the method is on the admin-approved
// list. An empty setting approves the default methods.
func (s *SettingsService) PaymentMethodApproved(method string) (bool, error) {
	value, err := s.Get(model.SettingApprovedPaymentMethods)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(value) == "" {
		value = "card,bank_transfer"
	}
	for _, m := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(m), method) {
			return true, nil
		}
	}
	return false, nil
}

// StudentExempt reports whether the student is on the subscription
// exemption list.
func (s *SettingsService) StudentExempt(studentID uint) (bool, error) {
	value, err := s.Get(model.SettingSubscriptionExemptions)
	if err != nil {
		return false, err
	}
	want := fmt.Sprintf("%d", studentID)
	for _, id := range strings.Split(value, ",") {
		if strings.TrimSpace(id) == want {
			return true, nil
		}
	}
	return false, nil
}
