package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/linguahub/api/model"
	"github.com/linguahub/api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedInstitutions(); err != nil {
		return fmt.Errorf("failed to seed institutions: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	if err := s.SeedAppSettings(); err != nil {
		return fmt.Errorf("failed to seed app settings: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	// Hash password
	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "Platform Admin",
		Role:         model.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s", adminEmail)
	return nil
}

// SeedInstitutions creates sample approved institutions
func (s *Seeder) SeedInstitutions() error {
	var count int64
	if err := s.db.Model(&model.Institution{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Institutions already exist, skipping...")
		return nil
	}

	institutions := []model.Institution{
		{
			Name:             "Lingua Nordica",
			CommissionRate:   15,
			SubscriptionPlan: model.InstitutionPlanProfessional,
			IsFeatured:       true,
			IsApproved:       true,
			Status:           model.InstitutionStatusActive,
		},
		{
			Name:             "Casa del Español",
			CommissionRate:   12,
			SubscriptionPlan: model.InstitutionPlanStarter,
			IsApproved:       true,
			Status:           model.InstitutionStatusActive,
		},
		{
			Name:             "Tokyo Language Lab",
			CommissionRate:   18,
			SubscriptionPlan: model.InstitutionPlanEnterprise,
			IsApproved:       false,
			Status:           model.InstitutionStatusPending,
		},
	}

	if err := s.db.Create(&institutions).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d institutions", len(institutions))
	return nil
}

// SeedCourses creates sample courses, including a platform-owned one
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	var nordica, casa model.Institution
	if err := s.db.Where("name = ?", "Lingua Nordica").First(&nordica).Error; err != nil {
		return err
	}
	if err := s.db.Where("name = ?", "Casa del Español").First(&casa).Error; err != nil {
		return err
	}

	courses := []model.Course{
		{
			InstitutionID: &nordica.ID,
			Title:         "Swedish for Beginners",
			Description:   "A self-paced introduction to Swedish.",
			Language:      "Swedish",
			BasePrice:     99,
			PricingPeriod: model.PricingPeriodOneTime,
			MaxStudents:   50,
			MarketingType: model.MarketingTypeSelfPaced,
			Status:        model.CourseStatusPublished,
		},
		{
			InstitutionID:    &nordica.ID,
			Title:            "Norwegian Conversation Intensive",
			Description:      "Live online sessions with native speakers.",
			Language:         "Norwegian",
			BasePrice:        199,
			PricingPeriod:    model.PricingPeriodMonthly,
			MaxStudents:      12,
			SubscriptionTier: model.StudentTierPremium,
			MarketingType:    model.MarketingTypeLiveOnline,
			Status:           model.CourseStatusPublished,
		},
		{
			InstitutionID: &casa.ID,
			Title:         "Spanish Grammar Essentials",
			Description:   "Free self-paced grammar course.",
			Language:      "Spanish",
			BasePrice:     0,
			MarketingType: model.MarketingTypeSelfPaced,
			Status:        model.CourseStatusPublished,
		},
		{
			// Platform-owned course, no institution
			Title:         "Marketplace Onboarding",
			Description:   "How to get the most out of the platform.",
			Language:      "English",
			BasePrice:     19,
			MarketingType: model.MarketingTypeSelfPaced,
			Status:        model.CourseStatusPublished,
		},
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d courses", len(courses))
	return nil
}

// SeedAppSettings creates the billing policy settings
func (s *Seeder) SeedAppSettings() error {
	// Check if settings already exist
	var count int64
	if err := s.db.Model(&model.AppSetting{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  App settings already exist, skipping...")
		return nil
	}

	now := time.Now()
	settings := []model.AppSetting{
		{
			Key:         "system.name",
			Value:       "LinguaHub",
			Type:        "string",
			Description: "Application name",
			IsPublic:    true,
			Category:    "system",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Key:         model.SettingApprovedPaymentMethods,
			Value:       "card,bank_transfer",
			Type:        "string",
			Description: "Comma-separated payment methods accepted for manual settlement",
			IsPublic:    false,
			Category:    "payments",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Key:         model.SettingDefaultTrialDays,
			Value:       "7",
			Type:        "int",
			Description: "Trial length in days for new subscriptions",
			IsPublic:    true,
			Category:    "billing",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Key:         model.SettingSubscriptionExemptions,
			Value:       "",
			Type:        "string",
			Description: "Comma-separated student ids exempt from subscription gating",
			IsPublic:    false,
			Category:    "billing",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	if err := s.db.Create(&settings).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d app settings", len(settings))
	return nil
}

// RunSeeds is the entry point for database seeding
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
