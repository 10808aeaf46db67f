package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linguahub/api/config"
	"github.com/linguahub/api/database"
	"github.com/linguahub/api/handlers"
	admin_handlers "github.com/linguahub/api/handlers/admin"
	auth_handlers "github.com/linguahub/api/handlers/auth"
	course_handlers "github.com/linguahub/api/handlers/course"
	enrollment_handlers "github.com/linguahub/api/handlers/enrollment"
	institution_handlers "github.com/linguahub/api/handlers/institution"
	payment_handlers "github.com/linguahub/api/handlers/payment"
	session_handlers "github.com/linguahub/api/handlers/session"
	subscription_handlers "github.com/linguahub/api/handlers/subscription"
	usage_handlers "github.com/linguahub/api/handlers/usage"
	"github.com/linguahub/api/model"
	"github.com/linguahub/api/services"
	"github.com/linguahub/api/services/payments"
	"github.com/linguahub/api/utils"
	"github.com/linguahub/api/utils/auth"
	"github.com/linguahub/api/utils/cache"
	"github.com/linguahub/api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	// Get JWT secret from environment
	jwtSecret := env.JWT_SECRET
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "linguahub-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and settings
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and settings caching will be disabled.", err)
		redisCache = nil
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize auth handler with brute force protection
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	// Core billing services
	settingsService := services.NewSettingsService(db, redisCache)
	subscriptionService := services.NewSubscriptionService(db)
	eligibilityService := services.NewEligibilityService(db, subscriptionService, settingsService, env.SUBSCRIPTION_UPGRADE_URL)
	quotaService := services.NewQuotaService(db)
	sessionService := services.NewSessionService(db, quotaService, subscriptionService)
	sessionCommissionService := services.NewSessionCommissionService(db)

	paymentProvider := payments.NewClient(payments.Config{
		BaseURL: env.PAYMENT_PROVIDER_URL,
		APIKey:  env.PAYMENT_PROVIDER_KEY,
	})
	paymentService := services.NewPaymentService(db, paymentProvider, settingsService)

	institution_handlers.SetDefaultCommissionRate(env.DEFAULT_COMMISSION_RATE)

	// Domain handlers
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db, eligibilityService)
	paymentHandler := payment_handlers.NewPaymentHandler(db, paymentService, env.PAYMENT_WEBHOOK_SECRET)
	subscriptionHandler := subscription_handlers.NewSubscriptionHandler(subscriptionService, settingsService)
	usageHandler := usage_handlers.NewUsageHandler(quotaService, subscriptionService)
	sessionHandler := session_handlers.NewSessionHandler(sessionService, sessionCommissionService)
	settingsHandler := admin_handlers.NewSettingsHandler(db, settingsService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Institution routes
	institutions := api.Group("/institutions")
	institutions.Get("/", utils.MakeHTTPHandleFunc(institution_handlers.ListInstitutions, store))   // Public: browse approved institutions
	institutions.Get("/:id", utils.MakeHTTPHandleFunc(institution_handlers.GetInstitution, store))  // Public: institution detail
	institutions.Post("/", authMiddleware.Required(), utils.MakeHTTPHandleFunc(institution_handlers.RegisterInstitution, store))

	// Course routes
	courses := api.Group("/courses")
	courses.Get("/", utils.MakeHTTPHandleFunc(course_handlers.ListCourses, store))  // Public: browse published courses
	courses.Get("/:id", utils.MakeHTTPHandleFunc(course_handlers.GetCourse, store)) // Public: course detail
	courses.Post("/", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleInstitution, model.RoleAdmin),
		utils.MakeHTTPHandleFunc(course_handlers.CreateCourse, store))
	courses.Post("/:id/publish", authMiddleware.Required(), authMiddleware.RequireRole(model.RoleInstitution, model.RoleAdmin),
		utils.MakeHTTPHandleFunc(course_handlers.PublishCourse, store))
	courses.Get("/:id/eligibility", authMiddleware.Required(), enrollmentHandler.CheckEligibility)

	// Enrollment routes (students)
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.MyEnrollments)
	enrollments.Post("/", enrollmentHandler.Enroll)

	// Payment routes
	paymentsGroup := api.Group("/payments")
	paymentsGroup.Post("/webhook", paymentHandler.Webhook) // Provider callback, authenticated by signature
	paymentsGroup.Get("/", authMiddleware.Required(), paymentHandler.MyPayments)
	paymentsGroup.Post("/intent", authMiddleware.Required(), paymentHandler.CreateIntent)

	// Subscription routes (students)
	subscriptions := api.Group("/subscriptions", authMiddleware.Required())
	subscriptions.Post("/", subscriptionHandler.Subscribe)
	subscriptions.Get("/status", subscriptionHandler.Status)
	subscriptions.Post("/confirm-payment", subscriptionHandler.ConfirmPayment)

	// Usage routes (students)
	api.Get("/usage", authMiddleware.Required(), usageHandler.MyUsage)

	// Session routes
	sessions := api.Group("/sessions", authMiddleware.Required())
	sessions.Post("/conversations", sessionHandler.CreateConversation)
	sessions.Post("/conversations/:id/book", sessionHandler.BookConversation)
	sessions.Post("/conversations/:id/attend", sessionHandler.AttendConversation)
	sessions.Post("/conversations/:id/commission", authMiddleware.RequireRole(model.RoleAdmin, model.RoleInstitution),
		sessionHandler.CalculateConversationCommission)
	sessions.Post("/video", sessionHandler.CreateVideoSession)
	sessions.Post("/video/:id/attend", sessionHandler.AttendVideoSession)
	sessions.Post("/video/:id/commission", authMiddleware.RequireRole(model.RoleAdmin, model.RoleInstitution),
		sessionHandler.CalculateVideoCommission)

	// Admin routes
	adminGroup := api.Group("/admin", authMiddleware.RequireAdmin())

	adminGroup.Post("/institutions/:id/approve",
		middleware.AdminAuditLog(store, model.AuditActionInstitutionApproval, "institutions"),
		utils.MakeHTTPHandleFunc(institution_handlers.ApproveInstitution, store))
	adminGroup.Put("/institutions/:id/commission-rate",
		middleware.AdminAuditLog(store, model.AuditActionCommissionRateChange, "institutions"),
		utils.MakeHTTPHandleFunc(institution_handlers.SetCommissionRate, store))

	adminGroup.Post("/payments/mark-paid", paymentHandler.MarkPaid)

	settingsGroup := adminGroup.Group("/settings")
	settingsGroup.Get("/", settingsHandler.ListSettings)
	settingsGroup.Get("/:key", settingsHandler.GetSetting)
	settingsGroup.Post("/:key", middleware.AdminAuditLog(store, model.AuditActionSettingsUpdate, "settings"), settingsHandler.CreateSetting)
	settingsGroup.Put("/:key", middleware.AdminAuditLog(store, model.AuditActionSettingsUpdate, "settings"), settingsHandler.UpdateSetting)
	settingsGroup.Delete("/:key", middleware.AdminAuditLog(store, model.AuditActionSettingsUpdate, "settings"), settingsHandler.DeleteSetting)

	adminGroup.Get("/audit-logs", utils.MakeHTTPHandleFunc(admin_handlers.ListAuditLogs, store))
}
