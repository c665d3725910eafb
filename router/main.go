package router

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"mygym-server/database"
	"mygym-server/handlers"
	graduation_handlers "mygym-server/handlers/graduation"
	notification_handlers "mygym-server/handlers/notification"
	"mygym-server/repository"
	"mygym-server/services"
	"mygym-server/utils"
	"mygym-server/utils/cache"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	repo := repository.NewGormGraduationRepository(db)

	// The calculator is built from the stored rule table; the built-in
	// defaults cover a fresh database before seeding ran.
	rules, err := repo.GetRules(context.Background())
	if err != nil || len(rules) == 0 {
		log.Printf("Warning: rule table unavailable, using built-in defaults: %v", err)
		rules = database.DefaultGraduationRules()
	}
	calc := services.NewGraduationCalculationService(rules)

	notificationStore := services.NewGormNotificationStore(db)
	notificationService := services.NewGraduationNotificationService(notificationStore)
	graduationService := services.NewGraduationService(repo, calc, notificationService)

	// Initialize Redis cache for the graduation board
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Board caching will be disabled.", err)
		redisCache = nil
	}

	graduationHandler := graduation_handlers.NewGraduationHandler(graduationService, redisCache)
	notificationHandler := notification_handlers.NewNotificationHandler(graduationService, notificationService)

	// Health check endpoints (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))
	app.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	// API v1 group
	api := app.Group("/api/v1")

	// Graduation routes
	graduationGroup := api.Group("/graduation")
	graduationGroup.Post("/alerts/refresh", graduationHandler.RefreshAlerts)       // Recompute all alerts
	graduationGroup.Get("/board", graduationHandler.GetBoard)                      // Dashboard aggregate (cached)
	graduationGroup.Get("/eligible", graduationHandler.GetEligibleStudents)        // Eligible alerts
	graduationGroup.Post("/exams", graduationHandler.ScheduleExam)                 // Schedule a new exam
	graduationGroup.Get("/exams/upcoming", graduationHandler.GetUpcomingExams)     // Next scheduled exams
	graduationGroup.Put("/exams/:id/results", graduationHandler.RecordExamResults) // Record exam outcomes
	graduationGroup.Post("/eligibility/check", graduationHandler.CheckEligibility) // On-demand eligibility check
	graduationGroup.Get("/rules", graduationHandler.GetRules)                      // Full rule table
	graduationGroup.Get("/rules/:modality", graduationHandler.GetRules)            // Rules for one modality
	graduationGroup.Post("/notifications/process", notificationHandler.ProcessNotifications)

	// Notification routes
	notificationGroup := api.Group("/notifications")
	notificationGroup.Get("/pending", notificationHandler.GetPending)
	notificationGroup.Post("/:id/sent", notificationHandler.MarkSent)
	notificationGroup.Get("/stats", notificationHandler.GetStats)
	notificationGroup.Delete("/cleanup", notificationHandler.Cleanup)
}
