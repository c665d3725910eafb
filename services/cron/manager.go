package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"mygym-server/database"
	"mygym-server/model"
	"mygym-server/repository"
	"mygym-server/services"
)

// CronManager manages all scheduled graduation jobs
type CronManager struct {
	cron          *cron.Cron
	db            *gorm.DB
	repo          repository.GraduationRepository
	graduation    *services.GraduationService
	notifications *services.GraduationNotificationService
	email         *services.EmailService
}

// NewCronManager creates a new cron manager wired to the graduation services
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	repo := repository.NewGormGraduationRepository(db)
	rules, err := repo.GetRules(context.Background())
	if err != nil || len(rules) == 0 {
		log.Printf("[CRON] Rule table unavailable, using built-in defaults: %v", err)
		rules = database.DefaultGraduationRules()
	}
	calc := services.NewGraduationCalculationService(rules)
	notifications := services.NewGraduationNotificationService(services.NewGormNotificationStore(db))

	return &CronManager{
		cron:          c,
		db:            db,
		repo:          repo,
		graduation:    services.NewGraduationService(repo, calc, notifications),
		notifications: notifications,
		email:         services.NewEmailService(),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Daily at 2 AM: Recompute alerts and announce new eligibility
	_, err := m.cron.AddFunc("0 0 2 * * *", func() {
		m.logJobStart("refresh_graduation_alerts")
		m.RefreshGraduationAlerts()
	})
	if err != nil {
		return err
	}

	// 2. Daily at 8 AM: Remind staff of exams within the next 7 days
	_, err = m.cron.AddFunc("0 0 8 * * *", func() {
		m.logJobStart("exam_reminders")
		m.SendExamReminders()
	})
	if err != nil {
		return err
	}

	// 3. Daily at 3 AM: Remove notifications older than 30 days
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("cleanup_notifications")
		m.CleanupNotifications()
	})
	if err != nil {
		return err
	}

	// 4. Every 15 minutes: Deliver pending notifications by email
	_, err = m.cron.AddFunc("0 */15 * * * *", func() {
		m.logJobStart("deliver_pending_notifications")
		m.DeliverPendingNotifications()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
		Metadata:  "{}",
	}
	m.db.Create(&cronLog)
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": time.Now(),
			"message":      message,
		})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)

	m.db.Model(&model.CronJobLog{}).
		Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		Limit(1).
		Updates(map[string]interface{}{
			"status":       "failed",
			"completed_at": time.Now(),
			"error_msg":    err.Error(),
		})
}
