package cron

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RefreshGraduationAlerts recomputes eligibility for all active students and
// announces newly eligible ones. Runs daily at 2 AM.
func (m *CronManager) RefreshGraduationAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "refresh_graduation_alerts"

	alerts, err := m.graduation.UpdateAlerts(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to refresh alerts: %w", err))
		return
	}

	built, err := m.graduation.ProcessNotifications(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to process notifications: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Refreshed %d alerts, built %d notifications", len(alerts), len(built)))
}

// SendExamReminders notifies staff of scheduled exams happening within the
// next 7 days. Runs daily at 8 AM.
func (m *CronManager) SendExamReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "exam_reminders"

	exams, err := m.repo.GetUpcomingExams(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to load upcoming exams: %w", err))
		return
	}

	recipients, err := m.repo.ListRecipients(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to load recipients: %w", err))
		return
	}

	now := time.Now()
	sent := 0
	for _, exam := range exams {
		daysUntil := int(exam.Date.Sub(now).Hours() / 24)
		if daysUntil < 0 || daysUntil > 7 {
			continue
		}

		matched := m.notifications.FilterRecipientsByModality(recipients, exam.Modality)
		if len(matched) == 0 {
			continue
		}
		recipientIDs := make([]string, 0, len(matched))
		for _, r := range matched {
			recipientIDs = append(recipientIDs, r.ID)
		}

		if _, err := m.notifications.CreateExamReminderNotification(ctx, exam, daysUntil, recipientIDs); err != nil {
			log.Printf("[CRON] Failed to create reminder for exam %s: %v", exam.ID, err)
			continue
		}
		sent++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Checked %d exams, created %d reminders", len(exams), sent))
}

// CleanupNotifications removes notifications older than 30 days. Runs daily
// at 3 AM.
func (m *CronManager) CleanupNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	jobName := "cleanup_notifications"

	removed, err := m.notifications.CleanupOldNotifications(ctx, 30)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup notifications: %w", err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old notifications", removed))
}

// DeliverPendingNotifications emails undelivered notifications to their
// recipients. Notifications stay pending when delivery fails. Runs every
// 15 minutes.
func (m *CronManager) DeliverPendingNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "deliver_pending_notifications"

	if !m.email.IsConfigured() {
		m.logJobComplete(jobName, "Email delivery not configured, skipping")
		return
	}

	recipients, err := m.repo.ListRecipients(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to load recipients: %w", err))
		return
	}

	delivered := 0
	failed := 0
	done := make(map[string]bool)
	incomplete := make(map[string]bool)

	for _, recipient := range recipients {
		pending, err := m.notifications.GetPendingNotifications(ctx, recipient.ID)
		if err != nil {
			log.Printf("[CRON] Failed to load pending notifications for %s: %v", recipient.ID, err)
			failed++
			continue
		}

		for _, notification := range pending {
			if err := m.email.SendNotification(m.notifications, notification, recipient.Email); err != nil {
				log.Printf("[CRON] Failed to deliver notification %s to %s: %v", notification.ID, recipient.Email, err)
				failed++
				incomplete[notification.ID] = true
				continue
			}
			delivered++
			done[notification.ID] = true
		}
	}

	// A notification stays pending if any recipient copy failed, so the next
	// run retries it
	for id := range done {
		if incomplete[id] {
			continue
		}
		if err := m.notifications.MarkNotificationAsSent(ctx, id); err != nil {
			log.Printf("[CRON] Failed to mark notification %s sent: %v", id, err)
		}
	}

	m.logJobComplete(jobName, fmt.Sprintf("Delivered %d emails, %d failures", delivered, failed))
}
