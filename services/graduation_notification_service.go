package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"mygym-server/model"
)

// bulkEligibleThreshold is the per-modality eligible count at which a
// bulk_eligible digest is emitted alongside the individual notifications.
const bulkEligibleThreshold = 3

// NotificationStats summarizes notification volume over a timeframe
type NotificationStats struct {
	Total   int                            `json:"total"`
	Sent    int                            `json:"sent"`
	Pending int                            `json:"pending"`
	ByType  map[model.NotificationType]int `json:"by_type"`
}

// GraduationNotificationService builds, filters, and formats graduation
// notifications on top of a NotificationStore.
type GraduationNotificationService struct {
	store NotificationStore
	now   func() time.Time
}

// NewGraduationNotificationService creates a notification service. A nil
// store falls back to the in-memory implementation.
func NewGraduationNotificationService(store NotificationStore) *GraduationNotificationService {
	if store == nil {
		store = NewMemoryNotificationStore()
	}
	return &GraduationNotificationService{
		store: store,
		now:   time.Now,
	}
}

func (s *GraduationNotificationService) newNotification(nType model.NotificationType, title, message string, recipients []string, data interface{}) (*model.GraduationNotification, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}
	return &model.GraduationNotification{
		ID:         fmt.Sprintf("notif_%s", uuid.NewString()),
		CreatedAt:  s.now(),
		Type:       nType,
		Title:      title,
		Message:    message,
		Recipients: recipients,
		Data:       payload,
		Scheduled:  false,
	}, nil
}

// CreateStudentEligibleNotification builds a notification announcing that a
// single student has become eligible for promotion.
func (s *GraduationNotificationService) CreateStudentEligibleNotification(ctx context.Context, alert model.GraduationAlert, recipients []string) (*model.GraduationNotification, error) {
	notification, err := s.newNotification(
		model.NotificationTypeStudentEligible,
		"Student Eligible for Promotion",
		fmt.Sprintf("%s is eligible for promotion from %s to %s in %s", alert.StudentName, alert.CurrentBelt, alert.NextBelt, alert.Modality),
		recipients,
		model.StudentEligibleData{
			AlertID:     alert.ID,
			StudentID:   alert.StudentID,
			StudentName: alert.StudentName,
			Modality:    alert.Modality,
			CurrentBelt: alert.CurrentBelt,
			NextBelt:    alert.NextBelt,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// CreateExamReminderNotification builds a reminder for an upcoming exam
func (s *GraduationNotificationService) CreateExamReminderNotification(ctx context.Context, exam model.GraduationExam, daysUntil int, recipients []string) (*model.GraduationNotification, error) {
	notification, err := s.newNotification(
		model.NotificationTypeExamReminder,
		"Promotion Exam Reminder",
		fmt.Sprintf("%s exam in %d days with %d candidates", exam.Modality, daysUntil, len(exam.CandidateStudents)),
		recipients,
		model.ExamReminderData{
			ExamID:         exam.ID,
			ExamDate:       exam.Date,
			Modality:       exam.Modality,
			CandidateCount: len(exam.CandidateStudents),
			DaysUntilExam:  daysUntil,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// CreateGraduationCompletedNotification builds a summary of a finished exam
func (s *GraduationNotificationService) CreateGraduationCompletedNotification(ctx context.Context, exam model.GraduationExam, recipients []string) (*model.GraduationNotification, error) {
	approved := exam.ApprovedCount()
	total := len(exam.Results)
	successRate := 0
	if total > 0 {
		successRate = int(math.Round(float64(approved) / float64(total) * 100))
	}
	notification, err := s.newNotification(
		model.NotificationTypeGraduationCompleted,
		"Promotion Exam Completed",
		fmt.Sprintf("%s exam finished: %d/%d candidates approved", exam.Modality, approved, total),
		recipients,
		model.GraduationCompletedData{
			ExamID:          exam.ID,
			Modality:        exam.Modality,
			ApprovedCount:   approved,
			TotalCandidates: total,
			SuccessRate:     successRate,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// CreateBulkEligibleNotification builds a per-modality digest of eligible students
func (s *GraduationNotificationService) CreateBulkEligibleNotification(ctx context.Context, modality string, alerts []model.GraduationAlert, recipients []string) (*model.GraduationNotification, error) {
	students := make([]model.EligibleStudentSummary, 0, len(alerts))
	for _, alert := range alerts {
		students = append(students, model.EligibleStudentSummary{
			ID:          alert.StudentID,
			Name:        alert.StudentName,
			CurrentBelt: alert.CurrentBelt,
			NextBelt:    alert.NextBelt,
		})
	}
	notification, err := s.newNotification(
		model.NotificationTypeBulkEligible,
		"Multiple Students Eligible",
		fmt.Sprintf("%d %s students are eligible for promotion", len(alerts), modality),
		recipients,
		model.BulkEligibleData{
			Modality:      modality,
			EligibleCount: len(alerts),
			Students:      students,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// FilterRecipientsByModality keeps admins unconditionally and instructors
// only when they teach the given modality.
func (s *GraduationNotificationService) FilterRecipientsByModality(recipients []model.NotificationRecipient, modality string) []model.NotificationRecipient {
	matched := make([]model.NotificationRecipient, 0, len(recipients))
	for _, recipient := range recipients {
		switch recipient.Role {
		case model.RecipientRoleAdmin:
			matched = append(matched, recipient)
		case model.RecipientRoleInstructor:
			if recipient.TeachesModality(modality) {
				matched = append(matched, recipient)
			}
		}
	}
	return matched
}

// ScheduleAutomaticNotifications turns eligible alerts into notifications.
// Alerts are grouped by modality; each group yields one student_eligible
// notification per alert, plus a bulk_eligible digest when the group reaches
// the bulk threshold. Modalities with no matching recipients are skipped.
func (s *GraduationNotificationService) ScheduleAutomaticNotifications(ctx context.Context, alerts []model.GraduationAlert, recipients []model.NotificationRecipient) ([]model.GraduationNotification, error) {
	byModality := make(map[string][]model.GraduationAlert)
	for _, alert := range alerts {
		if alert.IsEligible {
			byModality[alert.Modality] = append(byModality[alert.Modality], alert)
		}
	}

	var built []model.GraduationNotification
	for modality, group := range byModality {
		matched := s.FilterRecipientsByModality(recipients, modality)
		if len(matched) == 0 {
			log.Printf("no recipients for modality %s, skipping %d eligible alerts", modality, len(group))
			continue
		}
		recipientIDs := make([]string, 0, len(matched))
		for _, r := range matched {
			recipientIDs = append(recipientIDs, r.ID)
		}

		for _, alert := range group {
			notification, err := s.CreateStudentEligibleNotification(ctx, alert, recipientIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to create eligibility notification for %s: %w", alert.StudentID, err)
			}
			built = append(built, *notification)
		}

		if len(group) >= bulkEligibleThreshold {
			notification, err := s.CreateBulkEligibleNotification(ctx, modality, group, recipientIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to create bulk notification for %s: %w", modality, err)
			}
			built = append(built, *notification)
		}
	}
	return built, nil
}

// GetPendingNotifications returns the undelivered notifications addressed to a user
func (s *GraduationNotificationService) GetPendingNotifications(ctx context.Context, userID string) ([]model.GraduationNotification, error) {
	return s.store.PendingFor(ctx, userID)
}

// MarkNotificationAsSent records the delivery time of a notification
func (s *GraduationNotificationService) MarkNotificationAsSent(ctx context.Context, id string) error {
	return s.store.MarkSent(ctx, id, s.now())
}

// GetNotificationStats aggregates notification counts for the given
// timeframe: "week", "month" (default), or "year".
func (s *GraduationNotificationService) GetNotificationStats(ctx context.Context, timeframe string) (*NotificationStats, error) {
	now := s.now()
	var since time.Time
	switch timeframe {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		since = now.AddDate(0, -1, 0)
	}

	notifications, err := s.store.CreatedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &NotificationStats{
		ByType: make(map[model.NotificationType]int),
	}
	for _, n := range notifications {
		stats.Total++
		if n.IsSent() {
			stats.Sent++
		} else {
			stats.Pending++
		}
		stats.ByType[n.Type]++
	}
	return stats, nil
}

// CleanupOldNotifications deletes notifications older than daysOld days and
// returns how many were removed.
func (s *GraduationNotificationService) CleanupOldNotifications(ctx context.Context, daysOld int) (int, error) {
	cutoff := s.now().AddDate(0, 0, -daysOld)
	return s.store.DeleteOlderThan(ctx, cutoff)
}

// FormatNotificationMessage renders a notification for a delivery channel.
// Push keeps the stored message, email expands the structured payload, and
// sms produces a compact single line.
func (s *GraduationNotificationService) FormatNotificationMessage(notification model.GraduationNotification, format model.NotificationFormat) string {
	switch format {
	case model.NotificationFormatPush:
		return notification.Message
	case model.NotificationFormatEmail:
		return s.formatEmail(notification)
	case model.NotificationFormatSMS:
		return s.formatSMS(notification)
	default:
		return notification.Message
	}
}

func (s *GraduationNotificationService) formatEmail(notification model.GraduationNotification) string {
	var b strings.Builder
	b.WriteString(notification.Title)
	b.WriteString("\n\n")
	b.WriteString(notification.Message)

	switch notification.Type {
	case model.NotificationTypeStudentEligible:
		var data model.StudentEligibleData
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			b.WriteString(fmt.Sprintf("\n\nStudent: %s\nModality: %s\nCurrent belt: %s\nNext belt: %s",
				data.StudentName, data.Modality, data.CurrentBelt, data.NextBelt))
		}
	case model.NotificationTypeExamReminder:
		var data model.ExamReminderData
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			b.WriteString(fmt.Sprintf("\n\nExam date: %s\nModality: %s\nCandidates: %d",
				data.ExamDate.Format("2006-01-02 15:04"), data.Modality, data.CandidateCount))
		}
	case model.NotificationTypeGraduationCompleted:
		var data model.GraduationCompletedData
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			b.WriteString(fmt.Sprintf("\n\nModality: %s\nApproved: %d of %d\nSuccess rate: %d%%",
				data.Modality, data.ApprovedCount, data.TotalCandidates, data.SuccessRate))
		}
	case model.NotificationTypeBulkEligible:
		var data model.BulkEligibleData
		if err := json.Unmarshal(notification.Data, &data); err == nil {
			b.WriteString("\n")
			for _, student := range data.Students {
				b.WriteString(fmt.Sprintf("\n- %s (%s -> %s)", student.Name, student.CurrentBelt, student.NextBelt))
			}
		}
	}
	return b.String()
}

func (s *GraduationNotificationService) formatSMS(notification model.GraduationNotification) string {
	return fmt.Sprintf("MyGym: %s", notification.Message)
}
