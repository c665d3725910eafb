package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"mygym-server/model"
	"mygym-server/repository"
)

// recentGraduationWindow bounds how far back the board looks for completed exams
const recentGraduationWindow = 30 * 24 * time.Hour

// EligibilityCheck is the result of an on-demand eligibility query
type EligibilityCheck struct {
	IsEligible   bool                   `json:"is_eligible"`
	Alert        *model.GraduationAlert `json:"alert,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	Requirements []string               `json:"requirements,omitempty"`
}

// GraduationForecast estimates when a student reaches eligibility
type GraduationForecast struct {
	DaysRemaining int       `json:"days_remaining"`
	EstimatedDate time.Time `json:"estimated_date"`
	NextBelt      string    `json:"next_belt"`
}

// GraduationService orchestrates the calculator, the repository, and the
// notification pipeline.
type GraduationService struct {
	repo          repository.GraduationRepository
	calc          *GraduationCalculationService
	notifications *GraduationNotificationService
}

// NewGraduationService creates the orchestrating service
func NewGraduationService(repo repository.GraduationRepository, calc *GraduationCalculationService, notifications *GraduationNotificationService) *GraduationService {
	return &GraduationService{
		repo:          repo,
		calc:          calc,
		notifications: notifications,
	}
}

// UpdateAlerts recomputes alerts for all active students. See UpdateAlertsFor.
func (s *GraduationService) UpdateAlerts(ctx context.Context) ([]model.GraduationAlert, error) {
	students, err := s.repo.ListActiveStudents(ctx)
	if err != nil {
		return nil, domainErr("GraduationService.UpdateAlerts", "failed to load active students", err)
	}
	return s.UpdateAlertsFor(ctx, students)
}

// UpdateAlertsFor recomputes alerts for the given students and reconciles them
// against the stored set. Existing alerts keep their id, creation time and
// notification state. Stored alerts with no counterpart in the batch are left
// untouched; removing alerts is a cleanup concern outside this service.
func (s *GraduationService) UpdateAlertsFor(ctx context.Context, students []model.Student) ([]model.GraduationAlert, error) {
	const op = "GraduationService.UpdateAlertsFor"

	existing, err := s.repo.GetAlerts(ctx)
	if err != nil {
		return nil, domainErr(op, "failed to load current alerts", err)
	}

	existingByKey := make(map[string]model.GraduationAlert, len(existing))
	for _, alert := range existing {
		existingByKey[alert.StudentID+"|"+alert.Modality] = alert
	}

	computed := s.calc.CalculateBulkAlerts(students)
	result := make([]model.GraduationAlert, 0, len(computed))

	for _, alert := range computed {
		if prev, ok := existingByKey[alert.StudentID+"|"+alert.Modality]; ok {
			alert.ID = prev.ID
			alert.CreatedAt = prev.CreatedAt
			alert.Notified = prev.Notified
			alert.NotifiedAt = prev.NotifiedAt
			if err := s.repo.UpdateAlert(ctx, prev.ID, &alert); err != nil {
				return nil, domainErr(op, "failed to update alert for student "+alert.StudentID, err)
			}
		} else {
			if err := s.repo.CreateAlert(ctx, &alert); err != nil {
				return nil, domainErr(op, "failed to create alert for student "+alert.StudentID, err)
			}
		}
		result = append(result, alert)
	}

	return result, nil
}

// GetGraduationBoard assembles the dashboard aggregate. Upcoming exams and
// eligible alerts are required; recent graduations degrade to an empty list
// when the exam history cannot be read.
func (s *GraduationService) GetGraduationBoard(ctx context.Context) (*model.GraduationBoard, error) {
	const op = "GraduationService.GetGraduationBoard"

	var (
		wg       sync.WaitGroup
		upcoming []model.GraduationExam
		eligible []model.GraduationAlert
		recent   []model.GraduationResult
		upErr    error
		elErr    error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		upcoming, upErr = s.repo.GetUpcomingExams(ctx)
	}()
	go func() {
		defer wg.Done()
		eligible, elErr = s.repo.GetEligibleAlerts(ctx, "")
	}()
	go func() {
		defer wg.Done()
		var err error
		recent, err = s.recentGraduations(ctx)
		if err != nil {
			log.Printf("graduation board: recent graduations unavailable: %v", err)
			recent = []model.GraduationResult{}
		}
	}()
	wg.Wait()

	if upErr != nil {
		return nil, domainErr(op, "failed to load upcoming exams", upErr)
	}
	if elErr != nil {
		return nil, domainErr(op, "failed to load eligible students", elErr)
	}

	allAlerts, err := s.repo.GetAlerts(ctx)
	if err != nil {
		return nil, domainErr(op, "failed to load alerts for modality stats", err)
	}

	return &model.GraduationBoard{
		UpcomingExams:     upcoming,
		EligibleStudents:  eligible,
		RecentGraduations: recent,
		ModalityStats:     s.calc.CalculateModalityStats(allAlerts, upcoming),
	}, nil
}

// recentGraduations flattens the results of exams completed within the last
// 30 days, newest exam first, capped at 20 entries.
func (s *GraduationService) recentGraduations(ctx context.Context) ([]model.GraduationResult, error) {
	exams, err := s.repo.GetExams(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-recentGraduationWindow)
	completed := make([]model.GraduationExam, 0, len(exams))
	for _, exam := range exams {
		if exam.Status == model.ExamStatusCompleted && exam.UpdatedAt.After(cutoff) {
			completed = append(completed, exam)
		}
	}
	sort.Slice(completed, func(i, j int) bool {
		return completed[i].Date.After(completed[j].Date)
	})

	results := make([]model.GraduationResult, 0, 20)
	for _, exam := range completed {
		for _, r := range exam.Results {
			if len(results) == 20 {
				return results, nil
			}
			results = append(results, model.GraduationResult{
				StudentID: r.StudentID,
				Passed:    r.Passed,
				Date:      exam.Date,
				Modality:  exam.Modality,
				NewBelt:   r.NewBelt,
			})
		}
	}
	return results, nil
}

// GetEligibleStudents returns the eligible alerts, optionally for one modality
func (s *GraduationService) GetEligibleStudents(ctx context.Context, modality string) ([]model.GraduationAlert, error) {
	alerts, err := s.repo.GetEligibleAlerts(ctx, modality)
	if err != nil {
		return nil, domainErr("GraduationService.GetEligibleStudents", "failed to load eligible alerts", err)
	}
	return alerts, nil
}

// ScheduleExam persists a new exam in scheduled state with no results
func (s *GraduationService) ScheduleExam(ctx context.Context, exam *model.GraduationExam) error {
	exam.Status = model.ExamStatusScheduled
	exam.Results = nil
	if err := s.repo.CreateExam(ctx, exam); err != nil {
		return domainErr("GraduationService.ScheduleExam", "failed to schedule exam", err)
	}
	return nil
}

// GetUpcomingExams returns the next scheduled exams, optionally filtered by modality
func (s *GraduationService) GetUpcomingExams(ctx context.Context, modality string) ([]model.GraduationExam, error) {
	exams, err := s.repo.GetUpcomingExams(ctx)
	if err != nil {
		return nil, domainErr("GraduationService.GetUpcomingExams", "failed to load upcoming exams", err)
	}
	if modality == "" {
		return exams, nil
	}
	filtered := make([]model.GraduationExam, 0, len(exams))
	for _, exam := range exams {
		if exam.Modality == modality {
			filtered = append(filtered, exam)
		}
	}
	return filtered, nil
}

// RecordExamResults marks an exam completed and attaches the candidate
// results exactly as submitted.
func (s *GraduationService) RecordExamResults(ctx context.Context, examID string, results []model.ExamResult) (*model.GraduationExam, error) {
	const op = "GraduationService.RecordExamResults"

	exam, err := s.repo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, domainErr(op, "failed to load exam", err)
	}
	if exam.Status.IsTerminal() {
		return nil, domainErr(op, "exam already "+string(exam.Status), nil)
	}

	updates := map[string]interface{}{
		"status":  model.ExamStatusCompleted,
		"results": datatypes.NewJSONSlice(results),
	}
	if err := s.repo.UpdateExam(ctx, examID, updates); err != nil {
		return nil, domainErr(op, "failed to record exam results", err)
	}

	exam.Status = model.ExamStatusCompleted
	exam.Results = results

	// Announce the outcome; a delivery problem must not fail the recording
	if recipients, err := s.repo.ListRecipients(ctx); err == nil {
		matched := s.notifications.FilterRecipientsByModality(recipients, exam.Modality)
		if len(matched) > 0 {
			ids := make([]string, 0, len(matched))
			for _, r := range matched {
				ids = append(ids, r.ID)
			}
			if _, err := s.notifications.CreateGraduationCompletedNotification(ctx, *exam, ids); err != nil {
				log.Printf("record exam results: completion notification failed for %s: %v", examID, err)
			}
		}
	} else {
		log.Printf("record exam results: recipients unavailable for %s: %v", examID, err)
	}

	return exam, nil
}

// ProcessNotifications builds notifications for eligible alerts that have
// not been announced yet and marks the announced alerts as notified.
func (s *GraduationService) ProcessNotifications(ctx context.Context) ([]model.GraduationNotification, error) {
	const op = "GraduationService.ProcessNotifications"

	alerts, err := s.repo.GetUnnotifiedAlerts(ctx)
	if err != nil {
		return nil, domainErr(op, "failed to load unnotified alerts", err)
	}
	if len(alerts) == 0 {
		return nil, nil
	}

	recipients, err := s.repo.ListRecipients(ctx)
	if err != nil {
		return nil, domainErr(op, "failed to load recipients", err)
	}

	built, err := s.notifications.ScheduleAutomaticNotifications(ctx, alerts, recipients)
	if err != nil {
		return nil, domainErr(op, "failed to build notifications", err)
	}

	// Every fetched alert counts as processed, including alerts in modalities
	// with nobody to notify; otherwise those would be picked up again on every
	// run.
	now := time.Now()
	for _, alert := range alerts {
		if err := s.repo.MarkAlertNotified(ctx, alert.ID, now); err != nil {
			return nil, domainErr(op, "failed to mark alert "+alert.ID+" notified", err)
		}
	}

	return built, nil
}

// CheckStudentEligibility evaluates one student on demand and explains the
// outcome when no alert is produced.
func (s *GraduationService) CheckStudentEligibility(student model.Student) *EligibilityCheck {
	rule, ok := s.calc.Rule(student.Modality, student.CurrentBelt)
	if !ok {
		return &EligibilityCheck{
			Reason: "no promotion rule defined for this modality and belt",
		}
	}

	check := &EligibilityCheck{
		Requirements: rule.AdditionalRequirements,
	}
	alert := s.calc.CalculateAlert(student)
	if alert == nil {
		check.Reason = "minimum class count not yet reached"
		return check
	}

	check.IsEligible = alert.IsEligible
	check.Alert = alert
	if !alert.IsEligible {
		check.Reason = "minimum training time not yet reached"
	}
	return check
}

// CalculateTimeToNextGraduation forecasts when a student becomes eligible.
// It returns nil when no rule applies.
func (s *GraduationService) CalculateTimeToNextGraduation(student model.Student) *GraduationForecast {
	alert := s.calc.CalculateAlert(student)
	if alert == nil {
		return nil
	}
	return &GraduationForecast{
		DaysRemaining: alert.DaysUntilEligible,
		EstimatedDate: alert.EstimatedGraduationDate,
		NextBelt:      alert.NextBelt,
	}
}

// GetGraduationRules returns the rule table, optionally for one modality
func (s *GraduationService) GetGraduationRules(ctx context.Context, modality string) ([]model.GraduationRule, error) {
	const op = "GraduationService.GetGraduationRules"
	if modality == "" {
		rules, err := s.repo.GetRules(ctx)
		if err != nil {
			return nil, domainErr(op, "failed to load rules", err)
		}
		return rules, nil
	}
	rules, err := s.repo.GetRulesByModality(ctx, modality)
	if err != nil {
		return nil, domainErr(op, "failed to load rules for "+modality, err)
	}
	return rules, nil
}
