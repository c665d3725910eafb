package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mygym-server/model"
)

// GormGraduationRepository implements GraduationRepository on PostgreSQL
type GormGraduationRepository struct {
	db *gorm.DB
}

var _ GraduationRepository = (*GormGraduationRepository)(nil)

// NewGormGraduationRepository creates a new GORM-backed repository
func NewGormGraduationRepository(db *gorm.DB) *GormGraduationRepository {
	return &GormGraduationRepository{db: db}
}

// GetAlerts retrieves all graduation alerts
func (r *GormGraduationRepository) GetAlerts(ctx context.Context) ([]model.GraduationAlert, error) {
	var alerts []model.GraduationAlert
	if err := r.db.WithContext(ctx).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	return alerts, nil
}

// GetAlertsByStudent retrieves the alerts of one student
func (r *GormGraduationRepository) GetAlertsByStudent(ctx context.Context, studentID string) ([]model.GraduationAlert, error) {
	var alerts []model.GraduationAlert
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get alerts for student %s: %w", studentID, err)
	}
	return alerts, nil
}

// GetAlertsByModality retrieves the alerts of one modality
func (r *GormGraduationRepository) GetAlertsByModality(ctx context.Context, modality string) ([]model.GraduationAlert, error) {
	var alerts []model.GraduationAlert
	if err := r.db.WithContext(ctx).Where("modality = ?", modality).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get alerts for modality %s: %w", modality, err)
	}
	return alerts, nil
}

// GetEligibleAlerts retrieves eligible alerts, optionally scoped to a modality
func (r *GormGraduationRepository) GetEligibleAlerts(ctx context.Context, modality string) ([]model.GraduationAlert, error) {
	var alerts []model.GraduationAlert
	query := r.db.WithContext(ctx).Where("is_eligible = ?", true)
	if modality != "" {
		query = query.Where("modality = ?", modality)
	}
	if err := query.Order("days_until_eligible ASC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get eligible alerts: %w", err)
	}
	return alerts, nil
}

// GetUnnotifiedAlerts retrieves eligible alerts that have not been notified yet
func (r *GormGraduationRepository) GetUnnotifiedAlerts(ctx context.Context) ([]model.GraduationAlert, error) {
	var alerts []model.GraduationAlert
	if err := r.db.WithContext(ctx).
		Where("is_eligible = ? AND notified = ?", true, false).
		Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get unnotified alerts: %w", err)
	}
	return alerts, nil
}

// CreateAlert persists a new graduation alert
func (r *GormGraduationRepository) CreateAlert(ctx context.Context, alert *model.GraduationAlert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// UpdateAlert replaces the mutable fields of an alert, keeping its identity
func (r *GormGraduationRepository) UpdateAlert(ctx context.Context, id string, alert *model.GraduationAlert) error {
	result := r.db.WithContext(ctx).
		Model(&model.GraduationAlert{}).
		Where("id = ?", id).
		Omit("id", "created_at").
		Updates(map[string]interface{}{
			"student_name":              alert.StudentName,
			"current_belt":              alert.CurrentBelt,
			"next_belt":                 alert.NextBelt,
			"training_start_date":       alert.TrainingStartDate,
			"minimum_training_days":     alert.MinimumTrainingDays,
			"estimated_graduation_date": alert.EstimatedGraduationDate,
			"days_until_eligible":       alert.DaysUntilEligible,
			"is_eligible":               alert.IsEligible,
			"alert_level":               alert.AlertLevel,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update alert %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAlert removes an alert by id
func (r *GormGraduationRepository) DeleteAlert(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.GraduationAlert{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete alert %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAlertNotified flags an alert as having triggered a notification
func (r *GormGraduationRepository) MarkAlertNotified(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.GraduationAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"notified": true, "notified_at": at})
	if result.Error != nil {
		return fmt.Errorf("failed to mark alert %s notified: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRules retrieves all promotion rules
func (r *GormGraduationRepository) GetRules(ctx context.Context) ([]model.GraduationRule, error) {
	var rules []model.GraduationRule
	if err := r.db.WithContext(ctx).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	return rules, nil
}

// GetRulesByModality retrieves the promotion rules of one modality
func (r *GormGraduationRepository) GetRulesByModality(ctx context.Context, modality string) ([]model.GraduationRule, error) {
	var rules []model.GraduationRule
	if err := r.db.WithContext(ctx).Where("modality = ?", modality).Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to get rules for modality %s: %w", modality, err)
	}
	return rules, nil
}

// CreateRule persists a new promotion rule
func (r *GormGraduationRepository) CreateRule(ctx context.Context, rule *model.GraduationRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// UpdateRule updates the rule identified by modality, source belt and target belt
func (r *GormGraduationRepository) UpdateRule(ctx context.Context, modality, fromBelt, toBelt string, rule *model.GraduationRule) error {
	result := r.db.WithContext(ctx).
		Model(&model.GraduationRule{}).
		Where("modality = ? AND from_belt = ? AND to_belt = ?", modality, fromBelt, toBelt).
		Updates(map[string]interface{}{
			"minimum_days":            rule.MinimumDays,
			"minimum_classes":         rule.MinimumClasses,
			"additional_requirements": rule.AdditionalRequirements,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update rule %s/%s/%s: %w", modality, fromBelt, toBelt, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRule removes the rule identified by modality, source belt and target belt
func (r *GormGraduationRepository) DeleteRule(ctx context.Context, modality, fromBelt, toBelt string) error {
	result := r.db.WithContext(ctx).
		Delete(&model.GraduationRule{}, "modality = ? AND from_belt = ? AND to_belt = ?", modality, fromBelt, toBelt)
	if result.Error != nil {
		return fmt.Errorf("failed to delete rule %s/%s/%s: %w", modality, fromBelt, toBelt, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetExams retrieves all exams
func (r *GormGraduationRepository) GetExams(ctx context.Context) ([]model.GraduationExam, error) {
	var exams []model.GraduationExam
	if err := r.db.WithContext(ctx).Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to get exams: %w", err)
	}
	return exams, nil
}

// GetExamsByModality retrieves the exams of one modality
func (r *GormGraduationRepository) GetExamsByModality(ctx context.Context, modality string) ([]model.GraduationExam, error) {
	var exams []model.GraduationExam
	if err := r.db.WithContext(ctx).Where("modality = ?", modality).Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to get exams for modality %s: %w", modality, err)
	}
	return exams, nil
}

// GetUpcomingExams retrieves the next scheduled exams in chronological order
func (r *GormGraduationRepository) GetUpcomingExams(ctx context.Context) ([]model.GraduationExam, error) {
	var exams []model.GraduationExam
	if err := r.db.WithContext(ctx).
		Where("status = ? AND date >= ?", model.ExamStatusScheduled, time.Now()).
		Order("date ASC").
		Limit(10).
		Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to get upcoming exams: %w", err)
	}
	return exams, nil
}

// GetExamByID retrieves a single exam
func (r *GormGraduationRepository) GetExamByID(ctx context.Context, id string) (*model.GraduationExam, error) {
	var exam model.GraduationExam
	if err := r.db.WithContext(ctx).First(&exam, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get exam %s: %w", id, err)
	}
	return &exam, nil
}

// CreateExam persists a new exam
func (r *GormGraduationRepository) CreateExam(ctx context.Context, exam *model.GraduationExam) error {
	if err := r.db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

// UpdateExam applies a partial update to an exam
func (r *GormGraduationRepository) UpdateExam(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.GraduationExam{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update exam %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExam removes an exam by id
func (r *GormGraduationRepository) DeleteExam(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.GraduationExam{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveStudents retrieves students still training
func (r *GormGraduationRepository) ListActiveStudents(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list active students: %w", err)
	}
	return students, nil
}

// ListRecipients retrieves the staff members who can receive notifications
func (r *GormGraduationRepository) ListRecipients(ctx context.Context) ([]model.NotificationRecipient, error) {
	var recipients []model.NotificationRecipient
	if err := r.db.WithContext(ctx).Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return recipients, nil
}
