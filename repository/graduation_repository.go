package repository

import (
	"context"
	"errors"
	"time"

	"mygym-server/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// GraduationRepository is the persistence boundary of the graduation engine.
// All methods take a context and return explicit errors; callers wrap them
// into domain errors.
type GraduationRepository interface {
	// Alerts
	GetAlerts(ctx context.Context) ([]model.GraduationAlert, error)
	GetAlertsByStudent(ctx context.Context, studentID string) ([]model.GraduationAlert, error)
	GetAlertsByModality(ctx context.Context, modality string) ([]model.GraduationAlert, error)
	GetEligibleAlerts(ctx context.Context, modality string) ([]model.GraduationAlert, error)
	GetUnnotifiedAlerts(ctx context.Context) ([]model.GraduationAlert, error)
	CreateAlert(ctx context.Context, alert *model.GraduationAlert) error
	UpdateAlert(ctx context.Context, id string, alert *model.GraduationAlert) error
	DeleteAlert(ctx context.Context, id string) error
	MarkAlertNotified(ctx context.Context, id string, at time.Time) error

	// Rules
	GetRules(ctx context.Context) ([]model.GraduationRule, error)
	GetRulesByModality(ctx context.Context, modality string) ([]model.GraduationRule, error)
	CreateRule(ctx context.Context, rule *model.GraduationRule) error
	UpdateRule(ctx context.Context, modality, fromBelt, toBelt string, rule *model.GraduationRule) error
	DeleteRule(ctx context.Context, modality, fromBelt, toBelt string) error

	// Exams
	GetExams(ctx context.Context) ([]model.GraduationExam, error)
	GetExamsByModality(ctx context.Context, modality string) ([]model.GraduationExam, error)
	GetUpcomingExams(ctx context.Context) ([]model.GraduationExam, error)
	GetExamByID(ctx context.Context, id string) (*model.GraduationExam, error)
	CreateExam(ctx context.Context, exam *model.GraduationExam) error
	UpdateExam(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteExam(ctx context.Context, id string) error

	// Reference data owned by the membership system
	ListActiveStudents(ctx context.Context) ([]model.Student, error)
	ListRecipients(ctx context.Context) ([]model.NotificationRecipient, error)
}
