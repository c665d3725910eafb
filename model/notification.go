package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// NotificationType represents the kind of graduation notification
type NotificationType string

const (
	NotificationTypeStudentEligible     NotificationType = "student_eligible"
	NotificationTypeExamReminder        NotificationType = "exam_reminder"
	NotificationTypeGraduationCompleted NotificationType = "graduation_completed"
	NotificationTypeBulkEligible        NotificationType = "bulk_eligible"
)

// IsValid reports whether the notification type is one of the known values
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeStudentEligible, NotificationTypeExamReminder,
		NotificationTypeGraduationCompleted, NotificationTypeBulkEligible:
		return true
	default:
		return false
	}
}

// NotificationFormat represents a delivery channel rendering
type NotificationFormat string

const (
	NotificationFormatPush  NotificationFormat = "push"
	NotificationFormatEmail NotificationFormat = "email"
	NotificationFormatSMS   NotificationFormat = "sms"
)

// GraduationNotification is a message built for one or more staff members.
// It is mutated only once after creation, to record the send time.
type GraduationNotification struct {
	ID         string           `gorm:"type:varchar(120);primaryKey" json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Type       NotificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	Title      string           `gorm:"type:varchar(255);not null" json:"title"`
	Message    string           `gorm:"type:text;not null" json:"message"`
	Recipients pq.StringArray   `gorm:"type:text[]" json:"recipients"`
	Data       datatypes.JSON   `gorm:"type:jsonb" json:"data,omitempty"`
	Scheduled  bool             `gorm:"default:false" json:"scheduled"`
	SentAt     *time.Time       `gorm:"index" json:"sent_at,omitempty"`
}

// TableName specifies the table name for GraduationNotification
func (GraduationNotification) TableName() string {
	return "graduation_notifications"
}

// IsSent reports whether the notification has been delivered
func (n *GraduationNotification) IsSent() bool {
	return n.SentAt != nil
}

// StudentEligibleData is the structured payload of a student_eligible notification
type StudentEligibleData struct {
	AlertID     string `json:"alert_id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Modality    string `json:"modality"`
	CurrentBelt string `json:"current_belt"`
	NextBelt    string `json:"next_belt"`
}

// ExamReminderData is the structured payload of an exam_reminder notification
type ExamReminderData struct {
	ExamID         string    `json:"exam_id"`
	ExamDate       time.Time `json:"exam_date"`
	Modality       string    `json:"modality"`
	CandidateCount int       `json:"candidate_count"`
	DaysUntilExam  int       `json:"days_until_exam"`
}

// GraduationCompletedData is the structured payload of a graduation_completed notification
type GraduationCompletedData struct {
	ExamID          string `json:"exam_id"`
	Modality        string `json:"modality"`
	ApprovedCount   int    `json:"approved_count"`
	TotalCandidates int    `json:"total_candidates"`
	SuccessRate     int    `json:"success_rate"` // 0-100
}

// EligibleStudentSummary is one entry of a bulk_eligible payload
type EligibleStudentSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CurrentBelt string `json:"current_belt"`
	NextBelt    string `json:"next_belt"`
}

// BulkEligibleData is the structured payload of a bulk_eligible notification
type BulkEligibleData struct {
	Modality      string                   `json:"modality"`
	EligibleCount int                      `json:"eligible_count"`
	Students      []EligibleStudentSummary `json:"students"`
}
