package model

import (
	"time"
)

// AlertLevel represents how urgent a graduation alert is
type AlertLevel string

const (
	AlertLevelInfo    AlertLevel = "info"    // eligibility is more than 30 days away
	AlertLevelWarning AlertLevel = "warning" // eligibility within 30 days
	AlertLevelReady   AlertLevel = "ready"   // minimum training time satisfied
)

// IsValid reports whether the alert level is one of the known values
func (l AlertLevel) IsValid() bool {
	switch l {
	case AlertLevelInfo, AlertLevelWarning, AlertLevelReady:
		return true
	default:
		return false
	}
}

// GraduationAlert records a student's promotion status for one modality.
// At most one alert exists per (student, modality); the composite unique
// index backs the reconciliation done in the graduation service.
type GraduationAlert struct {
	ID                      string     `gorm:"type:varchar(120);primaryKey" json:"id"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	StudentID               string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_alerts_student_modality,priority:1" json:"student_id"`
	StudentName             string     `gorm:"type:varchar(255);not null" json:"student_name"`
	CurrentBelt             string     `gorm:"type:varchar(50);not null" json:"current_belt"`
	NextBelt                string     `gorm:"type:varchar(50);not null" json:"next_belt"`
	Modality                string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_alerts_student_modality,priority:2;index" json:"modality"`
	TrainingStartDate       time.Time  `gorm:"not null" json:"training_start_date"`
	MinimumTrainingDays     int        `gorm:"not null" json:"minimum_training_days"`
	EstimatedGraduationDate time.Time  `gorm:"not null" json:"estimated_graduation_date"`
	DaysUntilEligible       int        `json:"days_until_eligible"`
	IsEligible              bool       `gorm:"index" json:"is_eligible"`
	AlertLevel              AlertLevel `gorm:"type:varchar(10);not null" json:"alert_level"`
	Notified                bool       `gorm:"default:false;index" json:"notified"`
	NotifiedAt              *time.Time `json:"notified_at,omitempty"`
}

// TableName specifies the table name for GraduationAlert
func (GraduationAlert) TableName() string {
	return "graduation_alerts"
}
