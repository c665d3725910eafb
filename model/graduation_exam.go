package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamStatus represents the lifecycle state of a graduation exam
type ExamStatus string

const (
	ExamStatusScheduled ExamStatus = "scheduled"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// IsValid reports whether the exam status is one of the known values
func (s ExamStatus) IsValid() bool {
	switch s {
	case ExamStatusScheduled, ExamStatusCompleted, ExamStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the exam can no longer change state
func (s ExamStatus) IsTerminal() bool {
	return s == ExamStatusCompleted || s == ExamStatusCancelled
}

// ExamResult is one candidate's outcome in a completed exam. Results are
// immutable once attached to the exam.
type ExamResult struct {
	StudentID string   `json:"student_id"`
	Passed    bool     `json:"passed"`
	NewBelt   string   `json:"new_belt,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

// GraduationExam represents a scheduled or completed promotion exam
type GraduationExam struct {
	ID                string                          `gorm:"type:varchar(64);primaryKey" json:"id"`
	CreatedAt         time.Time                       `json:"created_at"`
	UpdatedAt         time.Time                       `json:"updated_at"`
	Date              time.Time                       `gorm:"not null;index" json:"date"`
	Modality          string                          `gorm:"type:varchar(50);not null;index" json:"modality"`
	Examiner          string                          `gorm:"type:varchar(255);not null" json:"examiner"`
	Location          string                          `gorm:"type:varchar(255)" json:"location"`
	CandidateStudents pq.StringArray                  `gorm:"type:text[]" json:"candidate_students"`
	Status            ExamStatus                      `gorm:"type:varchar(12);default:'scheduled';index" json:"status"`
	Results           datatypes.JSONSlice[ExamResult] `json:"results,omitempty"`
}

// TableName specifies the table name for GraduationExam
func (GraduationExam) TableName() string {
	return "graduation_exams"
}

// BeforeCreate assigns an ID when the caller did not provide one
func (e *GraduationExam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ApprovedCount returns how many candidates passed
func (e *GraduationExam) ApprovedCount() int {
	count := 0
	for _, r := range e.Results {
		if r.Passed {
			count++
		}
	}
	return count
}
