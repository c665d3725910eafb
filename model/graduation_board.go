package model

import (
	"time"
)

// GraduationResult is one promotion outcome extracted from a recently
// completed exam, shown on the graduation board.
type GraduationResult struct {
	StudentID string    `json:"student_id"`
	Passed    bool      `json:"passed"`
	Date      time.Time `json:"date"`
	Modality  string    `json:"modality"`
	NewBelt   string    `json:"new_belt,omitempty"`
}

// ModalityGraduationStats aggregates promotion readiness per modality
type ModalityGraduationStats struct {
	Modality            string     `json:"modality"`
	TotalStudents       int        `json:"total_students"`
	EligibleStudents    int        `json:"eligible_students"`
	NextExamDate        *time.Time `json:"next_exam_date,omitempty"`
	AverageTrainingTime int        `json:"average_training_time"` // days
}

// GraduationBoard is the dashboard aggregate. It is recomputed per request
// and never persisted.
type GraduationBoard struct {
	UpcomingExams     []GraduationExam          `json:"upcoming_exams"`
	EligibleStudents  []GraduationAlert         `json:"eligible_students"`
	RecentGraduations []GraduationResult        `json:"recent_graduations"`
	ModalityStats     []ModalityGraduationStats `json:"modality_stats"`
}
