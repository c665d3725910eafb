package model

import (
	"time"
)

// Student carries the training data the eligibility calculator consumes.
// The membership system owns student records; the engine reads the few
// fields relevant to belt progression.
type Student struct {
	ID                string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name              string    `gorm:"type:varchar(255);not null" json:"name"`
	CurrentBelt       string    `gorm:"type:varchar(50);not null" json:"current_belt"`
	Modality          string    `gorm:"type:varchar(50);not null;index" json:"modality"`
	TrainingStartDate time.Time `gorm:"not null" json:"training_start_date"`
	TotalClasses      *int      `json:"total_classes,omitempty"`
	Active            bool      `gorm:"default:true;index" json:"active"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}
