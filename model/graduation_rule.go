package model

import (
	"time"

	"github.com/lib/pq"
)

// GraduationRule defines the requirements to move from one belt to the next
// within a modality. Rules are reference data: the engine consults them but
// never mutates them outside the rule management endpoints.
type GraduationRule struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	Modality               string         `gorm:"type:varchar(50);not null;index:idx_rules_modality_from_belt,priority:1" json:"modality"`
	FromBelt               string         `gorm:"type:varchar(50);not null;index:idx_rules_modality_from_belt,priority:2" json:"from_belt"`
	ToBelt                 string         `gorm:"type:varchar(50);not null" json:"to_belt"`
	MinimumDays            int            `gorm:"not null" json:"minimum_days"`
	MinimumClasses         *int           `json:"minimum_classes,omitempty"`
	AdditionalRequirements pq.StringArray `gorm:"type:text[]" json:"additional_requirements,omitempty"`
}

// TableName specifies the table name for GraduationRule
func (GraduationRule) TableName() string {
	return "graduation_rules"
}

// Matches reports whether this rule applies to the given modality and belt.
func (r *GraduationRule) Matches(modality, fromBelt string) bool {
	return r.Modality == modality && r.FromBelt == fromBelt
}
