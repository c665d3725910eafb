package model

import (
	"github.com/lib/pq"
)

// RecipientRole represents the staff role of a notification recipient
type RecipientRole string

const (
	RecipientRoleInstructor RecipientRole = "instructor"
	RecipientRoleAdmin      RecipientRole = "admin"
)

// IsValid reports whether the role is one of the known values
func (r RecipientRole) IsValid() bool {
	switch r {
	case RecipientRoleInstructor, RecipientRoleAdmin:
		return true
	default:
		return false
	}
}

// NotificationRecipient is a staff member who can receive graduation
// notifications. Identity data is owned by the membership system; the
// engine only reads it.
type NotificationRecipient struct {
	ID         string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Email      string         `gorm:"type:varchar(255);not null" json:"email"`
	Role       RecipientRole  `gorm:"type:varchar(12);not null" json:"role"`
	Modalities pq.StringArray `gorm:"type:text[]" json:"modalities,omitempty"`
}

// TableName specifies the table name for NotificationRecipient
func (NotificationRecipient) TableName() string {
	return "notification_recipients"
}

// TeachesModality reports whether an instructor covers the given modality
func (r *NotificationRecipient) TeachesModality(modality string) bool {
	for _, m := range r.Modalities {
		if m == modality {
			return true
		}
	}
	return false
}
