package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"mygym-server/model"
)

// NotificationStore holds built notifications until they are delivered.
// The in-memory implementation backs tests and single-process deployments;
// the GORM implementation is the production store.
type NotificationStore interface {
	Add(ctx context.Context, notification *model.GraduationNotification) error
	PendingFor(ctx context.Context, userID string) ([]model.GraduationNotification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	CreatedSince(ctx context.Context, since time.Time) ([]model.GraduationNotification, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryNotificationStore keeps notifications in process memory
type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications []model.GraduationNotification
}

// NewMemoryNotificationStore creates an empty in-memory store
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

func (s *MemoryNotificationStore) Add(_ context.Context, notification *model.GraduationNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *notification)
	return nil
}

func (s *MemoryNotificationStore) PendingFor(_ context.Context, userID string) ([]model.GraduationNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []model.GraduationNotification
	for _, n := range s.notifications {
		if n.SentAt != nil {
			continue
		}
		for _, r := range n.Recipients {
			if r == userID {
				pending = append(pending, n)
				break
			}
		}
	}
	return pending, nil
}

// MarkSent records the send time. Unknown ids are a no-op.
func (s *MemoryNotificationStore) MarkSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			sentAt := at
			s.notifications[i].SentAt = &sentAt
			return nil
		}
	}
	return nil
}

func (s *MemoryNotificationStore) CreatedSince(_ context.Context, since time.Time) ([]model.GraduationNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.GraduationNotification
	for _, n := range s.notifications {
		if !n.CreatedAt.Before(since) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (s *MemoryNotificationStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	removed := 0
	for _, n := range s.notifications {
		if n.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return removed, nil
}

// GormNotificationStore persists notifications to PostgreSQL
type GormNotificationStore struct {
	db *gorm.DB
}

// NewGormNotificationStore creates a database-backed notification store
func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db}
}

func (s *GormNotificationStore) Add(ctx context.Context, notification *model.GraduationNotification) error {
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (s *GormNotificationStore) PendingFor(ctx context.Context, userID string) ([]model.GraduationNotification, error) {
	var notifications []model.GraduationNotification
	if err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND ? = ANY(recipients)", userID).
		Order("created_at ASC").
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending notifications for %s: %w", userID, err)
	}
	return notifications, nil
}

func (s *GormNotificationStore) MarkSent(ctx context.Context, id string, at time.Time) error {
	if err := s.db.WithContext(ctx).
		Model(&model.GraduationNotification{}).
		Where("id = ?", id).
		Update("sent_at", at).Error; err != nil {
		return fmt.Errorf("failed to mark notification %s sent: %w", id, err)
	}
	return nil
}

func (s *GormNotificationStore) CreatedSince(ctx context.Context, since time.Time) ([]model.GraduationNotification, error) {
	var notifications []model.GraduationNotification
	if err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to get notifications since %s: %w", since.Format(time.RFC3339), err)
	}
	return notifications, nil
}

func (s *GormNotificationStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.GraduationNotification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}
