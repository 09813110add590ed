package repository

import (
	"context"
	"fmt"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListUnread(ctx context.Context) ([]domain.Notification, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type repo struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repo) ListUnread(ctx context.Context) ([]domain.Notification, error) {
	var list []domain.Notification
	err := r.db.WithContext(ctx).Where("is_read = ?", false).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *repo) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// MarkRead returns domain.ErrNotFound when no notification has the id
func (r *repo) MarkRead(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *repo) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("is_read = ?", false).Update("is_read", true)
	return result.RowsAffected, result.Error
}
