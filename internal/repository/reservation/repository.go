package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	Get(ctx context.Context, id int) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, r *domain.Reservation, status domain.ReservationStatus, at time.Time) error
	ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)
}

type repo struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, res *domain.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// Get returns domain.ErrNotFound when no reservation has the id
func (r *repo) Get(ctx context.Context, id int) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reservation %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateStatus moves res to status only if its stored status is still the one
// res was loaded with, so two concurrent operator actions cannot both win.
func (r *repo) UpdateStatus(ctx context.Context, res *domain.Reservation, status domain.ReservationStatus, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ? AND status = ?", res.ID, res.Status).
		Updates(map[string]any{"status": status, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("reservation %d is no longer %s: %w", res.ID, res.Status, domain.ErrInvalidTransition)
	}

	res.Status = status
	res.UpdatedAt = at
	return nil
}

// ListByStatus orders pending reservations by creation and decided ones by their last update, newest first
func (r *repo) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	order := "created_at DESC, id DESC"
	if status.IsTerminal() {
		order = "updated_at DESC, id DESC"
	}

	var list []domain.Reservation
	err := r.db.WithContext(ctx).Where("status = ?", status).Order(order).Find(&list).Error
	return list, err
}

func (r *repo) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	var list []domain.Reservation
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}
