package domain

import (
	"fmt"
	"time"
)

// Notification is an operator-facing alert stored for later review.
type Notification struct {
	ID            int       `gorm:"primaryKey" json:"id"`
	ReservationID *int      `gorm:"index" json:"reservation_id,omitempty"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	IsRead        bool      `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// NewReservationNotification announces a freshly created reservation.
func NewReservationNotification(r *Reservation, now time.Time) *Notification {
	name := "Customer"
	if r.CustomerName != nil && *r.CustomerName != "" {
		name = *r.CustomerName
	}
	id := r.ID
	return &Notification{
		ReservationID: &id,
		Message:       fmt.Sprintf("New reservation from %s via %s", name, r.Platform),
		CreatedAt:     now,
	}
}
