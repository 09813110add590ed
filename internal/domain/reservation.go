package domain

import (
	"time"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusRejected  ReservationStatus = "rejected"
)

// IsTerminal reports whether no further transition may leave this status.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

type Reservation struct {
	ID           int               `gorm:"primaryKey" json:"id"`
	Platform     Platform          `gorm:"type:varchar(20);not null;index" json:"platform"`
	CustomerID   string            `gorm:"type:varchar(255);not null;index" json:"customer_id"`
	CustomerName *string           `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	Date         *time.Time        `gorm:"column:reservation_date;type:date" json:"date,omitempty"`
	Time         *string           `gorm:"column:reservation_time;type:varchar(10)" json:"time,omitempty"`
	PartySize    *int              `json:"party_size,omitempty"`
	Notes        string            `gorm:"type:text" json:"notes"`
	Status       ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// NewPendingReservation creates the single record that tracks a reservation request.
func NewPendingReservation(msg InboundMessage, entities ExtractedEntities, now time.Time) *Reservation {
	return &Reservation{
		Platform:     msg.Platform,
		CustomerID:   msg.CustomerID,
		CustomerName: msg.CustomerName,
		Date:         entities.Date,
		Time:         entities.Time,
		PartySize:    entities.PartySize,
		Notes:        msg.Text,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
