package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/metrics"
	notificationRepo "github.com/aniladanir/reservation-intake-service/internal/repository/notification"
	reservationRepo "github.com/aniladanir/reservation-intake-service/internal/repository/reservation"
)

// ReservationWorkflow owns the reservation state machine:
// pending -> confirmed and pending -> rejected.
type ReservationWorkflow interface {
	CreateReservation(ctx context.Context, msg domain.InboundMessage, entities domain.ExtractedEntities) (*domain.Reservation, error)
	Transition(ctx context.Context, id int, status domain.ReservationStatus) (*domain.Reservation, error)
	Confirm(ctx context.Context, id int) (*domain.Reservation, error)
	Reject(ctx context.Context, id int) (*domain.Reservation, error)
	ListPending(ctx context.Context) ([]domain.Reservation, error)
	ListConfirmed(ctx context.Context) ([]domain.Reservation, error)
	ListRejected(ctx context.Context) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)

	UnreadNotifications(ctx context.Context) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkNotificationRead(ctx context.Context, id int) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
}

type workflow struct {
	reservations  reservationRepo.Repository
	notifications notificationRepo.Repository
	logger        *slog.Logger
	now           func() time.Time
}

func NewReservationWorkflow(reservations reservationRepo.Repository, notifications notificationRepo.Repository, logger *slog.Logger, now func() time.Time) ReservationWorkflow {
	if now == nil {
		now = time.Now
	}
	return &workflow{
		reservations:  reservations,
		notifications: notifications,
		logger:        logger,
		now:           now,
	}
}

// CreateReservation stores a pending reservation and announces it to the operator.
// A failed notification is logged; the reservation stands.
func (w *workflow) CreateReservation(ctx context.Context, msg domain.InboundMessage, entities domain.ExtractedEntities) (*domain.Reservation, error) {
	now := w.now().UTC()
	res := domain.NewPendingReservation(msg, entities, now)
	if err := w.reservations.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	resLogger := w.logger.With(slog.Int("reservationId", res.ID))
	resLogger.Info("reservation created",
		"platform", res.Platform,
		"customerId", res.CustomerID,
		"partySize", deref(res.PartySize),
		"time", deref(res.Time))

	if err := w.notifications.Create(ctx, domain.NewReservationNotification(res, now)); err != nil {
		resLogger.Error("failed to create reservation notification", "error", err.Error())
	}

	return res, nil
}

// Transition moves a reservation to status. Repeating the current status is a
// no-op; decided reservations never change again and nothing goes back to pending.
func (w *workflow) Transition(ctx context.Context, id int, status domain.ReservationStatus) (*domain.Reservation, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("reservation %d to %q: %w", id, status, domain.ErrInvalidTransition)
	}

	res, err := w.reservations.Get(ctx, id)
	if err != nil {
		w.logger.Warn("reservation transition failed", "reservationId", id, "error", err.Error())
		return nil, err
	}

	if res.Status == status {
		return res, nil
	}
	if res.Status.IsTerminal() {
		return nil, fmt.Errorf("reservation %d is already %s: %w", id, res.Status, domain.ErrInvalidTransition)
	}

	from := res.Status
	if err := w.reservations.UpdateStatus(ctx, res, status, w.now().UTC()); err != nil {
		return nil, fmt.Errorf("update reservation %d: %w", id, err)
	}

	metrics.ReservationTransitions.WithLabelValues(string(status)).Inc()
	w.logger.Info("reservation updated", "reservationId", id, "from", from, "to", status)

	return res, nil
}

func (w *workflow) Confirm(ctx context.Context, id int) (*domain.Reservation, error) {
	return w.Transition(ctx, id, domain.StatusConfirmed)
}

func (w *workflow) Reject(ctx context.Context, id int) (*domain.Reservation, error) {
	return w.Transition(ctx, id, domain.StatusRejected)
}

func (w *workflow) ListPending(ctx context.Context) ([]domain.Reservation, error) {
	return w.reservations.ListByStatus(ctx, domain.StatusPending)
}

func (w *workflow) ListConfirmed(ctx context.Context) ([]domain.Reservation, error) {
	return w.reservations.ListByStatus(ctx, domain.StatusConfirmed)
}

func (w *workflow) ListRejected(ctx context.Context) ([]domain.Reservation, error) {
	return w.reservations.ListByStatus(ctx, domain.StatusRejected)
}

func (w *workflow) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return w.reservations.ListAll(ctx)
}

func (w *workflow) UnreadNotifications(ctx context.Context) ([]domain.Notification, error) {
	return w.notifications.ListUnread(ctx)
}

func (w *workflow) UnreadCount(ctx context.Context) (int64, error) {
	return w.notifications.CountUnread(ctx)
}

func (w *workflow) MarkNotificationRead(ctx context.Context, id int) error {
	return w.notifications.MarkRead(ctx, id)
}

func (w *workflow) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	return w.notifications.MarkAllRead(ctx)
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
