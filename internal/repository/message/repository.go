package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aniladanir/reservation-intake-service/internal/cache"
	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Save(ctx context.Context, entry *domain.HistoryEntry) error
	ListByCustomer(ctx context.Context, platform domain.Platform, customerID string, limit int) ([]domain.HistoryEntry, error)
	// MarkSeen records a platform message id and reports whether it was new.
	MarkSeen(ctx context.Context, platform domain.Platform, platformMessageID string) (bool, error)
	// Forget clears a MarkSeen mark so a redelivery is processed again.
	Forget(ctx context.Context, platform domain.Platform, platformMessageID string) error
}

type repo struct {
	db       *gorm.DB
	cache    cache.Cache
	dedupTTL time.Duration
}

func NewMessageRepository(db *gorm.DB, cache cache.Cache, dedupTTL time.Duration) Repository {
	return &repo{db: db, cache: cache, dedupTTL: dedupTTL}
}

// Save inserts a history entry
func (r *repo) Save(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByCustomer returns the latest entries of a conversation, newest first
func (r *repo) ListByCustomer(ctx context.Context, platform domain.Platform, customerID string, limit int) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	query := r.db.WithContext(ctx).
		Where("platform = ? AND customer_id = ?", platform, customerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&entries).Error
	return entries, err
}

// MarkSeen uses SETNX so concurrent deliveries of the same message agree on one winner.
// Without a cache every message counts as new.
func (r *repo) MarkSeen(ctx context.Context, platform domain.Platform, platformMessageID string) (bool, error) {
	if r.cache == nil {
		return true, nil
	}
	return r.cache.SetNX(ctx, SeenKey(platform, platformMessageID), time.Now().UTC().Format(time.RFC3339), r.dedupTTL)
}

func (r *repo) Forget(ctx context.Context, platform domain.Platform, platformMessageID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Del(ctx, SeenKey(platform, platformMessageID))
}

// SeenKey is the cache key that marks an inbound platform message as processed.
func SeenKey(platform domain.Platform, platformMessageID string) string {
	return fmt.Sprintf("inbound_msg:%s:%s", platform, platformMessageID)
}
