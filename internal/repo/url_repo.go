// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the MonitorURL
// model: the catalog filter URLs each user watches.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// ListURLs returns all monitor URLs belonging to userID in insertion order
// (oldest first). Commands display and remove by 1-based position in this
// order, so it must be stable. It returns an empty slice if the user has
// no URLs.
func ListURLs(ctx context.Context, db *gorm.DB, userID int64) ([]domain.MonitorURL, error) {
	var out []domain.MonitorURL
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// AddURL inserts a new monitor URL for userID. Duplicate detection is by
// exact string match on the unique (user_id, url) index; a duplicate
// returns ErrDuplicate. On other DB errors, the raw error is returned.
func AddURL(ctx context.Context, db *gorm.DB, userID int64, url string) (*domain.MonitorURL, error) {
	u := &domain.MonitorURL{
		UserID:    userID,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// RemoveURLByIndex deletes the URL at 1-based position idx in insertion
// order and returns the removed URL string. Out-of-range indices return
// ErrNotFound.
func RemoveURLByIndex(ctx context.Context, db *gorm.DB, userID int64, idx int) (string, error) {
	urls, err := ListURLs(ctx, db, userID)
	if err != nil {
		return "", err
	}
	if idx < 1 || idx > len(urls) {
		return "", ErrNotFound
	}
	victim := urls[idx-1]
	if err := db.WithContext(ctx).Delete(&domain.MonitorURL{}, victim.ID).Error; err != nil {
		return "", err
	}
	return victim.URL, nil
}
