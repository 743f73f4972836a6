// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// SeenProduct model: the bounded per-user set of already-processed
// product URLs.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// MarkSeen records productURL as processed for userID. Marking an already
// seen URL is a no-op, not an error.
func MarkSeen(ctx context.Context, db *gorm.DB, userID int64, productURL string) error {
	s := &domain.SeenProduct{
		UserID:     userID,
		ProductURL: productURL,
		FirstSeen:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// IsSeen reports whether productURL has already been processed for userID.
func IsSeen(ctx context.Context, db *gorm.DB, userID int64, productURL string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SeenProduct{}).
		Where("user_id = ? AND product_url = ?", userID, productURL).
		Count(&n).Error
	return n > 0, err
}

// ClearSeen deletes every seen row for userID. Delivery records are
// untouched: clearing the set re-announces products but never rewrites
// delivery history.
func ClearSeen(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	res := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.SeenProduct{})
	return res.RowsAffected, res.Error
}

// TrimSeen keeps the max most recently seen rows for userID and deletes the
// rest. Called at the end of each check run to bound the set.
func TrimSeen(ctx context.Context, db *gorm.DB, userID int64, max int) error {
	if max <= 0 {
		return nil
	}
	var keep []uint
	err := db.WithContext(ctx).
		Model(&domain.SeenProduct{}).
		Where("user_id = ?", userID).
		Order("first_seen desc, id desc").
		Limit(max).
		Pluck("id", &keep).Error
	if err != nil {
		return err
	}
	if len(keep) < max {
		return nil // nothing beyond the cap
	}
	return db.WithContext(ctx).
		Where("user_id = ? AND id NOT IN ?", userID, keep).
		Delete(&domain.SeenProduct{}).Error
}
