// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Delivery
// model: confirmed deliverable (user, product, pincode) triples and their
// notification state.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// SaveDeliveryResult records a deliverability confirmation for the
// (userID, product URL, pincode) triple. On the first confirmation it
// inserts a row with Notified=false and reports created=true; every later
// confirmation only refreshes LastChecked and reports created=false.
// FirstFound and Notified never regress.
func SaveDeliveryResult(ctx context.Context, db *gorm.DB, userID int64, p domain.Product, pincode string) (created bool, err error) {
	now := time.Now().UTC()
	rec := &domain.Delivery{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductURL:  p.URL,
		Pincode:     pincode,
		ProductName: p.Name,
		Price:       p.Price,
		FirstFound:  now,
		LastChecked: now,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if !isUniqueViolation(err) {
			return false, err
		}
		res := db.WithContext(ctx).
			Model(&domain.Delivery{}).
			Where("user_id = ? AND product_url = ? AND pincode = ?", userID, p.URL, pincode).
			Update("last_checked", now)
		return false, res.Error
	}
	return true, nil
}

// RecentlyChecked reports whether the triple was confirmed within the
// freshness window ending at now. A fresh row lets the pipeline skip the
// remote deliverability probe entirely.
func RecentlyChecked(ctx context.Context, db *gorm.DB, userID int64, productURL, pincode string, window time.Duration, now time.Time) (bool, error) {
	if window <= 0 {
		return false, nil
	}
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Where("user_id = ? AND product_url = ? AND pincode = ? AND last_checked > ?",
			userID, productURL, pincode, now.Add(-window)).
		Count(&n).Error
	return n > 0, err
}

// ListUnnotified returns every delivery row for userID that has not been
// notified yet, oldest first.
func ListUnnotified(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Delivery, error) {
	var out []domain.Delivery
	err := db.WithContext(ctx).
		Where("user_id = ? AND notified = ?", userID, false).
		Order("first_found asc").
		Find(&out).Error
	return out, err
}

// MarkNotified flips the notified flag on the given delivery IDs.
func MarkNotified(ctx context.Context, db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Where("id IN ?", ids).
		Update("notified", true).Error
}

// CountDeliveries returns the total delivery rows for userID.
func CountDeliveries(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Delivery{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListDeliveriesPage returns a paginated slice of delivery rows for userID,
// most recently found first. Use CountDeliveries to obtain the total for
// pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListDeliveriesPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.Delivery, error) {
	var out []domain.Delivery
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("first_found desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
