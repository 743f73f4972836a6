// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Pincode
// model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// ListPincodes returns the user's pincodes sorted lexically. Codes are
// fixed-width digit strings, so lexical order matches numeric order.
func ListPincodes(ctx context.Context, db *gorm.DB, userID int64) ([]string, error) {
	var codes []string
	err := db.WithContext(ctx).
		Model(&domain.Pincode{}).
		Where("user_id = ?", userID).
		Order("code asc").
		Pluck("code", &codes).Error
	return codes, err
}

// AddPincodes inserts a batch of pincodes for userID and returns the subset
// actually added. Codes already present are silently skipped, not errors.
func AddPincodes(ctx context.Context, db *gorm.DB, userID int64, codes []string) ([]string, error) {
	added := make([]string, 0, len(codes))
	now := time.Now().UTC()
	for _, code := range codes {
		p := &domain.Pincode{UserID: userID, Code: code, CreatedAt: now}
		if err := db.WithContext(ctx).Create(p).Error; err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return added, err
		}
		added = append(added, code)
	}
	return added, nil
}

// RemovePincodes deletes a batch of pincodes for userID and returns the
// subset that actually existed and was removed.
func RemovePincodes(ctx context.Context, db *gorm.DB, userID int64, codes []string) ([]string, error) {
	removed := make([]string, 0, len(codes))
	for _, code := range codes {
		res := db.WithContext(ctx).
			Where("user_id = ? AND code = ?", userID, code).
			Delete(&domain.Pincode{})
		if res.Error != nil {
			return removed, res.Error
		}
		if res.RowsAffected > 0 {
			removed = append(removed, code)
		}
	}
	return removed, nil
}
