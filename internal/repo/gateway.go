// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides Gateway, a thin struct adapter that
// exposes the package's free functions as methods so services can declare
// narrow interfaces and tests can substitute fakes.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
)

// Gateway adapts the repository functions to an injectable value.
type Gateway struct{}

func (Gateway) GetSettings(ctx context.Context, db *gorm.DB, userID int64) (*domain.UserSettings, error) {
	return GetSettings(ctx, db, userID)
}

func (Gateway) SetCredentials(ctx context.Context, db *gorm.DB, userID int64, creds string) error {
	return SetCredentials(ctx, db, userID, creds)
}

func (Gateway) StampLastChecked(ctx context.Context, db *gorm.DB, userID int64, at time.Time) error {
	return StampLastChecked(ctx, db, userID, at)
}

func (Gateway) GetUserStats(ctx context.Context, db *gorm.DB, userID int64) (*UserStats, error) {
	return GetUserStats(ctx, db, userID)
}

func (Gateway) ListURLs(ctx context.Context, db *gorm.DB, userID int64) ([]domain.MonitorURL, error) {
	return ListURLs(ctx, db, userID)
}

func (Gateway) AddURL(ctx context.Context, db *gorm.DB, userID int64, url string) (*domain.MonitorURL, error) {
	return AddURL(ctx, db, userID, url)
}

func (Gateway) RemoveURLByIndex(ctx context.Context, db *gorm.DB, userID int64, idx int) (string, error) {
	return RemoveURLByIndex(ctx, db, userID, idx)
}

func (Gateway) ListPincodes(ctx context.Context, db *gorm.DB, userID int64) ([]string, error) {
	return ListPincodes(ctx, db, userID)
}

func (Gateway) AddPincodes(ctx context.Context, db *gorm.DB, userID int64, codes []string) ([]string, error) {
	return AddPincodes(ctx, db, userID, codes)
}

func (Gateway) RemovePincodes(ctx context.Context, db *gorm.DB, userID int64, codes []string) ([]string, error) {
	return RemovePincodes(ctx, db, userID, codes)
}

func (Gateway) IsSeen(ctx context.Context, db *gorm.DB, userID int64, productURL string) (bool, error) {
	return IsSeen(ctx, db, userID, productURL)
}

func (Gateway) MarkSeen(ctx context.Context, db *gorm.DB, userID int64, productURL string) error {
	return MarkSeen(ctx, db, userID, productURL)
}

func (Gateway) ClearSeen(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	return ClearSeen(ctx, db, userID)
}

func (Gateway) TrimSeen(ctx context.Context, db *gorm.DB, userID int64, max int) error {
	return TrimSeen(ctx, db, userID, max)
}

func (Gateway) RecentlyChecked(ctx context.Context, db *gorm.DB, userID int64, productURL, pincode string, window time.Duration, now time.Time) (bool, error) {
	return RecentlyChecked(ctx, db, userID, productURL, pincode, window, now)
}

func (Gateway) SaveDeliveryResult(ctx context.Context, db *gorm.DB, userID int64, p domain.Product, pincode string) (bool, error) {
	return SaveDeliveryResult(ctx, db, userID, p, pincode)
}

func (Gateway) ListUnnotified(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Delivery, error) {
	return ListUnnotified(ctx, db, userID)
}

func (Gateway) MarkNotified(ctx context.Context, db *gorm.DB, ids []string) error {
	return MarkNotified(ctx, db, ids)
}

func (Gateway) CountDeliveries(ctx context.Context, db *gorm.DB, userID int64) (int64, error) {
	return CountDeliveries(ctx, db, userID)
}

func (Gateway) ListDeliveriesPage(ctx context.Context, db *gorm.DB, userID int64, offset, limit int) ([]domain.Delivery, error) {
	return ListDeliveriesPage(ctx, db, userID, offset, limit)
}
