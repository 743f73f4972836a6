// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for per-user
// settings: the auth credential blob and the last-checked stamp.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/averma/versewatch/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a row already exists for a unique tuple
// (a monitor URL the user already watches, a pincode already configured).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// GetSettings fetches the settings row for userID. A user that never stored
// anything has no row; callers get ErrNotFound and should treat it as
// defaults (no credentials, never checked).
func GetSettings(ctx context.Context, db *gorm.DB, userID int64) (*domain.UserSettings, error) {
	var s domain.UserSettings
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetCredentials upserts the opaque auth credential blob for userID.
// An empty blob is valid and means "logged out".
func SetCredentials(ctx context.Context, db *gorm.DB, userID int64, creds string) error {
	now := time.Now().UTC()
	s := &domain.UserSettings{
		UserID:      userID,
		AuthCookies: creds,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{"auth_cookies": creds, "updated_at": now}),
		}).
		Create(s).Error
}

// StampLastChecked upserts the last-checked timestamp for userID. It is
// called once per completed check run.
func StampLastChecked(ctx context.Context, db *gorm.DB, userID int64, at time.Time) error {
	at = at.UTC()
	s := &domain.UserSettings{
		UserID:        userID,
		LastCheckedAt: &at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{"last_checked_at": at, "updated_at": at}),
		}).
		Create(s).Error
}

// UserStats aggregates the per-user counters shown by status commands.
type UserStats struct {
	URLCount       int64
	PincodeCount   int64
	SeenCount      int64
	DeliveryCount  int64
	PendingNotify  int64
	LastCheckedAt  *time.Time
	HasCredentials bool
}

// GetUserStats returns the aggregate counters for userID. A user with no
// rows at all yields all-zero stats, not an error.
func GetUserStats(ctx context.Context, db *gorm.DB, userID int64) (*UserStats, error) {
	var st UserStats
	h := db.WithContext(ctx)

	if err := h.Model(&domain.MonitorURL{}).Where("user_id = ?", userID).Count(&st.URLCount).Error; err != nil {
		return nil, err
	}
	if err := h.Model(&domain.Pincode{}).Where("user_id = ?", userID).Count(&st.PincodeCount).Error; err != nil {
		return nil, err
	}
	if err := h.Model(&domain.SeenProduct{}).Where("user_id = ?", userID).Count(&st.SeenCount).Error; err != nil {
		return nil, err
	}
	if err := h.Model(&domain.Delivery{}).Where("user_id = ?", userID).Count(&st.DeliveryCount).Error; err != nil {
		return nil, err
	}
	if err := h.Model(&domain.Delivery{}).Where("user_id = ? AND notified = ?", userID, false).Count(&st.PendingNotify).Error; err != nil {
		return nil, err
	}

	s, err := GetSettings(ctx, db, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// never logged in, never checked
	case err != nil:
		return nil, err
	default:
		st.LastCheckedAt = s.LastCheckedAt
		st.HasCredentials = strings.TrimSpace(s.AuthCookies) != ""
	}
	return &st, nil
}
