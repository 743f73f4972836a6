// Package domain defines the persistence models for monitored users: their
// filter URLs, pincodes, seen products, and confirmed deliveries. These types
// are mapped with GORM and form the core data layer of the watcher.
package domain

import (
	"time"
)

// UserSettings holds per-user state that is not a list: the opaque
// authentication credential blob (a pre-assembled Cookie header value
// obtained through the OTP login flow) and the timestamp of the last
// completed check run.
//
// Fields:
//   - UserID: Telegram chat/user identifier, primary key.
//   - AuthCookies: opaque credential string; empty means "not logged in".
//   - LastCheckedAt: set after each completed check run; nil before the first.
type UserSettings struct {
	UserID        int64      `json:"user_id"         gorm:"primaryKey"`
	AuthCookies   string     `json:"-"               gorm:"type:text"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for UserSettings.
func (UserSettings) TableName() string { return "user_settings" }

// MonitorURL is one catalog filter URL a user watches. Ordering is by
// insertion time, which is also the order commands display and remove by.
type MonitorURL struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id"    gorm:"not null;index;uniqueIndex:ux_user_url,priority:1"`
	URL       string    `json:"url"        gorm:"type:text;not null;uniqueIndex:ux_user_url,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for MonitorURL.
func (MonitorURL) TableName() string { return "monitor_urls" }

// Pincode is a postal code a user wants delivery checks against.
// Valid codes are 5 or 6 digit strings; validation happens at the
// command layer, the model stores whatever was accepted.
type Pincode struct {
	ID        uint      `json:"id"      gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id" gorm:"not null;index;uniqueIndex:ux_user_pincode,priority:1"`
	Code      string    `json:"code"    gorm:"type:varchar(6);not null;uniqueIndex:ux_user_pincode,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Pincode.
func (Pincode) TableName() string { return "pincodes" }

// SeenProduct marks a product URL as already processed for a user, so the
// next check run does not re-announce it. The set is bounded: old rows are
// trimmed once the per-user count exceeds the configured maximum.
type SeenProduct struct {
	ID         uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"user_id"     gorm:"not null;index;uniqueIndex:ux_user_seen,priority:1"`
	ProductURL string    `json:"product_url" gorm:"type:text;not null;uniqueIndex:ux_user_seen,priority:2"`
	FirstSeen  time.Time `json:"first_seen"`
}

// TableName returns the database table name for SeenProduct.
func (SeenProduct) TableName() string { return "seen_products" }

// Delivery records a confirmed (or optimistically assumed) deliverable
// product for a (user, product URL, pincode) triple. Re-confirmations
// refresh LastChecked only; FirstFound and Notified never regress.
// Clearing the seen set does not touch delivery rows.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID / ProductURL / Pincode: the unique triple.
//   - ProductName / Price: snapshot taken when the delivery was first found.
//   - FirstFound: when the triple was first confirmed.
//   - LastChecked: refreshed on every re-confirmation; drives the
//     freshness window that suppresses redundant delivery checks.
//   - Notified: whether a notification for this row has been sent
//     (or resent); set once, never cleared.
type Delivery struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      int64     `json:"user_id"      gorm:"not null;index;uniqueIndex:ux_user_product_pin,priority:1"`
	ProductURL  string    `json:"product_url"  gorm:"type:text;not null;uniqueIndex:ux_user_product_pin,priority:2"`
	Pincode     string    `json:"pincode"      gorm:"type:varchar(6);not null;uniqueIndex:ux_user_product_pin,priority:3"`
	ProductName string    `json:"product_name" gorm:"type:varchar(255)"`
	Price       float64   `json:"price"`
	FirstFound  time.Time `json:"first_found"`
	LastChecked time.Time `json:"last_checked" gorm:"index"`
	Notified    bool      `json:"notified"     gorm:"not null;default:false;index"`
}

// TableName returns the database table name for Delivery.
func (Delivery) TableName() string { return "deliveries" }
