// Package services – UserService
//
// This file implements user preference management: monitor URLs, pincodes,
// credentials, the phone-OTP login flow, and the status aggregation behind
// the mystatus command. Input validation lives here so the bot layer stays
// a thin translation of commands to service calls.
package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/repo"
	"github.com/averma/versewatch/internal/session"
)

// pincodeRE accepts 5 or 6 digit postal codes.
var pincodeRE = regexp.MustCompile(`^\d{5,6}$`)

// ValidPincode reports whether code is an acceptable postal code.
func ValidPincode(code string) bool { return pincodeRE.MatchString(code) }

// SplitPincodes partitions a batch of raw tokens into valid and invalid
// postal codes. Batches are never partially rejected: valid entries proceed
// and invalid ones are reported back.
func SplitPincodes(tokens []string) (valid, invalid []string) {
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if ValidPincode(t) {
			valid = append(valid, t)
		} else {
			invalid = append(invalid, t)
		}
	}
	return valid, invalid
}

// Auth is the login slice of the storefront client used by UserService.
type Auth interface {
	RequestLoginCode(ctx context.Context, phone string) error
	VerifyLoginCode(ctx context.Context, phone, otp string) (string, error)
}

// UserStore defines the persistence contract required by UserService.
type UserStore interface {
	ListURLs(ctx context.Context, db *gorm.DB, userID int64) ([]domain.MonitorURL, error)
	AddURL(ctx context.Context, db *gorm.DB, userID int64, url string) (*domain.MonitorURL, error)
	RemoveURLByIndex(ctx context.Context, db *gorm.DB, userID int64, idx int) (string, error)
	ListPincodes(ctx context.Context, db *gorm.DB, userID int64) ([]string, error)
	AddPincodes(ctx context.Context, db *gorm.DB, userID int64, codes []string) ([]string, error)
	RemovePincodes(ctx context.Context, db *gorm.DB, userID int64, codes []string) ([]string, error)
	SetCredentials(ctx context.Context, db *gorm.DB, userID int64, creds string) error
	ClearSeen(ctx context.Context, db *gorm.DB, userID int64) (int64, error)
	GetUserStats(ctx context.Context, db *gorm.DB, userID int64) (*repo.UserStats, error)
}

// UserService manages per-user preferences and the login flow.
type UserService struct {
	DB       *gorm.DB
	Store    UserStore
	Auth     Auth
	Sessions *session.Registry
}

// AddURL validates and stores a monitor URL.
func (s *UserService) AddURL(ctx context.Context, userID int64, raw string) error {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	if _, err := s.Store.AddURL(ctx, s.DB, userID, raw); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrDuplicateURL
		}
		return err
	}
	return nil
}

// ListURLs returns the user's monitor URLs in display order.
func (s *UserService) ListURLs(ctx context.Context, userID int64) ([]domain.MonitorURL, error) {
	return s.Store.ListURLs(ctx, s.DB, userID)
}

// RemoveURL deletes the URL at 1-based display position idx and returns it.
func (s *UserService) RemoveURL(ctx context.Context, userID int64, idx int) (string, error) {
	removed, err := s.Store.RemoveURLByIndex(ctx, s.DB, userID, idx)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrURLNotFound
	}
	return removed, err
}

// AddPincodes validates a batch of postal codes and stores the valid ones.
// It returns the codes actually added and the invalid tokens.
func (s *UserService) AddPincodes(ctx context.Context, userID int64, tokens []string) (added, invalid []string, err error) {
	valid, invalid := SplitPincodes(tokens)
	if len(valid) == 0 {
		return nil, invalid, nil
	}
	added, err = s.Store.AddPincodes(ctx, s.DB, userID, valid)
	return added, invalid, err
}

// RemovePincodes deletes a batch of postal codes, returning those removed
// and the invalid tokens.
func (s *UserService) RemovePincodes(ctx context.Context, userID int64, tokens []string) (removed, invalid []string, err error) {
	valid, invalid := SplitPincodes(tokens)
	if len(valid) == 0 {
		return nil, invalid, nil
	}
	removed, err = s.Store.RemovePincodes(ctx, s.DB, userID, valid)
	return removed, invalid, err
}

// ListPincodes returns the user's postal codes.
func (s *UserService) ListPincodes(ctx context.Context, userID int64) ([]string, error) {
	return s.Store.ListPincodes(ctx, s.DB, userID)
}

// SetCredentials stores a manually supplied credential blob verbatim.
func (s *UserService) SetCredentials(ctx context.Context, userID int64, creds string) error {
	return s.Store.SetCredentials(ctx, s.DB, userID, strings.TrimSpace(creds))
}

// StartLogin requests an OTP for phone and remembers the pending login in
// the user's session.
func (s *UserService) StartLogin(ctx context.Context, userID int64, phone string) error {
	if err := s.Auth.RequestLoginCode(ctx, phone); err != nil {
		return err
	}
	s.Sessions.Get(userID).SetPendingLogin(phone)
	return nil
}

// CompleteLogin exchanges the OTP for credentials and persists them.
// ErrNoPendingLogin when StartLogin was not called first; on a rejected
// OTP the pending phone is consumed and the user must restart.
func (s *UserService) CompleteLogin(ctx context.Context, userID int64, otp string) error {
	phone, ok := s.Sessions.Get(userID).TakePendingLogin()
	if !ok {
		return ErrNoPendingLogin
	}
	creds, err := s.Auth.VerifyLoginCode(ctx, phone, otp)
	if err != nil {
		return err
	}
	return s.Store.SetCredentials(ctx, s.DB, userID, creds)
}

// ClearSeen empties the user's seen-set and returns how many rows went.
// Deliveries and pincodes are untouched.
func (s *UserService) ClearSeen(ctx context.Context, userID int64) (int64, error) {
	return s.Store.ClearSeen(ctx, s.DB, userID)
}

// Status aggregates the counters shown by the mystatus command.
func (s *UserService) Status(ctx context.Context, userID int64) (*repo.UserStats, error) {
	return s.Store.GetUserStats(ctx, s.DB, userID)
}
