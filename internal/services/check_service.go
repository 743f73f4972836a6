// Package services – CheckService
//
// This file implements the per-user check pipeline: fetch the catalog for
// every monitor URL, detect products not yet in the seen-set, gate them
// through the availability probe, confirm deliverability per pincode, and
// persist first-time deliveries. Notification events are emitted into a
// channel consumed concurrently by the Notifier, so a user sees the first
// delivery before the whole multi-URL run finishes.
//
// A failing product or URL is logged and skipped; partial failure never
// aborts a run. Only the session flag can reject a run (ErrCheckInProgress).
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/averma/versewatch/internal/domain"
	"github.com/averma/versewatch/internal/metrics"
	"github.com/averma/versewatch/internal/repo"
	"github.com/averma/versewatch/internal/session"
)

// Catalog is the storefront client contract required by CheckService.
type Catalog interface {
	// FetchProducts returns the first listing page for a filter URL.
	// Failures yield an empty slice, never an error.
	FetchProducts(ctx context.Context, filterURL, creds string) []domain.Product

	// CheckAvailability probes the cart endpoint. Unknown when the probe
	// cannot run or cannot decide.
	CheckAvailability(ctx context.Context, productCode, creds string) domain.TriState

	// CheckDeliverable probes delivery eligibility for one pincode.
	CheckDeliverable(ctx context.Context, productCode, pincode, creds string) domain.TriState

	// CanCheckAvailability reports whether the availability side channel
	// is reachable at all.
	CanCheckAvailability() bool
}

// CheckStore defines the persistence contract required by CheckService.
type CheckStore interface {
	GetSettings(ctx context.Context, db *gorm.DB, userID int64) (*domain.UserSettings, error)
	ListURLs(ctx context.Context, db *gorm.DB, userID int64) ([]domain.MonitorURL, error)
	ListPincodes(ctx context.Context, db *gorm.DB, userID int64) ([]string, error)
	IsSeen(ctx context.Context, db *gorm.DB, userID int64, productURL string) (bool, error)
	MarkSeen(ctx context.Context, db *gorm.DB, userID int64, productURL string) error
	TrimSeen(ctx context.Context, db *gorm.DB, userID int64, max int) error
	RecentlyChecked(ctx context.Context, db *gorm.DB, userID int64, productURL, pincode string, window time.Duration, now time.Time) (bool, error)
	SaveDeliveryResult(ctx context.Context, db *gorm.DB, userID int64, p domain.Product, pincode string) (bool, error)
	StampLastChecked(ctx context.Context, db *gorm.DB, userID int64, at time.Time) error
}

// Summary is the result of one per-user check run.
type Summary struct {
	NewProducts   int
	NewDeliveries int
}

// CheckService runs the product discovery and delivery confirmation
// pipeline for one user at a time.
type CheckService struct {
	DB       *gorm.DB
	Store    CheckStore
	Catalog  Catalog
	Sessions *session.Registry

	// Freshness suppresses re-probing a delivery triple confirmed within
	// this window. Zero disables the cache.
	Freshness time.Duration
	// MaxSeen bounds the per-user seen-set.
	MaxSeen int

	Log zerolog.Logger
}

// Run executes one full check for userID, emitting notification events into
// events as they happen. The channel is not closed here; the caller owns it.
// Run returns ErrCheckInProgress when a run is already active for the user.
func (s *CheckService) Run(ctx context.Context, userID int64, events chan<- domain.Event) (Summary, error) {
	sess := s.Sessions.Get(userID)
	if !sess.TryAcquire() {
		metrics.ChecksTotal.WithLabelValues("busy").Inc()
		return Summary{}, ErrCheckInProgress
	}
	defer sess.Release()

	start := time.Now()
	log := s.Log.With().Int64("user", userID).Logger()

	var sum Summary
	creds := ""
	if settings, err := s.Store.GetSettings(ctx, s.DB, userID); err == nil {
		creds = settings.AuthCookies
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Error().Err(err).Msg("load settings")
	}

	urls, err := s.Store.ListURLs(ctx, s.DB, userID)
	if err != nil {
		metrics.ChecksTotal.WithLabelValues("error").Inc()
		return sum, err
	}
	pincodes, err := s.Store.ListPincodes(ctx, s.DB, userID)
	if err != nil {
		metrics.ChecksTotal.WithLabelValues("error").Inc()
		return sum, err
	}

	for _, u := range urls {
		products := s.Catalog.FetchProducts(ctx, u.URL, creds)
		if len(products) == 0 {
			log.Debug().Str("url", u.URL).Msg("no products from url")
			continue
		}
		for _, p := range products {
			s.processProduct(ctx, log, userID, creds, p, pincodes, events, &sum)
		}
	}

	if err := s.Store.TrimSeen(ctx, s.DB, userID, s.MaxSeen); err != nil {
		log.Error().Err(err).Msg("trim seen set")
	}
	if err := s.Store.StampLastChecked(ctx, s.DB, userID, time.Now().UTC()); err != nil {
		log.Error().Err(err).Msg("stamp last checked")
	}

	metrics.ChecksTotal.WithLabelValues("ok").Inc()
	metrics.CheckDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Int("new_products", sum.NewProducts).
		Int("new_deliveries", sum.NewDeliveries).
		Dur("took", time.Since(start)).
		Msg("check run complete")
	return sum, nil
}

// processProduct handles one catalog item. Errors are logged and swallowed
// so the run continues with the next product.
func (s *CheckService) processProduct(ctx context.Context, log zerolog.Logger, userID int64, creds string, p domain.Product, pincodes []string, events chan<- domain.Event, sum *Summary) {
	seen, err := s.Store.IsSeen(ctx, s.DB, userID, p.URL)
	if err != nil {
		log.Error().Err(err).Str("product", p.URL).Msg("seen lookup")
		return
	}
	if seen {
		return
	}

	sum.NewProducts++
	metrics.ProductsDiscovered.Inc()
	emit(ctx, events, domain.Event{Kind: domain.EventNewProduct, UserID: userID, Product: p})

	// The availability probe only runs when the side channel is reachable
	// and the user has credentials. A confirmed "no" skips delivery checks;
	// unknown proceeds optimistically.
	if p.Code != "" && creds != "" && s.Catalog.CanCheckAvailability() {
		if s.Catalog.CheckAvailability(ctx, p.Code, creds) == domain.No {
			log.Debug().Str("product", p.URL).Msg("unavailable, skipping delivery checks")
			s.markSeen(ctx, log, userID, p.URL)
			return
		}
	}

	now := time.Now().UTC()
	for _, pin := range pincodes {
		fresh, err := s.Store.RecentlyChecked(ctx, s.DB, userID, p.URL, pin, s.Freshness, now)
		if err != nil {
			log.Error().Err(err).Str("product", p.URL).Str("pincode", pin).Msg("freshness lookup")
		} else if fresh {
			continue
		}

		if p.Code != "" && !s.Catalog.CheckDeliverable(ctx, p.Code, pin, creds).Possible() {
			continue
		}

		created, err := s.Store.SaveDeliveryResult(ctx, s.DB, userID, p, pin)
		if err != nil {
			log.Error().Err(err).Str("product", p.URL).Str("pincode", pin).Msg("save delivery")
			continue
		}
		if created {
			sum.NewDeliveries++
			metrics.DeliveriesFound.Inc()
			emit(ctx, events, domain.Event{Kind: domain.EventDelivery, UserID: userID, Product: p, Pincode: pin})
		}
	}

	s.markSeen(ctx, log, userID, p.URL)
}

func (s *CheckService) markSeen(ctx context.Context, log zerolog.Logger, userID int64, productURL string) {
	if err := s.Store.MarkSeen(ctx, s.DB, userID, productURL); err != nil {
		log.Error().Err(err).Str("product", productURL).Msg("mark seen")
	}
}

// emit delivers an event unless the run is cancelled. A nil channel means
// the caller does not want events (manual runs that only need the summary).
func emit(ctx context.Context, events chan<- domain.Event, ev domain.Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
